/*
Copyright © 2025 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"fmt"

	"github.com/blacktop/go-armboot"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check <board-file>",
	Short: "Validate a board description against the boot-path invariants",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := armboot.LoadBoardConfig(args[0])
		if err != nil {
			return err
		}

		if err := cfg.Validate(); err != nil {
			fmt.Println(color.RedString("FAIL"), err)
			return fmt.Errorf("board description is invalid")
		}

		fmt.Println(color.GreenString("OK"))
		fmt.Printf("cores: %d, boot core: %d, counter: %d Hz\n", cfg.Cores, cfg.BootCoreID, cfg.CounterFrequency)
		fmt.Printf("bss: [0x%x, 0x%x), stack end: 0x%x, entry: 0x%x\n",
			cfg.Layout.BSSStart, cfg.Layout.BSSEndExclusive,
			cfg.Layout.StackEndExclusive, cfg.Layout.EntryPoint)
		return nil
	},
}
