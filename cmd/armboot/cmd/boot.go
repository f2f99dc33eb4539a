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
	"encoding/json"
	"fmt"
	"os"

	"github.com/blacktop/go-armboot"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(bootCmd)
	bootCmd.Flags().IntP("cores", "c", 0, "Override core count")
	bootCmd.Flags().Uint64P("boot-core", "b", 0, "Override boot core identifier")
	bootCmd.Flags().Uint32P("frequency", "f", 0, "Override counter frequency (Hz)")
	bootCmd.Flags().Bool("no-timer", false, "Run the base boot variant without the timer probe")
	bootCmd.Flags().Bool("lower-el", false, "Drop to EL1 before handoff")
}

var bootCmd = &cobra.Command{
	Use:   "boot [board-file]",
	Short: "Boot a simulated board and print the machine report as JSON",
	Long: `Boot a simulated ARM64 board and print the machine report as JSON.

The board description is a YAML file; without one the default four-core
board is used. Flags override individual fields of the description.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := armboot.DefaultBoardConfig()
		if len(args) > 0 {
			var err error
			cfg, err = armboot.LoadBoardConfig(args[0])
			if err != nil {
				return err
			}
		}

		if n, _ := cmd.Flags().GetInt("cores"); n > 0 {
			cfg.Cores = n
		}
		if cmd.Flags().Changed("boot-core") {
			cfg.BootCoreID, _ = cmd.Flags().GetUint64("boot-core")
		}
		if cmd.Flags().Changed("frequency") {
			cfg.CounterFrequency, _ = cmd.Flags().GetUint32("frequency")
		}
		if noTimer, _ := cmd.Flags().GetBool("no-timer"); noTimer {
			cfg.TimerProbe = false
		}
		if lower, _ := cmd.Flags().GetBool("lower-el"); lower {
			cfg.LowerEL = true
		}

		m, err := armboot.NewMachine(cfg)
		if err != nil {
			return err
		}
		defer m.Close()

		report, err := m.BootAll()
		if err != nil {
			return err
		}

		if report.HandedOff {
			fmt.Fprintln(os.Stderr, color.GreenString("core %d handed off to 0x%x", report.BootCoreID, report.EntryPC))
		} else {
			fmt.Fprintln(os.Stderr, color.RedString("no handoff: all cores parked"))
		}

		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		fmt.Println(string(out))
		return nil
	},
}
