package armboot

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ImageLayout carries the link-time addresses the boot path consumes.
// On hardware these are linker-script symbols; here they are explicit
// so the same invariants can be validated up front instead of being a
// silent contract.
type ImageLayout struct {
	// BSSStart and BSSEndExclusive bound the zero-initialized data
	// region. Both must be ZeroStride aligned; the zeroing loop
	// terminates on exact equality.
	BSSStart        uint64 `yaml:"bss_start" json:"bss_start"`
	BSSEndExclusive uint64 `yaml:"bss_end_exclusive" json:"bss_end_exclusive"`

	// StackEndExclusive is the upper bound the boot core's stack grows
	// down from.
	StackEndExclusive uint64 `yaml:"stack_end_exclusive" json:"stack_end_exclusive"`

	// BootCoreIDAddr is where the board configuration plants the boot
	// core identifier for the identity check to load.
	BootCoreIDAddr uint64 `yaml:"boot_core_id_addr" json:"boot_core_id_addr"`

	// TimerFreqAddr is the timekeeping subsystem's frequency slot,
	// written exactly once by the timer probe (extended variant).
	TimerFreqAddr uint64 `yaml:"timer_freq_addr" json:"timer_freq_addr"`

	// EntryPoint is the managed runtime's entry symbol, the target of
	// the final one-way branch.
	EntryPoint uint64 `yaml:"entry_point" json:"entry_point"`
}

// BoardConfig describes the modeled board: how many cores it has, what
// their registers read at reset, and where the linker placed things.
type BoardConfig struct {
	Cores   int    `yaml:"cores"`
	RAMBase uint64 `yaml:"ram_base"`
	RAMSize uint64 `yaml:"ram_size"`

	// BootCoreID is the single core index permitted past parking.
	BootCoreID uint64 `yaml:"boot_core_id"`

	// Affinity holds per-core reset values for the affinity register.
	// Cores beyond its length default to their own index.
	Affinity []uint64 `yaml:"affinity,omitempty"`

	// CounterFrequency is the CNTFRQ_EL0 reset value. Zero models the
	// misconfigured hardware the timer probe treats as fatal.
	CounterFrequency uint32 `yaml:"counter_frequency"`

	// TimerProbe selects the timer-extended boot variant.
	TimerProbe bool `yaml:"timer_probe"`
	// LowerEL additionally prepares the EL2 to EL1 drop at handoff.
	LowerEL bool `yaml:"lower_el"`

	Layout ImageLayout `yaml:"layout"`
}

// DefaultBoardConfig returns a Raspberry Pi 3 flavored board: four
// cores, core 0 boots, kernel entry at 0x80000 with the boot stack
// below it, and the 62.5 MHz counter QEMU reports for this part.
func DefaultBoardConfig() BoardConfig {
	return BoardConfig{
		Cores:            4,
		RAMBase:          0,
		RAMSize:          8 << 20,
		BootCoreID:       0,
		CounterFrequency: 62_500_000,
		TimerProbe:       true,
		Layout: ImageLayout{
			BSSStart:          0x90000,
			BSSEndExclusive:   0x91000,
			StackEndExclusive: 0x80000,
			BootCoreIDAddr:    0x70000,
			TimerFreqAddr:     0x70008,
			EntryPoint:        0x80000,
		},
	}
}

// ParseBoardConfig decodes a YAML board description.
func ParseBoardConfig(data []byte) (BoardConfig, error) {
	var cfg BoardConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return BoardConfig{}, fmt.Errorf("armboot: failed to parse board config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadBoardConfig reads and decodes a YAML board file.
func LoadBoardConfig(path string) (BoardConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BoardConfig{}, fmt.Errorf("armboot: failed to read board config: %w", err)
	}
	return ParseBoardConfig(data)
}

// applyDefaults fills zero-value fields a board file may omit.
func (c *BoardConfig) applyDefaults() {
	if c.Cores == 0 {
		c.Cores = 1
	}
}

// Validate checks the board description as a whole.
func (c *BoardConfig) Validate() error {
	if c.Cores < 1 {
		return fmt.Errorf("armboot: board needs at least one core, got %d", c.Cores)
	}
	if c.RAMSize == 0 {
		return fmt.Errorf("armboot: ram_size must be non-zero")
	}
	if c.RAMSize > uint64(maxRAMSize) {
		return fmt.Errorf("armboot: ram_size %d exceeds maximum %d", c.RAMSize, maxRAMSize)
	}
	if c.RAMBase > ^uint64(0)-c.RAMSize {
		return fmt.Errorf("armboot: RAM range would overflow the address space")
	}
	// Whether zero or multiple cores match BootCoreID is a hardware
	// guarantee, not something the boot path re-checks; the model
	// follows suit and does not validate it either.
	return c.Layout.Validate(c.RAMBase, c.RAMSize, c.TimerProbe)
}

const maxRAMSize = 1 << 31 // plenty for a boot image, keeps int conversions safe

// Validate checks the linker-contract invariants the boot path assumes
// without re-checking: region ordering, stride alignment, and that
// every consumed address is resolvable within RAM.
func (l ImageLayout) Validate(ramBase, ramSize uint64, timerProbe bool) error {
	ramEnd := ramBase + ramSize

	inRAM := func(addr uint64, n uint64) bool {
		return addr >= ramBase && addr <= ramEnd && n <= ramEnd-addr
	}

	if l.BSSEndExclusive < l.BSSStart {
		return fmt.Errorf("armboot: bss_end_exclusive 0x%x below bss_start 0x%x", l.BSSEndExclusive, l.BSSStart)
	}
	if l.BSSStart%ZeroStride != 0 || l.BSSEndExclusive%ZeroStride != 0 {
		return fmt.Errorf("armboot: bss bounds [0x%x, 0x%x) not %d-byte aligned: %w",
			l.BSSStart, l.BSSEndExclusive, ZeroStride, ErrUnalignedAddress)
	}
	if !inRAM(l.BSSStart, l.BSSEndExclusive-l.BSSStart) {
		return fmt.Errorf("armboot: bss region [0x%x, 0x%x) outside RAM: %w",
			l.BSSStart, l.BSSEndExclusive, ErrOutOfRange)
	}

	// AAPCS64 requires a 16-byte aligned stack pointer.
	if l.StackEndExclusive%16 != 0 {
		return fmt.Errorf("armboot: stack_end_exclusive 0x%x not 16-byte aligned: %w",
			l.StackEndExclusive, ErrUnalignedAddress)
	}
	if l.StackEndExclusive <= ramBase || l.StackEndExclusive > ramEnd {
		return fmt.Errorf("armboot: stack_end_exclusive 0x%x outside RAM (0x%x, 0x%x]: %w",
			l.StackEndExclusive, ramBase, ramEnd, ErrOutOfRange)
	}

	if l.BootCoreIDAddr%8 != 0 {
		return fmt.Errorf("armboot: boot_core_id_addr 0x%x not 8-byte aligned: %w",
			l.BootCoreIDAddr, ErrUnalignedAddress)
	}
	if !inRAM(l.BootCoreIDAddr, 8) {
		return fmt.Errorf("armboot: boot_core_id_addr 0x%x outside RAM: %w", l.BootCoreIDAddr, ErrOutOfRange)
	}

	if timerProbe {
		if l.TimerFreqAddr%4 != 0 {
			return fmt.Errorf("armboot: timer_freq_addr 0x%x not 4-byte aligned: %w",
				l.TimerFreqAddr, ErrUnalignedAddress)
		}
		if !inRAM(l.TimerFreqAddr, 4) {
			return fmt.Errorf("armboot: timer_freq_addr 0x%x outside RAM: %w", l.TimerFreqAddr, ErrOutOfRange)
		}
	}

	// A64 instructions are 4 bytes.
	if l.EntryPoint%4 != 0 {
		return fmt.Errorf("armboot: entry_point 0x%x not instruction aligned: %w",
			l.EntryPoint, ErrUnalignedAddress)
	}
	if !inRAM(l.EntryPoint, 4) {
		return fmt.Errorf("armboot: entry_point 0x%x outside RAM: %w", l.EntryPoint, ErrOutOfRange)
	}

	return nil
}
