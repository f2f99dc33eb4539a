package armboot

import (
	"errors"
	"testing"
)

func TestDefaultBoardConfigValid(t *testing.T) {
	cfg := DefaultBoardConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultBoardConfig() does not validate: %v", err)
	}
	if cfg.Cores != 4 {
		t.Errorf("Cores = %d, want 4", cfg.Cores)
	}
	if cfg.CounterFrequency != 62_500_000 {
		t.Errorf("CounterFrequency = %d, want 62500000", cfg.CounterFrequency)
	}
}

func TestLayoutValidate(t *testing.T) {
	base := DefaultBoardConfig()

	tests := []struct {
		name    string
		mutate  func(*BoardConfig)
		wantErr error // nil means any error is acceptable
		ok      bool
	}{
		{
			name:   "valid default",
			mutate: func(c *BoardConfig) {},
			ok:     true,
		},
		{
			name:   "empty bss region",
			mutate: func(c *BoardConfig) { c.Layout.BSSEndExclusive = c.Layout.BSSStart },
			ok:     true,
		},
		{
			name:    "bss end below start",
			mutate:  func(c *BoardConfig) { c.Layout.BSSEndExclusive = c.Layout.BSSStart - ZeroStride },
			wantErr: nil,
		},
		{
			name:    "bss start misaligned",
			mutate:  func(c *BoardConfig) { c.Layout.BSSStart += 8 },
			wantErr: ErrUnalignedAddress,
		},
		{
			name:    "bss end misaligned",
			mutate:  func(c *BoardConfig) { c.Layout.BSSEndExclusive += 4 },
			wantErr: ErrUnalignedAddress,
		},
		{
			name:    "bss outside RAM",
			mutate:  func(c *BoardConfig) { c.Layout.BSSEndExclusive = c.RAMBase + c.RAMSize + ZeroStride },
			wantErr: ErrOutOfRange,
		},
		{
			name:    "stack end misaligned",
			mutate:  func(c *BoardConfig) { c.Layout.StackEndExclusive += 8 },
			wantErr: ErrUnalignedAddress,
		},
		{
			name:    "stack end at RAM base",
			mutate:  func(c *BoardConfig) { c.Layout.StackEndExclusive = c.RAMBase },
			wantErr: ErrOutOfRange,
		},
		{
			name:   "stack end at RAM end is allowed",
			mutate: func(c *BoardConfig) { c.Layout.StackEndExclusive = c.RAMBase + c.RAMSize },
			ok:     true,
		},
		{
			name:    "boot core id misaligned",
			mutate:  func(c *BoardConfig) { c.Layout.BootCoreIDAddr += 4 },
			wantErr: ErrUnalignedAddress,
		},
		{
			name:    "timer slot misaligned",
			mutate:  func(c *BoardConfig) { c.Layout.TimerFreqAddr += 2 },
			wantErr: ErrUnalignedAddress,
		},
		{
			name: "timer slot ignored without probe",
			mutate: func(c *BoardConfig) {
				c.TimerProbe = false
				c.Layout.TimerFreqAddr += 2
			},
			ok: true,
		},
		{
			name:    "entry point misaligned",
			mutate:  func(c *BoardConfig) { c.Layout.EntryPoint += 2 },
			wantErr: ErrUnalignedAddress,
		},
		{
			name:    "entry point outside RAM",
			mutate:  func(c *BoardConfig) { c.Layout.EntryPoint = c.RAMBase + c.RAMSize + 4 },
			wantErr: ErrOutOfRange,
		},
		{
			name:    "no cores",
			mutate:  func(c *BoardConfig) { c.Cores = -1 },
			wantErr: nil,
		},
		{
			name:    "zero RAM",
			mutate:  func(c *BoardConfig) { c.RAMSize = 0 },
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()

			if tt.ok {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

const sampleBoardYAML = `
cores: 4
ram_base: 0x0
ram_size: 0x800000
boot_core_id: 0
counter_frequency: 62500000
timer_probe: true
layout:
  bss_start: 0x90000
  bss_end_exclusive: 0x91000
  stack_end_exclusive: 0x80000
  boot_core_id_addr: 0x70000
  timer_freq_addr: 0x70008
  entry_point: 0x80000
`

func TestParseBoardConfig(t *testing.T) {
	cfg, err := ParseBoardConfig([]byte(sampleBoardYAML))
	if err != nil {
		t.Fatalf("ParseBoardConfig() failed: %v", err)
	}

	if cfg.Cores != 4 {
		t.Errorf("Cores = %d, want 4", cfg.Cores)
	}
	if cfg.RAMSize != 0x800000 {
		t.Errorf("RAMSize = 0x%x, want 0x800000", cfg.RAMSize)
	}
	if cfg.CounterFrequency != 62_500_000 {
		t.Errorf("CounterFrequency = %d, want 62500000", cfg.CounterFrequency)
	}
	if !cfg.TimerProbe {
		t.Error("TimerProbe = false, want true")
	}
	if cfg.Layout.BSSStart != 0x90000 || cfg.Layout.BSSEndExclusive != 0x91000 {
		t.Errorf("BSS bounds = [0x%x, 0x%x), want [0x90000, 0x91000)",
			cfg.Layout.BSSStart, cfg.Layout.BSSEndExclusive)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("parsed config does not validate: %v", err)
	}
}

func TestParseBoardConfigDefaults(t *testing.T) {
	cfg, err := ParseBoardConfig([]byte("ram_size: 0x800000\n"))
	if err != nil {
		t.Fatalf("ParseBoardConfig() failed: %v", err)
	}
	if cfg.Cores != 1 {
		t.Errorf("Cores defaulted to %d, want 1", cfg.Cores)
	}
}

func TestParseBoardConfigInvalidYAML(t *testing.T) {
	if _, err := ParseBoardConfig([]byte("cores: [not an int\n")); err == nil {
		t.Error("ParseBoardConfig() with invalid YAML should fail")
	}
}
