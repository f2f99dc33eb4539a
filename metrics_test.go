package armboot

import (
	"errors"
	"testing"
)

func TestMetricsBootCycle(t *testing.T) {
	ResetMetrics()

	cfg := DefaultBoardConfig()
	m, err := NewMachine(cfg)
	if err != nil {
		t.Fatalf("NewMachine() failed: %v", err)
	}

	if _, err := m.BootAll(); err != nil {
		m.Close()
		t.Fatalf("BootAll() failed: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	m.Close() // second close must not double-count

	got := GetMetrics()
	if got.MachinesCreated != 1 {
		t.Errorf("MachinesCreated = %d, want 1", got.MachinesCreated)
	}
	if got.MachinesClosed != 1 {
		t.Errorf("MachinesClosed = %d, want 1", got.MachinesClosed)
	}
	if got.CoresCreated != uint64(cfg.Cores) {
		t.Errorf("CoresCreated = %d, want %d", got.CoresCreated, cfg.Cores)
	}
	if got.BootsRun != uint64(cfg.Cores) {
		t.Errorf("BootsRun = %d, want %d", got.BootsRun, cfg.Cores)
	}
	if got.Handoffs != 1 {
		t.Errorf("Handoffs = %d, want 1", got.Handoffs)
	}
	if got.ParkedNonBoot != uint64(cfg.Cores-1) {
		t.Errorf("ParkedNonBoot = %d, want %d", got.ParkedNonBoot, cfg.Cores-1)
	}
	if got.ParkedFatal != 0 {
		t.Errorf("ParkedFatal = %d, want 0", got.ParkedFatal)
	}
	wantZeroed := cfg.Layout.BSSEndExclusive - cfg.Layout.BSSStart
	if got.BytesZeroed != wantZeroed {
		t.Errorf("BytesZeroed = %d, want %d", got.BytesZeroed, wantZeroed)
	}
}

func TestMetricsFatalPark(t *testing.T) {
	ResetMetrics()

	cfg := DefaultBoardConfig()
	cfg.CounterFrequency = 0
	m := newTestMachine(t, cfg)

	if _, err := m.BootAll(); err != nil {
		t.Fatalf("BootAll() failed: %v", err)
	}

	got := GetMetrics()
	if got.Handoffs != 0 {
		t.Errorf("Handoffs = %d, want 0", got.Handoffs)
	}
	if got.ParkedFatal != 1 {
		t.Errorf("ParkedFatal = %d, want 1", got.ParkedFatal)
	}
	if got.ParkedNonBoot != uint64(cfg.Cores-1) {
		t.Errorf("ParkedNonBoot = %d, want %d", got.ParkedNonBoot, cfg.Cores-1)
	}
}

func TestMetricsValidationErrors(t *testing.T) {
	ResetMetrics()

	cfg := DefaultBoardConfig()
	cfg.Layout.EntryPoint = cfg.RAMSize + 0x1000
	if _, err := NewMachine(cfg); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("NewMachine() = %v, want ErrOutOfRange", err)
	}

	if got := GetMetrics().ValidationErrors; got != 1 {
		t.Errorf("ValidationErrors = %d, want 1", got)
	}
}

func TestMetricsReset(t *testing.T) {
	recordHandoff()
	recordBytesZeroed(64)
	ResetMetrics()

	got := GetMetrics()
	if got != (Metrics{}) {
		t.Errorf("metrics after reset = %+v, want zero value", got)
	}
}
