package armboot

import (
	"bytes"
	"encoding/json"
	"testing"
)

// End-to-end flow a test harness would drive: parse a board file, boot
// the machine, and consume the JSON report.
func TestHarnessYAMLToReport(t *testing.T) {
	const board = `
cores: 4
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
	cfg, err := ParseBoardConfig([]byte(board))
	if err != nil {
		t.Fatalf("ParseBoardConfig() failed: %v", err)
	}

	m, err := NewMachine(cfg)
	if err != nil {
		t.Fatalf("NewMachine() failed: %v", err)
	}
	defer m.Close()

	// Leave garbage where the image loader would: in the region the
	// boot path must zero before any managed code runs.
	if _, err := m.WriteAt(bytes.Repeat([]byte{0xDE}, 0x1000), 0x90000); err != nil {
		t.Fatalf("WriteAt() failed: %v", err)
	}

	report, err := m.BootAll()
	if err != nil {
		t.Fatalf("BootAll() failed: %v", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal report: %v", err)
	}

	var decoded BootReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal report: %v", err)
	}

	if !decoded.HandedOff {
		t.Fatal("report says no handoff")
	}
	if decoded.EntryPC != 0x80000 {
		t.Errorf("EntryPC = 0x%x, want 0x80000", decoded.EntryPC)
	}
	if decoded.StoredFrequency != 62_500_000 {
		t.Errorf("StoredFrequency = %d, want 62500000", decoded.StoredFrequency)
	}
	if len(decoded.Cores) != 4 {
		t.Fatalf("report has %d cores, want 4", len(decoded.Cores))
	}

	parked := 0
	for _, cr := range decoded.Cores {
		switch cr.State {
		case "HANDED_OFF":
			if cr.ID != 0 {
				t.Errorf("core %d handed off, want core 0", cr.ID)
			}
			if cr.BytesZeroed != 0x1000 {
				t.Errorf("boot core zeroed 0x%x bytes, want 0x1000", cr.BytesZeroed)
			}
		case "PARKED":
			parked++
		default:
			t.Errorf("core %d in unexpected state %s", cr.ID, cr.State)
		}
	}
	if parked != 3 {
		t.Errorf("%d cores parked, want 3", parked)
	}

	// The consumer of the report also gets a working time source.
	ts, err := m.TimeSource()
	if err != nil {
		t.Fatalf("TimeSource() failed: %v", err)
	}
	if ts.Frequency() != 62_500_000 {
		t.Errorf("Frequency() = %d, want 62500000", ts.Frequency())
	}
}
