package armboot

// CoreReport is the JSON-friendly final state of one core after a
// machine-wide boot.
type CoreReport struct {
	ID          int    `json:"id"`
	Affinity    uint64 `json:"affinity"`
	CoreID      uint64 `json:"core_id"` // affinity masked to the core index
	State       string `json:"state"`
	ParkReason  string `json:"park_reason,omitempty"`
	SP          uint64 `json:"sp"`
	PC          uint64 `json:"pc"`
	EL          uint64 `json:"el"`
	MemWrites   uint64 `json:"mem_writes"`
	BytesZeroed uint64 `json:"bytes_zeroed"`
}

// BootReport summarizes a machine-wide boot: which core (if any)
// handed off, what the timer probe stored, and every core's terminal
// state.
type BootReport struct {
	BootCoreID      uint64       `json:"boot_core_id"`
	TimerProbe      bool         `json:"timer_probe"`
	HandedOff       bool         `json:"handed_off"`
	EntryPC         uint64       `json:"entry_pc,omitempty"`
	StoredFrequency uint32       `json:"stored_frequency,omitempty"`
	Cores           []CoreReport `json:"cores"`
}

func (m *Machine) report(outcomes []Outcome) (*BootReport, error) {
	rep := &BootReport{
		BootCoreID: m.cfg.BootCoreID,
		TimerProbe: m.cfg.TimerProbe,
	}

	for i, c := range m.cores {
		regs, err := c.GetRegs([]Reg{RegMPIDR, RegSP, RegPC, RegCurrentEL})
		if err != nil {
			return nil, err
		}

		cr := CoreReport{
			ID:          c.ID(),
			Affinity:    regs[RegMPIDR],
			CoreID:      regs[RegMPIDR] & CoreIDMask,
			State:       c.State().String(),
			SP:          regs[RegSP],
			PC:          regs[RegPC],
			EL:          regs[RegCurrentEL] >> 2,
			MemWrites:   c.MemWrites(),
			BytesZeroed: c.BytesZeroed(),
		}
		if reason := c.ParkReason(); reason != ParkNone {
			cr.ParkReason = reason.String()
		}
		rep.Cores = append(rep.Cores, cr)

		if outcomes[i].HandedOff {
			rep.HandedOff = true
			rep.EntryPC = outcomes[i].EntryPC
		}
	}

	if rep.TimerProbe && rep.HandedOff {
		freq, err := m.readUint32(m.cfg.Layout.TimerFreqAddr)
		if err != nil {
			return nil, err
		}
		rep.StoredFrequency = freq
	}
	return rep, nil
}
