package armboot

import "fmt"

// Reg identifies an ARM64 register in a core's modeled register file.
// The set covers the general-purpose registers plus the system
// registers the early-boot path actually touches.
type Reg int

const (
	RegX0 Reg = iota
	RegX1
	RegX2
	RegX3
	RegX4
	RegX5
	RegX6
	RegX7
	RegX8
	RegX9
	RegX10
	RegX11
	RegX12
	RegX13
	RegX14
	RegX15
	RegX16
	RegX17
	RegX18
	RegX19
	RegX20
	RegX21
	RegX22
	RegX23
	RegX24
	RegX25
	RegX26
	RegX27
	RegX28
	RegFP // X29
	RegLR // X30
	RegSP // Stack pointer of the active exception level
	RegPC

	// System registers consumed or produced during boot.
	RegMPIDR     // MPIDR_EL1, multiprocessor affinity
	RegCNTFRQ    // CNTFRQ_EL0, counter-timer frequency
	RegCNTPCT    // CNTPCT_EL0, counter-timer physical count
	RegCurrentEL // CurrentEL, exception level in bits [3:2]
	RegSPEL1     // SP_EL1, banked EL1 stack pointer

	regCount // must remain last
)

// CoreIDMask isolates the core-index bits of the affinity register
// value. Raspberry Pi class parts carry the core index in the low two
// bits of MPIDR_EL1.
const CoreIDMask uint64 = 0b11

func (r Reg) String() string {
	switch {
	case r >= RegX0 && r <= RegX28:
		return fmt.Sprintf("X%d", int(r))
	case r == RegFP:
		return "FP"
	case r == RegLR:
		return "LR"
	case r == RegSP:
		return "SP"
	case r == RegPC:
		return "PC"
	case r == RegMPIDR:
		return "MPIDR_EL1"
	case r == RegCNTFRQ:
		return "CNTFRQ_EL0"
	case r == RegCNTPCT:
		return "CNTPCT_EL0"
	case r == RegCurrentEL:
		return "CurrentEL"
	case r == RegSPEL1:
		return "SP_EL1"
	default:
		return fmt.Sprintf("Reg(%d)", int(r))
	}
}

// GetReg reads a register from the core's modeled register file.
func (c *Core) GetReg(r Reg) (uint64, error) {
	if c == nil {
		return 0, fmt.Errorf("armboot: core is nil")
	}
	if c.m.closedNow() {
		return 0, ErrMachineClosed
	}
	if r < RegX0 || r >= regCount {
		return 0, fmt.Errorf("armboot: invalid register %d (must be %d-%d)", r, RegX0, regCount-1)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	recordRegisterOp()
	return c.regs[r], nil
}

// SetReg writes a register in the core's modeled register file.
func (c *Core) SetReg(r Reg, v uint64) error {
	if c == nil {
		return fmt.Errorf("armboot: core is nil")
	}
	if c.m.closedNow() {
		return ErrMachineClosed
	}
	if r < RegX0 || r >= regCount {
		return fmt.Errorf("armboot: invalid register %d (must be %d-%d)", r, RegX0, regCount-1)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.regs[r] = v
	recordRegisterOp()
	return nil
}

func (c *Core) GetPC() (uint64, error) { return c.GetReg(RegPC) }
func (c *Core) SetPC(v uint64) error   { return c.SetReg(RegPC, v) }

// RegBatch represents a batch of register operations
type RegBatch map[Reg]uint64

// GetRegs retrieves multiple registers in a single call
func (c *Core) GetRegs(regs []Reg) (RegBatch, error) {
	if c == nil {
		return nil, fmt.Errorf("armboot: core is nil")
	}

	batch := make(RegBatch, len(regs))
	for _, reg := range regs {
		val, err := c.GetReg(reg)
		if err != nil {
			return nil, err
		}
		batch[reg] = val
	}
	return batch, nil
}

// SetRegs sets multiple registers in a single call
func (c *Core) SetRegs(batch RegBatch) error {
	if c == nil {
		return fmt.Errorf("armboot: core is nil")
	}

	for reg, val := range batch {
		if err := c.SetReg(reg, val); err != nil {
			return err
		}
	}
	return nil
}
