package armboot

import "fmt"

// Platform is the capability surface the boot sequence runs against:
// the handful of register reads, stores, and control transfers the
// real boot code performs. Core implements it on the machine model; a
// test double can implement it to validate sequencing independent of
// the memory model.
type Platform interface {
	// ReadCoreID returns the affinity register value masked down to
	// the core index. Unconditional hardware read, no failure path on
	// real silicon.
	ReadCoreID() (uint64, error)

	// LoadBootCoreID loads the configured boot core identifier from
	// its fixed location.
	LoadBootCoreID() (uint64, error)

	// ZeroRange clears [start, end) in ZeroStride chunks and reports
	// how many bytes were cleared. The empty range clears nothing.
	ZeroRange(start, end uint64) (uint64, error)

	// InstallStack loads the stack pointer register.
	InstallStack(sp uint64) error

	// ReadTimerFrequency reads the free-running counter's frequency
	// register.
	ReadTimerFrequency() (uint64, error)

	// WriteTimerFrequency persists the calibrated frequency to the
	// timekeeping subsystem's slot. Written exactly once per boot.
	WriteTimerFrequency(v uint32) error

	// LowerToEL1 prepares the EL2 to EL1 drop, reusing the boot stack
	// as the EL1 stack.
	LowerToEL1(sp uint64) error

	// TransferControl branches to the managed entry point. One-way:
	// the core never executes boot code again.
	TransferControl(entry uint64) error

	// Park places the core in its terminal wait-for-event loop.
	Park(reason ParkReason) error
}

var _ Platform = (*Core)(nil)

// ReadCoreID implements Platform against the modeled affinity register.
func (c *Core) ReadCoreID() (uint64, error) {
	v, err := c.GetReg(RegMPIDR)
	if err != nil {
		return 0, err
	}
	return v & CoreIDMask, nil
}

// LoadBootCoreID implements Platform. This load is the only memory a
// non-boot core ever touches, and it is read-only.
func (c *Core) LoadBootCoreID() (uint64, error) {
	return c.loadUint64(c.m.cfg.Layout.BootCoreIDAddr)
}

// ZeroRange implements Platform: ZeroStride bytes of zeros per
// iteration, advancing until start equals end. A range that is not a
// stride multiple would never terminate in the hardware loop; the
// model rejects it instead of spinning.
func (c *Core) ZeroRange(start, end uint64) (uint64, error) {
	if c == nil {
		return 0, fmt.Errorf("armboot: core is nil")
	}
	if end < start || (end-start)%ZeroStride != 0 {
		return 0, fmt.Errorf("armboot: zero range [0x%x, 0x%x) not a %d-byte multiple: %w",
			start, end, ZeroStride, ErrUnalignedAddress)
	}

	var n uint64
	for addr := start; addr != end; addr += ZeroStride {
		if err := c.storeZeroPair(addr); err != nil {
			return n, err
		}
		n += ZeroStride
	}

	c.mu.Lock()
	c.bytesZeroed += n
	c.mu.Unlock()
	recordBytesZeroed(n)
	return n, nil
}

// InstallStack implements Platform.
func (c *Core) InstallStack(sp uint64) error {
	return c.SetReg(RegSP, sp)
}

// ReadTimerFrequency implements Platform.
func (c *Core) ReadTimerFrequency() (uint64, error) {
	return c.GetReg(RegCNTFRQ)
}

// WriteTimerFrequency implements Platform.
func (c *Core) WriteTimerFrequency(v uint32) error {
	return c.storeUint32(c.m.cfg.Layout.TimerFreqAddr, v)
}

// LowerToEL1 implements Platform: the banked EL1 stack pointer gets
// the boot stack, and the core's exception level drops to EL1 so the
// managed entry point starts there.
func (c *Core) LowerToEL1(sp uint64) error {
	if err := c.SetReg(RegSPEL1, sp); err != nil {
		return err
	}
	return c.SetReg(RegCurrentEL, 1<<2)
}

// TransferControl implements Platform. The branch pushes no return
// address; the core's state becomes terminal.
func (c *Core) TransferControl(entry uint64) error {
	if err := c.SetReg(RegPC, entry); err != nil {
		return err
	}
	c.mu.Lock()
	c.state = CoreHandedOff
	c.mu.Unlock()
	recordHandoff()
	return nil
}

// Park implements Platform. The modeled core loops on wait-for-event
// forever; here that collapses to a terminal state.
func (c *Core) Park(reason ParkReason) error {
	if c == nil {
		return fmt.Errorf("armboot: core is nil")
	}
	if c.m.closedNow() {
		return ErrMachineClosed
	}
	c.mu.Lock()
	c.state = CoreParked
	c.parkReason = reason
	c.mu.Unlock()
	recordPark(reason)
	return nil
}
