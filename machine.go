package armboot

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// CoreState tracks where a core sits in the boot flow.
type CoreState int

const (
	// CoreReset is the state at power-on, before the sequence runs.
	CoreReset CoreState = iota
	// CoreParked is terminal: the core sits in its wait-for-event loop
	// and never executes application code.
	CoreParked
	// CoreHandedOff is terminal: control crossed into the managed
	// entry point and never comes back.
	CoreHandedOff
)

func (s CoreState) String() string {
	switch s {
	case CoreReset:
		return "RESET"
	case CoreParked:
		return "PARKED"
	case CoreHandedOff:
		return "HANDED_OFF"
	default:
		return fmt.Sprintf("CoreState(%d)", int(s))
	}
}

// ParkReason records why a core parked. The distinction exists only in
// model bookkeeping: on the modeled hardware both parked states are
// identical and a parked core writes no memory that could tell them
// apart.
type ParkReason int

const (
	ParkNone ParkReason = iota
	// ParkNonBootCore is the expected fate of every core whose masked
	// affinity value does not match the configured boot core.
	ParkNonBootCore
	// ParkZeroTimerFrequency is the fatal escalation path: the counter
	// frequency register read as zero, so the boot core parks instead
	// of handing off.
	ParkZeroTimerFrequency
)

func (r ParkReason) String() string {
	switch r {
	case ParkNone:
		return ""
	case ParkNonBootCore:
		return "non-boot core"
	case ParkZeroTimerFrequency:
		return "zero timer frequency"
	default:
		return fmt.Sprintf("ParkReason(%d)", int(r))
	}
}

// Machine is a simulated multi-core ARM64 board: a flat guest-physical
// RAM region plus one register file per core. It exists so the boot
// sequence can be exercised and inspected on a host, with the fixed
// addresses the real boot path resolves at link time made explicit in
// the board configuration.
type Machine struct {
	cfg   BoardConfig
	ram   []byte
	cores []*Core

	closed  bool
	closeMu sync.Mutex // Protect against concurrent Close() and finalizer
}

// Core models a single physical core. It implements Platform, so the
// boot sequence runs against it directly.
type Core struct {
	id int
	m  *Machine

	mu          sync.Mutex
	regs        [regCount]uint64
	state       CoreState
	parkReason  ParkReason
	memWrites   uint64
	bytesZeroed uint64
}

// NewMachine allocates guest RAM, builds the per-core register files in
// their reset state, and plants the boot core identifier at its
// configured address, the way board configuration occupies a fixed
// location the real boot code loads from.
func NewMachine(cfg BoardConfig) (*Machine, error) {
	start := time.Now()
	defer func() {
		recordMachineCreate(time.Since(start))
	}()

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		recordValidationError()
		return nil, err
	}
	if !isPageAligned(cfg.RAMSize) {
		recordValidationError()
		return nil, fmt.Errorf("armboot: ram_size not page multiple: %d (page size: %d): %w",
			cfg.RAMSize, pageSize(), ErrUnalignedAddress)
	}

	// Anonymous mapping keeps the guest RAM base page-aligned.
	ram, err := unix.Mmap(-1, 0, int(cfg.RAMSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		recordResourceError()
		return nil, fmt.Errorf("armboot: failed to allocate %d bytes of guest RAM: %w", cfg.RAMSize, err)
	}

	m := &Machine{cfg: cfg, ram: ram}
	for i := 0; i < cfg.Cores; i++ {
		c := &Core{id: i, m: m}
		c.resetLocked()
		m.cores = append(m.cores, c)
		recordCoreCreate()
	}

	if err := m.writeUint64(cfg.Layout.BootCoreIDAddr, cfg.BootCoreID); err != nil {
		unix.Munmap(ram)
		return nil, fmt.Errorf("armboot: failed to plant boot core identifier: %w", err)
	}

	// Set finalizer as safety net in case Close() is not called
	runtime.SetFinalizer(m, (*Machine).finalize)

	return m, nil
}

// resetLocked restores the core's power-on register state. Callers
// must hold c.mu or have exclusive access during construction.
func (c *Core) resetLocked() {
	c.regs = [regCount]uint64{}
	aff := uint64(c.id)
	if c.id < len(c.m.cfg.Affinity) {
		aff = c.m.cfg.Affinity[c.id]
	}
	c.regs[RegMPIDR] = aff
	c.regs[RegCNTFRQ] = uint64(c.m.cfg.CounterFrequency)
	c.regs[RegCurrentEL] = 2 << 2 // firmware drops us into EL2
	c.state = CoreReset
	c.parkReason = ParkNone
	c.memWrites = 0
	c.bytesZeroed = 0
}

// Reset returns every core to its power-on register state and replants
// the boot core identifier. Guest RAM contents are deliberately left
// alone: DRAM survives a warm reset, and the boot sequence must not
// depend on it being clean.
func (m *Machine) Reset() error {
	if m == nil {
		return fmt.Errorf("armboot: machine is nil")
	}
	if m.closedNow() {
		return ErrMachineClosed
	}

	for _, c := range m.cores {
		c.mu.Lock()
		c.resetLocked()
		c.mu.Unlock()
	}
	return m.writeUint64(m.cfg.Layout.BootCoreIDAddr, m.cfg.BootCoreID)
}

// Close releases the guest RAM. Idempotent.
func (m *Machine) Close() error {
	if m == nil {
		return nil
	}

	m.closeMu.Lock()
	defer m.closeMu.Unlock()

	if m.closed {
		return nil // Already closed
	}

	if err := unix.Munmap(m.ram); err != nil {
		return fmt.Errorf("armboot: failed to release guest RAM: %w", err)
	}
	m.ram = nil
	m.closed = true

	// Clear finalizer since we've cleaned up properly
	runtime.SetFinalizer(m, nil)

	recordMachineClose()
	return nil
}

// finalize is called by the garbage collector as a safety net
func (m *Machine) finalize() {
	if m == nil {
		return
	}
	// Use non-blocking lock to prevent deadlock in finalizers
	if m.closeMu.TryLock() {
		defer m.closeMu.Unlock()
		if !m.closed {
			m.closed = true
			if m.ram != nil {
				unix.Munmap(m.ram)
				m.ram = nil
			}
			recordMachineClose()
		}
	}
}

func (m *Machine) closedNow() bool {
	if m == nil {
		return true
	}
	m.closeMu.Lock()
	defer m.closeMu.Unlock()
	return m.closed
}

// Config returns the board configuration the machine was built from.
func (m *Machine) Config() BoardConfig { return m.cfg }

// NumCores returns the number of modeled cores.
func (m *Machine) NumCores() int { return len(m.cores) }

// Core returns the core with the given index.
func (m *Machine) Core(i int) (*Core, error) {
	if m == nil {
		return nil, fmt.Errorf("armboot: machine is nil")
	}
	if i < 0 || i >= len(m.cores) {
		return nil, fmt.Errorf("armboot: core index %d out of range [0,%d): %w", i, len(m.cores), ErrInvalidCore)
	}
	return m.cores[i], nil
}

// AdvanceCounter moves every core's free-running counter forward by
// the given number of ticks, wrapping on overflow like the hardware
// counter does.
func (m *Machine) AdvanceCounter(ticks uint64) error {
	if m == nil {
		return fmt.Errorf("armboot: machine is nil")
	}
	if m.closedNow() {
		return ErrMachineClosed
	}
	for _, c := range m.cores {
		c.mu.Lock()
		c.regs[RegCNTPCT] += ticks
		c.mu.Unlock()
	}
	return nil
}

// ID returns the core index.
func (c *Core) ID() int { return c.id }

// State reports whether the core is still at reset, parked, or handed
// off to the managed entry point.
func (c *Core) State() CoreState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ParkReason reports why the core parked; ParkNone unless parked.
func (c *Core) ParkReason() ParkReason {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.parkReason
}

// MemWrites returns the number of guest-memory stores this core has
// performed. For every non-boot core this stays zero through the whole
// boot flow.
func (c *Core) MemWrites() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.memWrites
}

// BytesZeroed returns how many bytes of the zero-initialized region
// this core cleared.
func (c *Core) BytesZeroed() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytesZeroed
}
