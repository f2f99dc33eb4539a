package armboot

import (
	"fmt"
	"sync"
	"time"
)

// SequenceConfig selects the boot variant.
type SequenceConfig struct {
	// TimerProbe enables the timer-extended variant: calibrate and
	// persist the counter frequency before handoff, parking on a zero
	// reading.
	TimerProbe bool
	// LowerEL additionally prepares the EL2 to EL1 drop at handoff.
	LowerEL bool
}

// Outcome is the terminal result of running the boot sequence on one
// core: either control reached the managed entry point, or the core
// parked. There is no third exit.
type Outcome struct {
	HandedOff bool
	Reason    ParkReason // set when HandedOff is false
	EntryPC   uint64     // set when HandedOff is true
}

// Sequence drives a single core from reset to parked or handed off,
// in the fixed order the hardware contract requires: identity check,
// zeroing, stack, timer probe, handoff.
type Sequence struct {
	Layout ImageLayout
	Config SequenceConfig
}

// Boot runs the full early-boot flow against p. A non-nil error means
// the model itself was misused (closed machine, out-of-range layout);
// failures of the modeled boot never return as errors, they collapse
// into a parked Outcome.
func (s *Sequence) Boot(p Platform) (Outcome, error) {
	start := time.Now()
	defer func() {
		recordBoot(time.Since(start))
	}()

	boot, err := s.isBootCore(p)
	if err != nil {
		return Outcome{}, err
	}
	if !boot {
		return s.park(p, ParkNonBootCore)
	}

	// Globals must read as zero before anything downstream can assume
	// static-initialization guarantees.
	if _, err := p.ZeroRange(s.Layout.BSSStart, s.Layout.BSSEndExclusive); err != nil {
		return Outcome{}, err
	}

	// The stack grows down from the end-exclusive bound. Must follow
	// zeroing and precede anything stack-relative.
	if err := p.InstallStack(s.Layout.StackEndExclusive); err != nil {
		return Outcome{}, err
	}

	if s.Config.TimerProbe {
		freq, err := p.ReadTimerFrequency()
		if err != nil {
			return Outcome{}, err
		}
		if freq == 0 {
			// No diagnostic channel exists this early. A dead counter
			// means the core parks instead of handing off.
			return s.park(p, ParkZeroTimerFrequency)
		}
		if err := p.WriteTimerFrequency(uint32(freq)); err != nil {
			return Outcome{}, err
		}
	}

	if s.Config.LowerEL {
		if err := p.LowerToEL1(s.Layout.StackEndExclusive); err != nil {
			return Outcome{}, err
		}
	}

	// One-way branch. Nothing after this executes on the boot path.
	if err := p.TransferControl(s.Layout.EntryPoint); err != nil {
		return Outcome{}, err
	}
	return Outcome{HandedOff: true, EntryPC: s.Layout.EntryPoint}, nil
}

// isBootCore masks the affinity value and compares it against the
// configured boot core identifier. Direct equality, no side effects.
func (s *Sequence) isBootCore(p Platform) (bool, error) {
	id, err := p.ReadCoreID()
	if err != nil {
		return false, err
	}
	want, err := p.LoadBootCoreID()
	if err != nil {
		return false, err
	}
	return id == want, nil
}

func (s *Sequence) park(p Platform, reason ParkReason) (Outcome, error) {
	if err := p.Park(reason); err != nil {
		return Outcome{}, err
	}
	return Outcome{Reason: reason}, nil
}

// BootAll runs the boot sequence on every core concurrently and
// returns the resulting machine report. Concurrency is safe by the
// same argument that makes the hardware flow race-free: non-boot cores
// only read the boot core identifier, and only the boot core stores to
// memory.
func (m *Machine) BootAll() (*BootReport, error) {
	if m == nil {
		return nil, fmt.Errorf("armboot: machine is nil")
	}
	if m.closedNow() {
		return nil, ErrMachineClosed
	}

	seq := &Sequence{
		Layout: m.cfg.Layout,
		Config: SequenceConfig{TimerProbe: m.cfg.TimerProbe, LowerEL: m.cfg.LowerEL},
	}

	outcomes := make([]Outcome, len(m.cores))
	errs := make([]error, len(m.cores))

	var wg sync.WaitGroup
	for i, c := range m.cores {
		wg.Add(1)
		go func(i int, c *Core) {
			defer wg.Done()
			outcomes[i], errs[i] = seq.Boot(c)
		}(i, c)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("armboot: core %d boot failed: %w", i, err)
		}
	}
	return m.report(outcomes)
}
