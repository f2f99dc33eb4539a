// Package armboot models the architecture-specific early-boot sequence
// of an ARM64 kernel: electing a single boot core, parking the rest,
// zeroing the static-data region, installing the boot stack, optionally
// calibrating the generic timer, and the one-way handoff into the
// higher-level entry point.
//
// The real sequence is the first code after reset, with no stack, heap,
// runtime, or fault handling; this package reproduces its semantics on
// a host so the sequencing and its hardware contracts can be tested.
// Fixed linker addresses become an explicit ImageLayout, hardware
// registers become a per-core register file, and the non-returning
// branch becomes a terminal core state.
//
// # Basic Usage
//
// Build a machine from a board description and boot every core:
//
//	cfg := armboot.DefaultBoardConfig()
//	m, err := armboot.NewMachine(cfg)
//	if err != nil {
//		log.Fatal("Failed to create machine:", err)
//	}
//	defer m.Close()
//
//	report, err := m.BootAll()
//	if err != nil {
//		log.Fatal("Boot model misuse:", err)
//	}
//
//	if report.HandedOff {
//		fmt.Printf("handed off at 0x%x, counter at %d Hz\n",
//			report.EntryPC, report.StoredFrequency)
//	}
//
// Board descriptions load from YAML:
//
//	cfg, err := armboot.LoadBoardConfig("rpi3.yaml")
//
// # Boot outcomes vs errors
//
// The modeled boot has no error channel: a core either reaches the
// managed entry point or parks forever. That binary result is the
// Outcome type. Go errors are reserved for misuse of the model itself,
// such as an out-of-range layout or a closed machine, and wrap
// BootError codes.
//
// Two conditions park a core: it is not the configured boot core
// (expected, every system has exactly one boot core), or the timer
// probe read a zero counter frequency (fatal misconfiguration). The
// two parked states are indistinguishable on the modeled hardware;
// the model records the reason in its own bookkeeping only.
//
// # Sequencing contracts
//
// The order is fixed: identity check, static-storage zeroing, stack
// installation, timer probe (extended variant), handoff. Zeroing runs
// in 16-byte strides and terminates on exact equality, so the region
// bounds must be stride-aligned; ImageLayout.Validate enforces what
// the linker script guarantees on hardware. The handoff is branch-only
// and nothing after it executes on the boot path.
//
// # Custom platforms
//
// The sequence runs against the Platform interface. Core implements it
// on the machine model; tests can substitute their own implementation
// to validate sequencing without the memory model:
//
//	seq := &armboot.Sequence{Layout: layout, Config: armboot.SequenceConfig{TimerProbe: true}}
//	outcome, err := seq.Boot(myPlatform)
//
// # Timekeeping
//
// After a successful extended-variant boot the frequency slot holds
// the calibrated counter frequency. TimeSource consumes it the way the
// post-handoff timekeeping subsystem would:
//
//	ts, err := m.TimeSource()
//	fmt.Println("tick:", ts.Resolution())
//
// # Resource Management
//
// A machine's guest RAM is an anonymous mapping; call Close when done.
// A finalizer provides safety-net cleanup. Boot is a pure function of
// the board configuration: Reset followed by BootAll reproduces the
// identical result.
package armboot
