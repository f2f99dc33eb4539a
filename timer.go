package armboot

import (
	"fmt"
	"math"
	"math/bits"
	"time"
)

const nanosPerSec = 1_000_000_000

// CounterValue is a raw reading of the free-running counter.
type CounterValue uint64

// Add wraps on overflow, matching the hardware counter.
func (v CounterValue) Add(delta CounterValue) CounterValue {
	return v + delta
}

// TimeSource converts counter readings to wall durations using the
// frequency the boot sequence persisted. It stands in for the
// timekeeping subsystem that consumes the frequency slot after
// handoff; the slot is never read before handoff completes and there
// is no lazy initialization.
type TimeSource struct {
	freq uint32
}

// NewTimeSource builds a TimeSource from a calibrated frequency. Zero
// is rejected: by the time a TimeSource exists the boot path has
// already parked on a dead counter.
func NewTimeSource(freq uint32) (*TimeSource, error) {
	if freq == 0 {
		return nil, ErrZeroFrequency
	}
	return &TimeSource{freq: freq}, nil
}

// TimeSource reads the frequency slot and wraps it. Call only after a
// successful handoff; before that the slot holds whatever the image
// loader left there.
func (m *Machine) TimeSource() (*TimeSource, error) {
	freq, err := m.readUint32(m.cfg.Layout.TimerFreqAddr)
	if err != nil {
		return nil, err
	}
	return NewTimeSource(freq)
}

// Frequency returns the calibrated counter frequency in Hz.
func (ts *TimeSource) Frequency() uint32 { return ts.freq }

// Resolution is the duration of a single counter tick.
func (ts *TimeSource) Resolution() time.Duration {
	return ts.Duration(1)
}

// Duration converts a counter reading to a duration. A zero reading is
// zero; readings whose duration exceeds what time.Duration can hold
// saturate at the maximum.
func (ts *TimeSource) Duration(v CounterValue) time.Duration {
	if v == 0 {
		return 0
	}

	freq := uint64(ts.freq)
	secs := uint64(v) / freq
	// The remainder is below freq, which fits in 32 bits, so the
	// multiplication by nanosPerSec stays inside 64 bits.
	sub := uint64(v) % freq
	nanos := sub * nanosPerSec / freq

	if secs >= math.MaxInt64/nanosPerSec {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(secs*nanosPerSec + nanos)
}

// Counter converts a duration to counter ticks. Durations below the
// counter's resolution collapse to zero; durations whose tick count
// would not fit the 64-bit counter are an error.
func (ts *TimeSource) Counter(d time.Duration) (CounterValue, error) {
	if d < ts.Resolution() {
		return 0, nil
	}

	hi, lo := bits.Mul64(uint64(d.Nanoseconds()), uint64(ts.freq))
	if hi >= nanosPerSec {
		return 0, fmt.Errorf("armboot: duration %v exceeds counter range", d)
	}
	ticks, _ := bits.Div64(hi, lo, nanosPerSec)
	return CounterValue(ticks), nil
}

// Uptime converts the core's current counter reading. On hardware this
// includes time consumed by firmware before the boot sequence ran.
func (ts *TimeSource) Uptime(c *Core) (time.Duration, error) {
	v, err := c.GetReg(RegCNTPCT)
	if err != nil {
		return 0, err
	}
	return ts.Duration(CounterValue(v)), nil
}
