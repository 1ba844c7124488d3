// Package clock provides a fixed-width millisecond tick counter and
// rollover-safe comparisons on it.
//
// Ticks wrap at 2^32 ms (about 49.7 days). Differences are taken modulo 2^32
// and read as signed, so two readings less than 2^31 ms apart always compare
// correctly, across a rollover or not.
package clock

import "time"

// Ticks is a reading of a free-running millisecond counter.
type Ticks uint32

// Duration is a span of milliseconds on the tick counter.
type Duration uint32

// Source returns the current tick count.
type Source interface {
	Now() Ticks
}

// Diff returns a-b as a signed number of milliseconds.
// A negative result means a is earlier than b.
func Diff(a, b Ticks) int32 {
	return int32(a - b)
}

// Elapsed reports whether at least d has passed from since to now.
// A now that is earlier than since (jitter) never counts as elapsed.
func Elapsed(now, since Ticks, d Duration) bool {
	return int64(Diff(now, since)) >= int64(d)
}

// Add returns t advanced by d, wrapping on overflow.
func (t Ticks) Add(d Duration) Ticks {
	return t + Ticks(d)
}

// FromDuration converts a time.Duration to whole milliseconds.
// Negative values clamp to zero and values above the counter range saturate.
func FromDuration(d time.Duration) Duration {
	ms := d.Milliseconds()
	if ms <= 0 {
		return 0
	}
	if ms > int64(^uint32(0)>>1) {
		return Duration(^uint32(0) >> 1)
	}
	return Duration(ms)
}

// Std converts d back to a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d) * time.Millisecond
}

// Monotonic is a Source backed by the runtime monotonic clock.
type Monotonic struct {
	start time.Time
	base  Ticks
}

// NewMonotonic returns a Source that reads 0 now.
func NewMonotonic() *Monotonic {
	return &Monotonic{start: time.Now()}
}

// NewMonotonicAt returns a Source that reads base now. Starting close to the
// top of the range exercises rollover on real hardware within minutes.
func NewMonotonicAt(base Ticks) *Monotonic {
	return &Monotonic{start: time.Now(), base: base}
}

// Now returns milliseconds since construction, plus the base, truncated to 32 bits.
func (m *Monotonic) Now() Ticks {
	return m.base + Ticks(uint64(time.Since(m.start).Milliseconds()))
}
