package scheduler

import "github.com/sweeney/greenhouse-sensor/internal/clock"

// Gate rate-limits one periodic activity.
// A gate is due on its first evaluation and then whenever Interval has
// elapsed since it last fired.
type Gate struct {
	Interval clock.Duration

	last  clock.Ticks
	fired bool
}

// Due reports whether the gate would fire at now.
func (g *Gate) Due(now clock.Ticks) bool {
	return !g.fired || clock.Elapsed(now, g.last, g.Interval)
}

// Fire records now as the last firing time.
func (g *Gate) Fire(now clock.Ticks) {
	g.last = now
	g.fired = true
}

// Try fires the gate if it is due and reports whether it did.
func (g *Gate) Try(now clock.Ticks) bool {
	if !g.Due(now) {
		return false
	}
	g.Fire(now)
	return true
}

// Last returns when the gate last fired.
func (g *Gate) Last() clock.Ticks {
	return g.last
}
