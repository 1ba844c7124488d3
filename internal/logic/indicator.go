package logic

import "github.com/sweeney/greenhouse-sensor/internal/clock"

// Indicator is the blink state machine of one alert output (LED or buzzer).
// It holds only its own timer; indicators never share state.
type Indicator struct {
	// OnFor is the minimum time spent on before switching off.
	OnFor clock.Duration
	// OffFor is the minimum time spent off before switching on.
	OffFor clock.Duration

	on         bool
	toggled    bool
	lastToggle clock.Ticks
}

// NewIndicator returns an indicator that blinks symmetrically every interval.
func NewIndicator(interval clock.Duration) *Indicator {
	return &Indicator{OnFor: interval, OffFor: interval}
}

// NewPulseIndicator returns an indicator that stays on for pulse and off for interval.
func NewPulseIndicator(interval, pulse clock.Duration) *Indicator {
	if pulse == 0 {
		pulse = interval
	}
	return &Indicator{OnFor: pulse, OffFor: interval}
}

// Update advances the state machine and returns the desired output and
// whether it differs from the previous call.
//
// While alerting the output toggles once the phase duration has elapsed since
// the last toggle. When not alerting the output is forced off at once; this
// is a reset, so the toggle timer is left alone. The very first toggle
// happens as soon as alerting starts, and so does the first toggle of an
// alert raised once a full phase has passed since the last one.
func (ind *Indicator) Update(now clock.Ticks, alerting bool) (on, changed bool) {
	if !alerting {
		// Expire the timer while it can still be compared, so a long quiet
		// spell never wraps it into the future.
		if ind.toggled && clock.Elapsed(now, ind.lastToggle, max(ind.OnFor, ind.OffFor)) {
			ind.toggled = false
		}
		if !ind.on {
			return false, false
		}
		ind.on = false
		return false, true
	}

	phase := ind.OffFor
	if ind.on {
		phase = ind.OnFor
	}
	if ind.toggled && !clock.Elapsed(now, ind.lastToggle, phase) {
		return ind.on, false
	}

	ind.on = !ind.on
	ind.toggled = true
	ind.lastToggle = now
	return ind.on, true
}

// On returns the current output state.
func (ind *Indicator) On() bool {
	return ind.on
}
