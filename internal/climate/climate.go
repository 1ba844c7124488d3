// Package climate reads temperature and humidity with a bounded retry policy
// and keeps the last known good values across sensor faults.
package climate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sweeney/greenhouse-sensor/internal/logger"
	"github.com/sweeney/greenhouse-sensor/internal/logic"
)

// ErrSensorFault marks a failed measurement attempt.
var ErrSensorFault = errors.New("climate sensor fault")

// Physical range of the supported sensors. Values outside it are bus garbage.
const (
	MinTemperature = -40.0
	MaxTemperature = 85.0
	MinHumidity    = 0.0
	MaxHumidity    = 100.0
)

// Defaults for Config.
const (
	DefaultAttempts   = 3
	DefaultRetryDelay = 100 * time.Millisecond
)

// Bus performs a single temperature/humidity measurement.
type Bus interface {
	// Measure returns °C and %RH, or an error on a transient fault.
	Measure() (temperature, humidity float64, err error)
}

// Config bounds the time a Read may take.
type Config struct {
	// Attempts per Read, at least 1.
	Attempts int
	// RetryDelay separates consecutive attempts.
	RetryDelay time.Duration
}

// Reader owns the last known good reading and the consecutive fault counter.
type Reader struct {
	bus      Bus
	attempts int
	delay    time.Duration
	sleep    func(time.Duration)

	temperature float64
	humidity    float64
	faults      int
	lastErr     error
}

// NewReader creates a Reader. Attempts below 1 and a negative RetryDelay
// take the defaults.
func NewReader(bus Bus, cfg Config) *Reader {
	if cfg.Attempts < 1 {
		cfg.Attempts = DefaultAttempts
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	return &Reader{
		bus:      bus,
		attempts: cfg.Attempts,
		delay:    cfg.RetryDelay,
		sleep:    time.Sleep,
	}
}

// SetSleep replaces the delay function used between attempts.
func (r *Reader) SetSleep(sleep func(time.Duration)) {
	r.sleep = sleep
}

// Read measures, retrying on faults. On success the stored values are
// replaced and the fault counter reset. When every attempt fails the fault
// counter is incremented and the previous values are returned with Valid false.
func (r *Reader) Read(ctx context.Context) logic.Reading {
	for attempt := 1; attempt <= r.attempts; attempt++ {
		temp, humid, err := r.measure()
		if err == nil {
			r.temperature, r.humidity = temp, humid
			r.faults = 0
			r.lastErr = nil
			return r.Last(true)
		}

		r.lastErr = err
		logger.DebugKV(ctx, "climate read attempt failed", "attempt", attempt, "error", err)
		if attempt < r.attempts && r.delay > 0 {
			r.sleep(r.delay)
		}
	}

	r.faults++
	logger.WarnKV(ctx, "climate read failed", "attempts", r.attempts, "faults", r.faults, "error", r.lastErr)
	return r.Last(false)
}

func (r *Reader) measure() (float64, float64, error) {
	temp, humid, err := r.bus.Measure()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrSensorFault, err)
	}
	if !inRange(temp, MinTemperature, MaxTemperature) {
		return 0, 0, fmt.Errorf("%w: temperature %.1f out of range", ErrSensorFault, temp)
	}
	if !inRange(humid, MinHumidity, MaxHumidity) {
		return 0, 0, fmt.Errorf("%w: humidity %.1f out of range", ErrSensorFault, humid)
	}
	return temp, humid, nil
}

func inRange(v, min, max float64) bool {
	return !math.IsNaN(v) && v >= min && v <= max
}

// Last returns the stored values with the given validity.
func (r *Reader) Last(valid bool) logic.Reading {
	return logic.Reading{Temperature: r.temperature, Humidity: r.humidity, Valid: valid}
}

// Faults returns the number of consecutive failed reads.
func (r *Reader) Faults() int {
	return r.faults
}

// Degraded reports whether consecutive failures exceed max.
func (r *Reader) Degraded(max int) bool {
	return r.faults > max
}

// Err returns the error of the last failed attempt, nil after a success.
func (r *Reader) Err() error {
	return r.lastErr
}
