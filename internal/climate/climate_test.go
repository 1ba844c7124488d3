package climate

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sweeney/greenhouse-sensor/internal/logic"
)

var errBus = errors.New("checksum mismatch")

func newTestReader(bus Bus) (*Reader, *[]time.Duration) {
	r := NewReader(bus, Config{Attempts: 3, RetryDelay: 100 * time.Millisecond})
	var slept []time.Duration
	r.SetSleep(func(d time.Duration) { slept = append(slept, d) })
	return r, &slept
}

func TestReadSuccess(t *testing.T) {
	bus := NewFakeBus(Result{Temperature: 24.5, Humidity: 65})
	r, slept := newTestReader(bus)

	got := r.Read(context.Background())
	require.Equal(t, logic.Reading{Temperature: 24.5, Humidity: 65, Valid: true}, got)
	require.Equal(t, 1, bus.Calls)
	require.Empty(t, *slept)
	require.Zero(t, r.Faults())
	require.NoError(t, r.Err())
}

func TestReadRetriesTransientFault(t *testing.T) {
	bus := NewFakeBus(Result{Err: errBus}, Result{Err: errBus}, Result{Temperature: 22, Humidity: 70})
	r, slept := newTestReader(bus)

	got := r.Read(context.Background())
	require.True(t, got.Valid)
	require.Equal(t, 22.0, got.Temperature)
	require.Equal(t, 3, bus.Calls)
	require.Equal(t, []time.Duration{100 * time.Millisecond, 100 * time.Millisecond}, *slept)
	require.Zero(t, r.Faults())
}

func TestReadThreeFaultsKeepsLastKnownGood(t *testing.T) {
	bus := NewFakeBus(
		Result{Temperature: 26, Humidity: 72},
		Result{Err: errBus}, Result{Err: errBus}, Result{Err: errBus},
		Result{Temperature: 27, Humidity: 71},
	)
	r, slept := newTestReader(bus)
	ctx := context.Background()

	require.True(t, r.Read(ctx).Valid)

	got := r.Read(ctx)
	require.Equal(t, logic.Reading{Temperature: 26, Humidity: 72, Valid: false}, got)
	require.Equal(t, 4, bus.Calls, "exactly three attempts")
	require.Len(t, *slept, 2, "no delay after the final attempt")
	require.Equal(t, 1, r.Faults())
	require.ErrorIs(t, r.Err(), ErrSensorFault)
	require.ErrorIs(t, r.Err(), errBus)

	got = r.Read(ctx)
	require.Equal(t, logic.Reading{Temperature: 27, Humidity: 71, Valid: true}, got)
	require.Zero(t, r.Faults(), "success resets the counter")
	require.NoError(t, r.Err())
}

func TestReadFaultCounterAccumulates(t *testing.T) {
	bus := NewFakeBus(Result{Err: errBus})
	r, _ := newTestReader(bus)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		got := r.Read(ctx)
		require.False(t, got.Valid)
		require.Equal(t, i, r.Faults())
	}
	require.Equal(t, 15, bus.Calls)
	require.True(t, r.Degraded(3))
	require.False(t, r.Degraded(5))
}

func TestReadBeforeFirstSuccessReturnsZeroValues(t *testing.T) {
	r, _ := newTestReader(NewFakeBus(Result{Err: errBus}))

	got := r.Read(context.Background())
	require.Equal(t, logic.Reading{}, got)
}

func TestReadRejectsOutOfRangeValues(t *testing.T) {
	tests := []struct {
		name  string
		temp  float64
		humid float64
	}{
		{"too hot", 120, 50},
		{"too cold", -60, 50},
		{"humidity over 100", 25, 100.5},
		{"negative humidity", 25, -1},
		{"nan", math.NaN(), 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := NewFakeBus(Result{Temperature: tt.temp, Humidity: tt.humid})
			r, _ := newTestReader(bus)

			got := r.Read(context.Background())
			require.False(t, got.Valid)
			require.Equal(t, 3, bus.Calls)
			require.ErrorIs(t, r.Err(), ErrSensorFault)
		})
	}
}

func TestNewReaderDefaults(t *testing.T) {
	r := NewReader(NewFakeBus(), Config{RetryDelay: -1})
	require.Equal(t, DefaultAttempts, r.attempts)
	require.Equal(t, DefaultRetryDelay, r.delay)
}

func TestSingleAttemptNeverSleeps(t *testing.T) {
	bus := NewFakeBus(Result{Err: errBus})
	r := NewReader(bus, Config{Attempts: 1, RetryDelay: time.Second})
	r.SetSleep(func(time.Duration) { t.Fatal("unexpected sleep") })

	require.False(t, r.Read(context.Background()).Valid)
	require.Equal(t, 1, bus.Calls)
}
