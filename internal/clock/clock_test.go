package clock

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	require.Equal(t, int32(500), Diff(1500, 1000))
	require.Equal(t, int32(-500), Diff(1000, 1500))
	require.Equal(t, int32(0), Diff(42, 42))
}

func TestDiffAcrossRollover(t *testing.T) {
	before := Ticks(math.MaxUint32 - 99) // 100ms before wrap
	after := Ticks(150)                  // 150ms after wrap

	require.Equal(t, int32(250), Diff(after, before))
	require.Equal(t, int32(-250), Diff(before, after))
}

func TestElapsed(t *testing.T) {
	tests := []struct {
		name  string
		now   Ticks
		since Ticks
		d     Duration
		want  bool
	}{
		{"exactly interval", 2200, 200, 2000, true},
		{"just short", 2199, 200, 2000, false},
		{"well past", 90000, 200, 2000, true},
		{"zero interval", 5, 5, 0, true},
		{"backwards jitter", 195, 200, 0, false},
		{"backwards jitter with interval", 100, 200, 50, false},
		{"rollover short", 10, math.MaxUint32 - 9, 200, false},
		{"rollover exact", 190, math.MaxUint32 - 9, 200, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Elapsed(tt.now, tt.since, tt.d))
		})
	}
}

func TestTicksAddWraps(t *testing.T) {
	require.Equal(t, Ticks(49), Ticks(math.MaxUint32-50).Add(100))
}

func TestFromDuration(t *testing.T) {
	require.Equal(t, Duration(200), FromDuration(200*time.Millisecond))
	require.Equal(t, Duration(0), FromDuration(-time.Second))
	require.Equal(t, Duration(1), FromDuration(1500*time.Microsecond))
	require.Equal(t, Duration(math.MaxInt32), FromDuration(1000*time.Hour))
	require.Equal(t, 30*time.Second, Duration(30000).Std())
}

func TestFakeAdvanceWraps(t *testing.T) {
	f := NewFake(math.MaxUint32 - 10)
	require.Equal(t, Ticks(9), f.Advance(20))
	f.Set(3)
	require.Equal(t, Ticks(3), f.Now())
}

func TestMonotonicBase(t *testing.T) {
	m := NewMonotonicAt(1000)
	now := m.Now()
	require.GreaterOrEqual(t, Diff(now, 1000), int32(0))
	require.Less(t, Diff(now, 1000), int32(1000))
}
