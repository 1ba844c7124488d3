package gpio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFakeMotionRead(t *testing.T) {
	f := NewFakeMotion(false, true, true)

	for i, want := range []bool{false, true, true, true} {
		got, err := f.Read()
		require.NoError(t, err)
		require.Equal(t, want, got, "read %d", i)
	}
	require.Equal(t, 4, f.Reads)
}

func TestFakeMotionNoSamples(t *testing.T) {
	_, err := NewFakeMotion().Read()
	require.Error(t, err)
}

func TestFakeMotionReadError(t *testing.T) {
	f := NewFakeMotion(true)
	f.ReadError = errors.New("simulated error")

	_, err := f.Read()
	require.ErrorIs(t, err, f.ReadError)
}

func TestFakeMotionClose(t *testing.T) {
	f := NewFakeMotion(true)
	require.NoError(t, f.Close())
	require.True(t, f.Closed)
}

func TestFakeOutput(t *testing.T) {
	f := NewFakeOutput()
	require.False(t, f.On())

	require.NoError(t, f.Set(true))
	require.True(t, f.On())

	require.NoError(t, f.Close())
	require.False(t, f.On())
	require.True(t, f.Closed)
	require.Equal(t, []bool{true, false}, f.Writes)
}

func TestFakeOutputSetError(t *testing.T) {
	f := NewFakeOutput()
	f.SetError = errors.New("line busy")

	require.Error(t, f.Set(true))
	require.Empty(t, f.Writes)
}

// Compile-time checks that the fakes satisfy the interfaces.
var (
	_ MotionReader = (*FakeMotion)(nil)
	_ Output       = (*FakeOutput)(nil)
	_ MotionReader = (*RealMotion)(nil)
	_ Output       = (*RealOutput)(nil)
)
