package i2c

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenMissingAdapter(t *testing.T) {
	bus, err := Open(filepath.Join(t.TempDir(), "i2c-9"))
	require.Error(t, err)
	require.Nil(t, bus)
}
