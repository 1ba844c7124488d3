//go:build !linux

package i2c

import "errors"

var errUnsupported = errors.New("i2c: not supported on this platform (requires Linux)")

// Bus is not available on non-Linux platforms.
type Bus struct{}

// Open returns an error on non-Linux platforms.
func Open(string) (*Bus, error) { return nil, errUnsupported }

// Tx is not implemented on non-Linux platforms.
func (b *Bus) Tx(uint16, []byte, []byte) error { return errUnsupported }

// Close is a no-op.
func (b *Bus) Close() error { return nil }
