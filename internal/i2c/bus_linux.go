//go:build linux

package i2c

import (
	"fmt"

	"golang.org/x/sys/unix"
	"tinygo.org/x/drivers"
)

// ioctl requests from linux/i2c-dev.h.
const (
	ioctlTimeout = 0x0702 // in units of 10 ms
	ioctlSlave   = 0x0703
)

// adapterTimeout bounds every transfer on the adapter.
const adapterTimeout = 10 // 100 ms

var _ drivers.I2C = (*Bus)(nil)

// Bus is an open /dev/i2c-N adapter. Not safe for concurrent use.
type Bus struct {
	path string
	fd   int
	addr uint16
	set  bool
}

// Open opens the adapter at path and sets the transfer timeout.
func Open(path string) (*Bus, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := unix.IoctlSetInt(fd, ioctlTimeout, adapterTimeout); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("set timeout on %s: %w", path, err)
	}
	return &Bus{path: path, fd: fd}, nil
}

// Tx writes w then reads into r from the device at addr. Either may be empty.
// The write and read are separate transactions; the AHT20 and SSD1306 do not
// need a repeated start.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	if !b.set || b.addr != addr {
		if err := unix.IoctlSetInt(b.fd, ioctlSlave, int(addr)); err != nil {
			return fmt.Errorf("%s: select 0x%02x: %w", b.path, addr, err)
		}
		b.addr, b.set = addr, true
	}
	if len(w) > 0 {
		n, err := unix.Write(b.fd, w)
		if err != nil {
			return fmt.Errorf("%s: write 0x%02x: %w", b.path, addr, err)
		}
		if n != len(w) {
			return fmt.Errorf("%s: short write to 0x%02x: %d of %d bytes", b.path, addr, n, len(w))
		}
	}
	if len(r) > 0 {
		n, err := unix.Read(b.fd, r)
		if err != nil {
			return fmt.Errorf("%s: read 0x%02x: %w", b.path, addr, err)
		}
		if n != len(r) {
			return fmt.Errorf("%s: short read from 0x%02x: %d of %d bytes", b.path, addr, n, len(r))
		}
	}
	return nil
}

// Close releases the adapter.
func (b *Bus) Close() error {
	return unix.Close(b.fd)
}
