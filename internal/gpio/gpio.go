// Package gpio provides the digital I/O of the controller with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// MotionReader reads the PIR motion sensor.
type MotionReader interface {
	// Read returns true while the sensor reports motion.
	// It never blocks beyond a single line read.
	Read() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Output drives a single digital output such as the alert LED or buzzer.
type Output interface {
	// Set drives the output high (true) or low (false).
	Set(on bool) error

	// Close drives the output low and releases it.
	Close() error
}

// Default pin assignments (BCM numbering).
const (
	DefaultChip      = "gpiochip0"
	DefaultPinPIR    = 4
	DefaultPinLED    = 17
	DefaultPinBuzzer = 21
)
