// Package i2c exposes a Linux i2c-dev adapter as a tinygo.org/x/drivers.I2C,
// so the TinyGo sensor driver and the OLED panel run on a Raspberry Pi.
package i2c

// DefaultBus is the user-facing I2C bus on a Raspberry Pi header.
const DefaultBus = "/dev/i2c-1"
