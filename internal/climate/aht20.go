package climate

import (
	"fmt"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/aht20"
)

// DefaultAHT20Address is the fixed I2C address of the AHT20.
const DefaultAHT20Address = aht20.Address

// AHT20Bus measures with an AHT20 sensor over I2C.
type AHT20Bus struct {
	dev aht20.Device
}

// NewAHT20 initialises the sensor at addr (0 selects the default address).
func NewAHT20(bus drivers.I2C, addr uint16) *AHT20Bus {
	dev := aht20.New(bus)
	if addr != 0 {
		dev.Address = addr
	}
	dev.Configure()
	return &AHT20Bus{dev: dev}
}

// Measure triggers a conversion and waits for it; the driver bounds the wait.
func (a *AHT20Bus) Measure() (float64, float64, error) {
	if err := a.dev.Read(); err != nil {
		return 0, 0, fmt.Errorf("aht20 read: %w", err)
	}
	return float64(a.dev.DeciCelsius()) / 10, float64(a.dev.DeciRelHumidity()) / 10, nil
}
