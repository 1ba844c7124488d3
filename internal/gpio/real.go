//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// Chip owns an open GPIO chip and hands out lines from it.
type Chip struct {
	chip *gpiocdev.Chip
}

// OpenChip opens the named GPIO chip, e.g. "gpiochip0".
func OpenChip(name string) (*Chip, error) {
	chip, err := gpiocdev.NewChip(name, gpiocdev.WithConsumer("greenhouse-sensor"))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", name, err)
	}
	return &Chip{chip: chip}, nil
}

// Close releases the chip. Lines must be closed first.
func (c *Chip) Close() error {
	return c.chip.Close()
}

// RealMotion reads a PIR sensor output line.
type RealMotion struct {
	line *gpiocdev.Line
}

// Motion requests pin as an input with pull-down, so a disconnected sensor
// reads as no motion.
func (c *Chip) Motion(pin int) (*RealMotion, error) {
	line, err := c.chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		return nil, fmt.Errorf("request PIR pin %d: %w", pin, err)
	}
	return &RealMotion{line: line}, nil
}

// Read returns true while the PIR output is high.
func (m *RealMotion) Read() (bool, error) {
	v, err := m.line.Value()
	if err != nil {
		return false, fmt.Errorf("read PIR pin: %w", err)
	}
	return v == 1, nil
}

// Close releases the PIR line.
func (m *RealMotion) Close() error {
	return m.line.Close()
}

// RealOutput drives an LED or buzzer line.
type RealOutput struct {
	name string
	line *gpiocdev.Line
}

// Output requests pin as an output, initially low.
func (c *Chip) Output(pin int, name string) (*RealOutput, error) {
	line, err := c.chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request %s pin %d: %w", name, pin, err)
	}
	return &RealOutput{name: name, line: line}, nil
}

// Set drives the line.
func (o *RealOutput) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := o.line.SetValue(v); err != nil {
		return fmt.Errorf("set %s: %w", o.name, err)
	}
	return nil
}

// Close drives the line low, then returns it to an input with pull-down
// (the Raspberry Pi boot default) so a buzzer cannot be left sounding.
func (o *RealOutput) Close() error {
	var errs []error
	if err := o.line.SetValue(0); err != nil {
		errs = append(errs, fmt.Errorf("clear %s: %w", o.name, err))
	}
	if err := o.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure %s: %w", o.name, err))
	}
	if err := o.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close %s: %w", o.name, err))
	}
	return errors.Join(errs...)
}
