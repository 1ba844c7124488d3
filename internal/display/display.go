// Package display renders the controller state on a small text display.
// Rendering is a pure projection of the current state; it never retries.
package display

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sweeney/greenhouse-sensor/internal/logic"
)

// ErrRender marks a failed refresh. Callers treat it as non-fatal.
var ErrRender = errors.New("render fault")

// DefaultColumns is the character width of a 128 px panel with an 8 px font.
const DefaultColumns = 16

// Device draws text on a display buffer and pushes it to the panel.
type Device interface {
	// Clear blanks the buffer.
	Clear()
	// DrawText draws text with its top-left corner at (x, y). Inverted text
	// is drawn dark on a lit full-width banner.
	DrawText(text string, x, y int16, inverted bool)
	// Present sends the buffer to the panel.
	Present() error
}

// View is everything a refresh shows.
type View struct {
	Reading logic.Reading
	Motion  bool
	Status  logic.EnvironmentStatus
}

// Renderer lays out a View. The zero value uses DefaultColumns.
type Renderer struct {
	Columns int
}

// NewRenderer creates a Renderer for a display columns characters wide.
func NewRenderer(columns int) *Renderer {
	return &Renderer{Columns: columns}
}

// Render draws the normal layout when the status is optimal and the alert
// layout otherwise.
func (r *Renderer) Render(dev Device, v View) error {
	dev.Clear()
	if v.Status.IsOptimal() {
		r.normal(dev, v)
	} else {
		r.alert(dev, v)
	}
	return present(dev)
}

// Splash draws the startup screen.
func (r *Renderer) Splash(dev Device) error {
	dev.Clear()
	r.text(dev, "SMART GREENHOUSE", 0, 0, false)
	r.text(dev, "Initializing...", 0, 30, false)
	return present(dev)
}

// Stopped clears the panel and leaves a shutdown notice on it.
func (r *Renderer) Stopped(dev Device) error {
	dev.Clear()
	r.text(dev, "System Stopped", 10, 28, false)
	return present(dev)
}

func (r *Renderer) normal(dev Device, v View) {
	pir := "CLEAR"
	if v.Motion {
		pir = "ACTIVE"
	}
	r.text(dev, "SMART GREENHOUSE", 0, 0, false)
	r.text(dev, r.rule(), 0, 10, false)
	r.text(dev, "Temp: "+celsius(v.Reading.Temperature), 0, 20, false)
	r.text(dev, "Humid: "+percent(v.Reading.Humidity), 0, 30, false)
	r.text(dev, "PIR: "+pir, 0, 40, false)
	r.text(dev, "Status: OK", 0, 50, false)
}

func (r *Renderer) alert(dev Device, v View) {
	r.text(dev, "!!! ANOMALY !!!", 5, 2, true)
	r.text(dev, r.rule(), 0, 15, false)
	r.text(dev, "T:"+celsius(v.Reading.Temperature)+" H:"+percent(v.Reading.Humidity), 0, 25, false)

	lines := v.Status.Lines()
	if len(lines) > 2 {
		lines = lines[:2]
	}
	y := int16(35)
	for _, line := range lines {
		r.text(dev, line, 0, y, false)
		y += 10
	}

	if v.Motion {
		r.text(dev, "PEST DETECTED!", 10, 55, true)
	}
}

// text truncates s to the column limit before drawing.
func (r *Renderer) text(dev Device, s string, x, y int16, inverted bool) {
	if cols := r.columns(); len(s) > cols {
		s = s[:cols]
	}
	dev.DrawText(s, x, y, inverted)
}

func (r *Renderer) rule() string {
	return strings.Repeat("-", r.columns())
}

func (r *Renderer) columns() int {
	if r.Columns <= 0 {
		return DefaultColumns
	}
	return r.Columns
}

func present(dev Device) error {
	if err := dev.Present(); err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	return nil
}

func celsius(v float64) string {
	return fmt.Sprintf("%.1fC", v)
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}
