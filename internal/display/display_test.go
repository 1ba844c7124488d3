package display

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sweeney/greenhouse-sensor/internal/logic"
)

func TestRenderNormalLayout(t *testing.T) {
	dev := NewFakeDevice()
	r := NewRenderer(16)

	err := r.Render(dev, View{
		Reading: logic.Reading{Temperature: 25, Humidity: 70, Valid: true},
		Status:  logic.Optimal,
	})
	require.NoError(t, err)

	require.Equal(t, []string{
		"SMART GREENHOUSE",
		"----------------",
		"Temp: 25.0C",
		"Humid: 70.0%",
		"PIR: CLEAR",
		"Status: OK",
	}, dev.Texts())
	for _, op := range dev.Frame() {
		require.False(t, op.Inverted, "normal layout has no banners")
	}
	require.Equal(t, 1, dev.Presents)
}

func TestRenderAlertLayout(t *testing.T) {
	dev := NewFakeDevice()
	r := NewRenderer(16)

	err := r.Render(dev, View{
		Reading: logic.Reading{Temperature: 35, Humidity: 90, Valid: true},
		Status:  logic.Combined(logic.LevelHigh, logic.LevelHigh),
	})
	require.NoError(t, err)

	frame := dev.Frame()
	require.Equal(t, Op{Kind: "text", Text: "!!! ANOMALY !!!", X: 5, Y: 2, Inverted: true}, frame[0])
	require.Equal(t, []string{
		"!!! ANOMALY !!!",
		"----------------",
		"T:35.0C H:90.0%",
		"TEMP HIGH",
		"HUMIDITY HIGH",
	}, dev.Texts())
	require.Equal(t, int16(35), frame[3].Y)
	require.Equal(t, int16(45), frame[4].Y)
}

func TestRenderAlertWithMotionAddsBanner(t *testing.T) {
	dev := NewFakeDevice()
	r := NewRenderer(16)

	err := r.Render(dev, View{
		Reading: logic.Reading{Temperature: 25, Humidity: 70, Valid: true},
		Motion:  true,
		Status:  logic.PestDetected,
	})
	require.NoError(t, err)

	frame := dev.Frame()
	last := frame[len(frame)-1]
	require.Equal(t, Op{Kind: "text", Text: "PEST DETECTED!", X: 10, Y: 55, Inverted: true}, last)
}

func TestRenderSelectsLayoutByStatusOnly(t *testing.T) {
	dev := NewFakeDevice()
	r := NewRenderer(16)

	// Motion without an alert status still uses the normal layout.
	require.NoError(t, r.Render(dev, View{Motion: true, Status: logic.Optimal}))
	require.Equal(t, "SMART GREENHOUSE", dev.Texts()[0])
	require.Contains(t, dev.Texts(), "PIR: ACTIVE")
}

func TestRenderTruncatesToColumns(t *testing.T) {
	dev := NewFakeDevice()
	r := NewRenderer(8)

	require.NoError(t, r.Render(dev, View{Status: logic.Combined(logic.LevelLow, logic.LevelHigh)}))
	for _, s := range dev.Texts() {
		require.LessOrEqual(t, len(s), 8, s)
	}
	require.Contains(t, dev.Texts(), "HUMIDITY")
	require.Contains(t, dev.Texts(), "--------")
}

func TestRenderWideValuesAreTruncated(t *testing.T) {
	dev := NewFakeDevice()
	r := &Renderer{}

	require.NoError(t, r.Render(dev, View{
		Reading: logic.Reading{Temperature: -10.5, Humidity: 100},
		Status:  logic.TemperatureLow,
	}))
	require.Equal(t, "T:-10.5C H:100.0", dev.Texts()[2])
}

func TestRenderPresentFailure(t *testing.T) {
	dev := NewFakeDevice()
	cause := errors.New("i2c nack")
	dev.PresentError = cause

	err := NewRenderer(16).Render(dev, View{Status: logic.Optimal})
	require.ErrorIs(t, err, ErrRender)
	require.ErrorIs(t, err, cause)
	require.Zero(t, dev.Presents)
}

func TestSplashAndStopped(t *testing.T) {
	dev := NewFakeDevice()
	r := NewRenderer(16)

	require.NoError(t, r.Splash(dev))
	require.Equal(t, []string{"SMART GREENHOUSE", "Initializing..."}, dev.Texts())

	require.NoError(t, r.Stopped(dev))
	require.Equal(t, []Op{{Kind: "text", Text: "System Stopped", X: 10, Y: 28}}, dev.Frame())
	require.Equal(t, 2, dev.Presents)
}
