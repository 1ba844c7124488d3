// Package logic contains the pure decision rules of the greenhouse controller.
// This package has NO hardware, network or OS dependencies and never sleeps.
// Time is always injected as clock.Ticks.
package logic

import (
	"errors"
	"fmt"
)

// Reading is the latest climate measurement.
// When Valid is false the values are the last known good ones.
type Reading struct {
	Temperature float64 // °C
	Humidity    float64 // %RH
	Valid       bool
}

// Thresholds bound the optimal climate. Values on a bound are in range.
type Thresholds struct {
	TempMin  float64
	TempMax  float64
	HumidMin float64
	HumidMax float64
}

var errThresholdOrder = errors.New("minimum must be below maximum")

// Validate checks that each band is non-empty.
func (t Thresholds) Validate() error {
	if t.TempMin >= t.TempMax {
		return fmt.Errorf("temperature %.1f..%.1f: %w", t.TempMin, t.TempMax, errThresholdOrder)
	}
	if t.HumidMin >= t.HumidMax {
		return fmt.Errorf("humidity %.1f..%.1f: %w", t.HumidMin, t.HumidMax, errThresholdOrder)
	}
	return nil
}

// Level is the position of one quantity relative to its band.
type Level uint8

const (
	LevelOK Level = iota
	LevelLow
	LevelHigh
)

// Kind identifies an EnvironmentStatus variant.
type Kind uint8

const (
	KindOptimal Kind = iota
	KindTemperatureHigh
	KindTemperatureLow
	KindHumidityHigh
	KindHumidityLow
	KindCombined
	KindPestDetected
)

// EnvironmentStatus is the classified state of the greenhouse.
// It is a value: compare with ==, never mutate, recompute every tick.
// Temp and Humid are only meaningful for KindCombined, where both are non-OK.
type EnvironmentStatus struct {
	Kind  Kind
	Temp  Level
	Humid Level
}

var (
	Optimal         = EnvironmentStatus{Kind: KindOptimal}
	TemperatureHigh = EnvironmentStatus{Kind: KindTemperatureHigh}
	TemperatureLow  = EnvironmentStatus{Kind: KindTemperatureLow}
	HumidityHigh    = EnvironmentStatus{Kind: KindHumidityHigh}
	HumidityLow     = EnvironmentStatus{Kind: KindHumidityLow}
	PestDetected    = EnvironmentStatus{Kind: KindPestDetected}
)

// Combined returns the status for both quantities out of range.
func Combined(temp, humid Level) EnvironmentStatus {
	return EnvironmentStatus{Kind: KindCombined, Temp: temp, Humid: humid}
}

// IsOptimal reports whether no alert is needed.
func (s EnvironmentStatus) IsOptimal() bool {
	return s.Kind == KindOptimal
}

// Lines returns the human-readable status, one condition per line.
func (s EnvironmentStatus) Lines() []string {
	switch s.Kind {
	case KindOptimal:
		return []string{"OPTIMAL"}
	case KindTemperatureHigh:
		return []string{tempText(LevelHigh)}
	case KindTemperatureLow:
		return []string{tempText(LevelLow)}
	case KindHumidityHigh:
		return []string{humidText(LevelHigh)}
	case KindHumidityLow:
		return []string{humidText(LevelLow)}
	case KindCombined:
		return []string{tempText(s.Temp), humidText(s.Humid)}
	case KindPestDetected:
		return []string{"PEST DETECTED!"}
	default:
		return []string{"UNKNOWN"}
	}
}

// String joins Lines with " / ".
func (s EnvironmentStatus) String() string {
	lines := s.Lines()
	if len(lines) == 2 {
		return lines[0] + " / " + lines[1]
	}
	return lines[0]
}

func tempText(l Level) string {
	switch l {
	case LevelHigh:
		return "TEMP HIGH"
	case LevelLow:
		return "TEMP LOW"
	default:
		return "TEMP OK"
	}
}

func humidText(l Level) string {
	switch l {
	case LevelHigh:
		return "HUMIDITY HIGH"
	case LevelLow:
		return "HUMIDITY LOW"
	default:
		return "HUMIDITY OK"
	}
}
