package climate

import "errors"

// Result is one scripted measurement.
type Result struct {
	Temperature float64
	Humidity    float64
	Err         error
}

// FakeBus returns scripted measurements for tests.
type FakeBus struct {
	// Results are consumed one per Measure; the last one repeats.
	Results []Result

	// Calls counts Measure calls.
	Calls int

	index int
}

// NewFakeBus creates a FakeBus with the given results.
func NewFakeBus(results ...Result) *FakeBus {
	return &FakeBus{Results: results}
}

// Measure returns the next scripted result.
func (f *FakeBus) Measure() (float64, float64, error) {
	f.Calls++
	if len(f.Results) == 0 {
		return 0, 0, errors.New("no results configured")
	}
	res := f.Results[f.index]
	if f.index < len(f.Results)-1 {
		f.index++
	}
	return res.Temperature, res.Humidity, res.Err
}
