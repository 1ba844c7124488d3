package gpio

import "errors"

// FakeMotion is a test double that returns scripted PIR values.
type FakeMotion struct {
	// Samples contains scripted motion values.
	// Each call to Read() consumes the next sample.
	Samples []bool

	index int

	// Reads counts calls to Read.
	Reads int

	// Closed tracks if Close was called.
	Closed bool

	// ReadError, if set, will be returned by Read().
	ReadError error
}

// NewFakeMotion creates a FakeMotion with the given samples.
func NewFakeMotion(samples ...bool) *FakeMotion {
	return &FakeMotion{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeMotion) Read() (bool, error) {
	f.Reads++
	if f.ReadError != nil {
		return false, f.ReadError
	}
	if len(f.Samples) == 0 {
		return false, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return sample, nil
}

// Close marks the reader as closed.
func (f *FakeMotion) Close() error {
	f.Closed = true
	return nil
}

// FakeOutput records every value written to it.
type FakeOutput struct {
	// Writes contains every value passed to Set, in order.
	Writes []bool

	// SetError, if set, will be returned by Set.
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeOutput creates an empty FakeOutput.
func NewFakeOutput() *FakeOutput {
	return &FakeOutput{}
}

// Set records the value.
func (f *FakeOutput) Set(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.Writes = append(f.Writes, on)
	return nil
}

// On reports the last value written, false if none.
func (f *FakeOutput) On() bool {
	if len(f.Writes) == 0 {
		return false
	}
	return f.Writes[len(f.Writes)-1]
}

// Close records the close and drives the output low.
func (f *FakeOutput) Close() error {
	f.Closed = true
	f.Writes = append(f.Writes, false)
	return nil
}
