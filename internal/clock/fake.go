package clock

// Fake is a manually driven Source for tests.
type Fake struct {
	T Ticks
}

// NewFake returns a Fake reading start.
func NewFake(start Ticks) *Fake {
	return &Fake{T: start}
}

// Now returns the current fake reading.
func (f *Fake) Now() Ticks {
	return f.T
}

// Advance moves the fake clock forward by d, wrapping like the real counter.
func (f *Fake) Advance(d Duration) Ticks {
	f.T = f.T.Add(d)
	return f.T
}

// Set moves the fake clock to t, which may be earlier than the current reading.
func (f *Fake) Set(t Ticks) {
	f.T = t
}
