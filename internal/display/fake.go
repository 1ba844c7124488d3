package display

// Op is one recorded drawing call.
type Op struct {
	Kind     string // "clear", "text" or "present"
	Text     string
	X, Y     int16
	Inverted bool
}

// FakeDevice records drawing calls for test assertions.
type FakeDevice struct {
	// Ops contains every call since the last Reset.
	Ops []Op

	// Presents counts successful Present calls.
	Presents int

	// PresentError, if set, will be returned by Present.
	PresentError error
}

// NewFakeDevice creates an empty FakeDevice.
func NewFakeDevice() *FakeDevice {
	return &FakeDevice{}
}

// Clear records a clear.
func (f *FakeDevice) Clear() {
	f.Ops = append(f.Ops, Op{Kind: "clear"})
}

// DrawText records a text draw.
func (f *FakeDevice) DrawText(text string, x, y int16, inverted bool) {
	f.Ops = append(f.Ops, Op{Kind: "text", Text: text, X: x, Y: y, Inverted: inverted})
}

// Present records a present.
func (f *FakeDevice) Present() error {
	f.Ops = append(f.Ops, Op{Kind: "present"})
	if f.PresentError != nil {
		return f.PresentError
	}
	f.Presents++
	return nil
}

// Frame returns the text ops drawn since the most recent clear.
func (f *FakeDevice) Frame() []Op {
	start := 0
	for i, op := range f.Ops {
		if op.Kind == "clear" {
			start = i + 1
		}
	}
	var frame []Op
	for _, op := range f.Ops[start:] {
		if op.Kind == "text" {
			frame = append(frame, op)
		}
	}
	return frame
}

// Texts returns the strings of the current frame.
func (f *FakeDevice) Texts() []string {
	var out []string
	for _, op := range f.Frame() {
		out = append(out, op.Text)
	}
	return out
}

// Reset clears recorded calls.
func (f *FakeDevice) Reset() {
	f.Ops = nil
	f.Presents = 0
	f.PresentError = nil
}
