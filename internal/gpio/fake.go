package gpio

import "github.com/pkg/errors"

// FakeInput is a test double that returns scripted line values.
type FakeInput struct {
	// Samples contains scripted values to return.
	// Each call to Read() consumes the next sample.
	Samples []bool

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeInput creates a FakeInput with the given samples.
func NewFakeInput(samples ...bool) *FakeInput {
	return &FakeInput{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeInput) Read() (bool, error) {
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

// Close marks the input as closed.
func (f *FakeInput) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the input to the first sample.
func (f *FakeInput) Reset() {
	f.index = 0
	f.Closed = false
}

// FakeOutput records values written to it.
type FakeOutput struct {
	// Writes contains every value written, in order.
	Writes []bool

	// WriteError, if set, will be returned by Write()
	WriteError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeOutput creates an empty FakeOutput.
func NewFakeOutput() *FakeOutput {
	return &FakeOutput{}
}

// Write records the value.
func (f *FakeOutput) Write(on bool) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Writes = append(f.Writes, on)
	return nil
}

// Level returns the last written value, false if nothing was written.
func (f *FakeOutput) Level() bool {
	if len(f.Writes) == 0 {
		return false
	}
	return f.Writes[len(f.Writes)-1]
}

// Close marks the output as closed.
func (f *FakeOutput) Close() error {
	f.Closed = true
	return nil
}
