// Package debounce filters a bouncing digital input into a settled value.
//
// While a contact closes it can oscillate between on and off for a moment.
// Input keeps track of that bouncing and only accepts a new value once the
// raw signal has held it for longer than the debounce window.
package debounce

import "github.com/sweeney/door-sensor/internal/clock"

// DefaultWindow is the period over which a switch is expected to stabilise.
const DefaultWindow clock.Millis = 100

// Source reads the current raw value of a digital input.
type Source interface {
	Raw() bool
}

// SourceFunc adapts a plain function to a Source.
type SourceFunc func() bool

// Raw calls f.
func (f SourceFunc) Raw() bool {
	return f()
}

// Input is a debounced digital input. It is not safe for concurrent use;
// the driver loop owns it.
type Input struct {
	source    Source
	clock     clock.Clock
	window    clock.Millis
	state     bool
	candidate bool
	changedAt clock.Millis
}

// New creates an Input reading from source. A zero window selects
// DefaultWindow.
func New(source Source, clk clock.Clock, window clock.Millis) *Input {
	if window == 0 {
		window = DefaultWindow
	}
	return &Input{
		source: source,
		clock:  clk,
		window: window,
	}
}

// Update performs one raw read and advances the debounce state.
func (in *Input) Update() {
	raw := in.source.Raw()
	now := in.clock.Now()

	if raw != in.candidate {
		in.candidate = raw
		in.changedAt = now
	}

	if now-in.changedAt > in.window {
		in.state = in.candidate
	}
}

// State returns the settled value.
func (in *Input) State() bool {
	return in.state
}

// AllowedToShortSleep reports whether the input has been quiet for twice the
// debounce window, so no bounce can still be in progress.
func (in *Input) AllowedToShortSleep() bool {
	return in.clock.Now() > in.changedAt+2*in.window
}
