// Package indicator drives the status LED. The blink pattern is derived
// purely from the assigned display state and the wall clock, so re-entering
// a state resumes the pattern at whatever phase the clock implies.
package indicator

import "github.com/sweeney/door-sensor/internal/clock"

// DisplayState selects the blink pattern.
type DisplayState int

const (
	Closed DisplayState = iota
	PausedUntilClose
	OpenPreNotify
	OpenWaitForClose
)

// String returns the state name used in logs and status payloads.
func (s DisplayState) String() string {
	switch s {
	case Closed:
		return "CLOSED"
	case PausedUntilClose:
		return "PAUSED_UNTIL_CLOSE"
	case OpenPreNotify:
		return "OPEN_PRE_NOTIFY"
	case OpenWaitForClose:
		return "OPEN_WAIT_FOR_CLOSE"
	default:
		return "UNKNOWN"
	}
}

// Output is the physical LED.
type Output interface {
	Set(lit bool)
}

// Lit reports whether the LED should be on for state at time now.
func Lit(state DisplayState, now clock.Millis) bool {
	switch state {
	case Closed:
		return false
	case PausedUntilClose:
		// Triple blink: windows 1, 3 and 5 of twenty 250ms windows.
		switch (now % 5000) / 250 {
		case 1, 3, 5:
			return true
		default:
			return false
		}
	case OpenPreNotify:
		return now%2000 >= 1000
	case OpenWaitForClose:
		return now%5000 < 1000
	default:
		return true
	}
}

// Indicator holds the most recently assigned display state and renders it
// on every Pulse.
type Indicator struct {
	out   Output
	clock clock.Clock
	state DisplayState
}

// New creates an Indicator in the Closed state.
func New(out Output, clk clock.Clock) *Indicator {
	return &Indicator{
		out:   out,
		clock: clk,
		state: Closed,
	}
}

// SetState assigns the display state; the last write before Pulse wins.
func (i *Indicator) SetState(state DisplayState) {
	i.state = state
}

// State returns the currently assigned display state.
func (i *Indicator) State() DisplayState {
	return i.state
}

// Pulse writes the output for the current state and time.
func (i *Indicator) Pulse() {
	i.out.Set(Lit(i.state, i.clock.Now()))
}
