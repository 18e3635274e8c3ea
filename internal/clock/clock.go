// Package clock provides the monotonic millisecond clock shared by the
// sensor core. Time is always injectable so the core stays deterministic
// under test.
package clock

import "time"

// Millis is a monotonic timestamp in milliseconds.
type Millis uint64

// Clock returns the current monotonic time.
type Clock interface {
	Now() Millis
}

// System is a Clock backed by the Go monotonic clock, counting from the
// moment it was created.
type System struct {
	start time.Time
}

// NewSystem creates a System clock starting at zero now.
func NewSystem() *System {
	return &System{start: time.Now()}
}

// Now returns milliseconds elapsed since the clock was created.
func (s *System) Now() Millis {
	return Millis(time.Since(s.start).Milliseconds())
}

// Fake is a manually advanced Clock for tests.
type Fake struct {
	now Millis
}

// NewFake creates a Fake clock reading the given time.
func NewFake(now Millis) *Fake {
	return &Fake{now: now}
}

// Now returns the current fake time.
func (f *Fake) Now() Millis {
	return f.now
}

// Set moves the clock to t.
func (f *Fake) Set(t Millis) {
	f.now = t
}

// Advance moves the clock forward by d milliseconds.
func (f *Fake) Advance(d Millis) {
	f.now += d
}

// Duration converts d to Millis, truncating below a millisecond.
func Duration(d time.Duration) Millis {
	if d <= 0 {
		return 0
	}
	return Millis(d.Milliseconds())
}
