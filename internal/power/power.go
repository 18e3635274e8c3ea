// Package power decides when the device may enter a low-power wait.
package power

import "time"

// Gate reports whether a subsystem can tolerate a short sleep.
type Gate interface {
	AllowedToShortSleep() bool
}

// GateFunc adapts a function to a Gate.
type GateFunc func() bool

// AllowedToShortSleep calls f.
func (f GateFunc) AllowedToShortSleep() bool {
	return f()
}

// AllowedToShortSleep reports whether every gate allows sleeping. It is
// false when no gates are given.
func AllowedToShortSleep(gates ...Gate) bool {
	if len(gates) == 0 {
		return false
	}
	for _, g := range gates {
		if !g.AllowedToShortSleep() {
			return false
		}
	}
	return true
}

// Scheduler picks the wait between driver cycles.
type Scheduler struct {
	Poll       time.Duration
	ShortSleep time.Duration
	Gates      []Gate
}

// Next returns ShortSleep when all gates allow it, otherwise Poll. A zero
// ShortSleep disables sleeping.
func (s Scheduler) Next() (time.Duration, bool) {
	if s.ShortSleep <= 0 || !AllowedToShortSleep(s.Gates...) {
		return s.Poll, false
	}
	return s.ShortSleep, true
}
