// Package sensor tracks the open/closed state of a door contact, decides when
// to notify about it and which pattern the indicator should show.
//
// State is encoded as relations between four timestamps plus a pause flag;
// there is no stored state tag. The package has no I/O of its own: time comes
// from an injected clock and notifications go to an injected Notifier.
package sensor

import "github.com/sweeney/door-sensor/internal/clock"

// MinPeriodToShortSleep is how long the record must be unchanged before the
// machine allows the device to sleep.
const MinPeriodToShortSleep clock.Millis = 5000

// Notifier delivers open and close notifications. Calls are synchronous and
// fire-and-forget: the machine never observes success or failure.
type Notifier interface {
	NotifyOpen()
	NotifyClose()
}

// Settings supplies the monitoring configuration.
type Settings interface {
	// NotifyOpenDelayMinutes is how long the sensor must stay open before an
	// open notification is sent. Zero means as soon as the open is observed.
	NotifyOpenDelayMinutes() int
}

// StaticSettings is a fixed Settings value.
type StaticSettings struct {
	DelayMinutes int
}

// NotifyOpenDelayMinutes returns the configured delay.
func (s StaticSettings) NotifyOpenDelayMinutes() int {
	return s.DelayMinutes
}

// Phase names the derived state of the machine.
type Phase string

const (
	PhaseClosed            Phase = "CLOSED"
	PhaseOpenUnnotified    Phase = "OPEN_UNNOTIFIED"
	PhaseOpenNotified      Phase = "OPEN_NOTIFIED"
	PhasePausedWaiting     Phase = "PAUSED_WAITING_FOR_CLOSE"
	PhasePausedBlockedOpen Phase = "PAUSED_BLOCKED_WHILE_OPEN"
)

// Counts tracks transitions and notifications since startup.
type Counts struct {
	Opened         int
	Closed         int
	NotifiedOpen   int
	NotifiedClose  int
	PauseToggles   int
	PauseAutoClear int
}
