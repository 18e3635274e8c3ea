package sensor

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/sweeney/door-sensor/internal/clock"
	"github.com/sweeney/door-sensor/internal/indicator"
)

// Display receives the display state chosen on each update.
type Display interface {
	SetState(state indicator.DisplayState)
}

// Config holds the collaborators of a Machine. None of them are owned by it.
type Config struct {
	Settings Settings
	Notifier Notifier
	Display  Display
	Clock    clock.Clock
	Logger   logrus.FieldLogger
}

// Machine is the sensor state machine. It is not safe for concurrent use;
// the driver loop calls it once per cycle.
type Machine struct {
	settings Settings
	notifier Notifier
	display  Display
	clock    clock.Clock
	log      logrus.FieldLogger

	rec     record
	paused  bool
	toggled bool
	counts  Counts
}

// NewMachine creates a Machine in the unpaused, closed state.
func NewMachine(cfg Config) *Machine {
	log := cfg.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	m := &Machine{
		settings: cfg.Settings,
		notifier: cfg.Notifier,
		display:  cfg.Display,
		clock:    cfg.Clock,
		log:      log,
	}
	m.Reset()
	return m
}

// Reset clears the pause and empties the record. Used at startup and after
// configuration changes.
func (m *Machine) Reset() {
	m.paused = false
	m.rec.reset()
}

// Update processes the settled sensor reading for this cycle.
func (m *Machine) Update(open bool) {
	now := m.clock.Now()
	m.toggled = false

	if m.paused {
		m.updateWithPause(open, now)
	} else {
		m.updateWithoutPause(open, now)
	}
}

func (m *Machine) updateWithPause(open bool, now clock.Millis) {
	m.display.SetState(indicator.PausedUntilClose)

	if m.rec.isOpen() {
		if !open {
			m.log.Info("detected closed in pause, unpausing")
			m.paused = false
			m.rec.reset()
			m.counts.PauseAutoClear++
		}
		return
	}

	if open {
		// Only tracked so the following close can end the pause.
		m.log.Debug("detected open in pause, ignoring")
		m.rec.openedAt = at(now)
	}
}

func (m *Machine) updateWithoutPause(open bool, now clock.Millis) {
	if m.rec.isOpen() {
		if !open {
			m.rec.closedAt = at(now)
			m.counts.Closed++
			m.display.SetState(indicator.Closed)
			m.log.WithField("open_ms", now-m.rec.openedAt.at).Info("detected closed")

			// Notifications are paired; a close is only reported if its open was.
			if m.rec.notifiedOpen() {
				m.rec.lastNotifiedClosedAt = at(now)
				m.counts.NotifiedClose++
				m.log.Info("notifying close")
				m.notifier.NotifyClose()
			}
			return
		}

		delay := clock.Millis(m.notifyOpenDelayMinutes()) * 60 * 1000
		if now-m.rec.openedAt.at >= delay && !m.rec.notifiedOpen() {
			m.rec.lastNotifiedOpenAt = at(now)
			m.counts.NotifiedOpen++
			m.log.WithField("delay_ms", delay).Info("notifying open")
			m.notifier.NotifyOpen()
			m.display.SetState(indicator.OpenWaitForClose)
		}
		return
	}

	if open {
		m.rec.openedAt = at(now)
		m.counts.Opened++
		m.log.Info("detected open")
		m.display.SetState(indicator.OpenPreNotify)
		return
	}

	m.display.SetState(indicator.Closed)
}

func (m *Machine) notifyOpenDelayMinutes() int {
	minutes := m.settings.NotifyOpenDelayMinutes()
	if minutes < 0 {
		return 0
	}
	return minutes
}

// TogglePause pauses notification for an open episode in progress, or
// clears an existing pause. Pausing a closed sensor has nothing to suspend
// and leaves the machine unpaused. The record is reset either way. Only the
// first toggle between two updates takes effect.
func (m *Machine) TogglePause() {
	if m.toggled {
		m.log.Debug("ignoring repeated pause toggle in the same cycle")
		return
	}
	m.toggled = true

	m.paused = !m.paused && m.rec.isOpen()
	m.rec.reset()
	m.counts.PauseToggles++

	if m.paused {
		m.display.SetState(indicator.PausedUntilClose)
	} else {
		m.display.SetState(indicator.Closed)
	}
	m.log.WithField("paused", m.paused).Info("pause toggled")
}

// AllowedToShortSleep reports whether the record has been quiet long enough
// that no state would be lost to a sleep cycle.
func (m *Machine) AllowedToShortSleep() bool {
	if m.paused || m.rec.isOpen() {
		return false
	}
	return m.clock.Now()-m.rec.latest() > MinPeriodToShortSleep
}

// Paused reports whether notification is paused.
func (m *Machine) Paused() bool {
	return m.paused
}

// Open reports whether the record currently reflects an open sensor.
func (m *Machine) Open() bool {
	return m.rec.isOpen()
}

// Phase returns the derived state of the machine.
func (m *Machine) Phase() Phase {
	switch {
	case m.paused && m.rec.isOpen():
		return PhasePausedWaiting
	case m.paused:
		return PhasePausedBlockedOpen
	case m.rec.isOpen() && m.rec.notifiedOpen():
		return PhaseOpenNotified
	case m.rec.isOpen():
		return PhaseOpenUnnotified
	default:
		return PhaseClosed
	}
}

// Record returns a copy of the current timestamps.
func (m *Machine) Record() Record {
	return m.rec.export()
}

// CountsSnapshot returns a copy of the counters.
func (m *Machine) CountsSnapshot() Counts {
	return m.counts
}
