// Package status provides a thread-safe status tracker for the door-sensor daemon.
// It is written by the driver loop and read by the heartbeat and lifecycle publishers.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/door-sensor/internal/indicator"
	"github.com/sweeney/door-sensor/internal/sensor"
)

// Config contains daemon configuration for display.
type Config struct {
	Description        string
	PollMs             int64
	DebounceMs         int64
	ShortSleepMs       int64
	HeartbeatMs        int64
	NotifyDelayMinutes int
	Methods            []string
	Broker             string
	HTTPAddr           string
}

// Sensor is the per-cycle state of the sensor core.
type Sensor struct {
	Phase        sensor.Phase
	Display      indicator.DisplayState
	Open         bool
	Paused       bool
	Input        bool // settled contact reading
	SleepAllowed bool
	Counts       sensor.Counts
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Sensor        Sensor
	Ready         bool // at least one cycle has run
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	methods := make([]string, len(cfg.Methods))
	copy(methods, cfg.Methods)
	cfg.Methods = methods

	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// SetClock replaces the time source used for Snapshot.Now.
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	t.now = now
	t.mu.Unlock()
}

// Update records the sensor state. Called from the driver loop every cycle.
func (t *Tracker) Update(s Sensor) {
	t.mu.Lock()
	t.snap.Sensor = s
	t.snap.Ready = true
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	now := t.now
	t.mu.RUnlock()
	s.Now = now()
	return s
}
