package status

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/door-sensor/internal/indicator"
	"github.com/sweeney/door-sensor/internal/sensor"
)

var testStart = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestTracker(cfg Config) *Tracker {
	tr := NewTracker(testStart, cfg)
	tr.SetClock(func() time.Time { return testStart.Add(2*time.Hour + 5*time.Minute + 30*time.Second) })
	return tr
}

func TestNewTracker(t *testing.T) {
	cfg := Config{PollMs: 50, DebounceMs: 100, Broker: "tcp://localhost:1883", Methods: []string{"LOG"}}
	tr := newTestTracker(cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(testStart) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, testStart)
	}
	if snap.Config.PollMs != 50 {
		t.Errorf("Config.PollMs: got %d, want 50", snap.Config.PollMs)
	}
	if snap.Ready {
		t.Error("expected Ready=false initially")
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
	if snap.Uptime() != 2*time.Hour+5*time.Minute+30*time.Second {
		t.Errorf("unexpected uptime: %v", snap.Uptime())
	}
}

func TestTrackerCopiesMethods(t *testing.T) {
	methods := []string{"LOG", "MQTT"}
	tr := newTestTracker(Config{Methods: methods})
	methods[0] = "CHANGED"

	if tr.Snapshot().Config.Methods[0] != "LOG" {
		t.Error("tracker should not share the caller's methods slice")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := newTestTracker(Config{})
	tr.Update(Sensor{
		Phase:   sensor.PhaseOpenNotified,
		Display: indicator.OpenWaitForClose,
		Open:    true,
		Counts:  sensor.Counts{Opened: 3, NotifiedOpen: 1},
	})
	tr.SetMQTTConnected(true)

	snap := tr.Snapshot()
	if !snap.Ready {
		t.Error("expected Ready after update")
	}
	if snap.Sensor.Phase != sensor.PhaseOpenNotified {
		t.Errorf("Phase: got %s", snap.Sensor.Phase)
	}
	if snap.Sensor.Counts.Opened != 3 {
		t.Errorf("Counts.Opened: got %d, want 3", snap.Sensor.Counts.Opened)
	}
	if !snap.MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := newTestTracker(Config{})
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tr.Update(Sensor{Open: j%2 == 0, Counts: sensor.Counts{Opened: j}})
				tr.SetMQTTConnected(n%2 == 0)
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = tr.Snapshot()
			}
		}()
	}
	wg.Wait()
}

func TestFormatJSON(t *testing.T) {
	tr := newTestTracker(Config{
		Description:        "garage",
		PollMs:             50,
		DebounceMs:         100,
		ShortSleepMs:       1000,
		HeartbeatMs:        900000,
		NotifyDelayMinutes: 5,
		Methods:            []string{"LOG", "MQTT"},
		Broker:             "tcp://broker:1883",
	})
	tr.Update(Sensor{
		Phase:        sensor.PhasePausedWaiting,
		Display:      indicator.PausedUntilClose,
		Open:         true,
		Paused:       true,
		SleepAllowed: false,
		Counts:       sensor.Counts{Opened: 2, PauseToggles: 1},
	})

	var sj StatusJSON
	if err := json.Unmarshal(FormatJSON(tr.Snapshot()), &sj); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	s := sj.Status

	if s.Event != "" || s.Reason != "" {
		t.Error("web status should not carry event or reason")
	}
	if s.Door != "OPEN" {
		t.Errorf("Door: got %q, want OPEN", s.Door)
	}
	if s.Phase != "PAUSED_WAITING_FOR_CLOSE" {
		t.Errorf("Phase: got %q", s.Phase)
	}
	if s.Indicator != "PAUSED_UNTIL_CLOSE" {
		t.Errorf("Indicator: got %q", s.Indicator)
	}
	if !s.Paused {
		t.Error("expected paused")
	}
	if s.UptimeSeconds != 7530 {
		t.Errorf("UptimeSeconds: got %d, want 7530", s.UptimeSeconds)
	}
	if !strings.Contains(s.Uptime, "2 hours") || !strings.Contains(s.Uptime, "5 minutes") {
		t.Errorf("Uptime: got %q", s.Uptime)
	}
	if s.StartTime != "2026-01-01T00:00:00Z" {
		t.Errorf("StartTime: got %q", s.StartTime)
	}
	if s.Counts.Opened != 2 || s.Counts.PauseToggles != 1 {
		t.Errorf("unexpected counts: %+v", s.Counts)
	}
	if s.Config.NotifyDelayMinutes != 5 || len(s.Config.Methods) != 2 {
		t.Errorf("unexpected config: %+v", s.Config)
	}
	if s.MQTT.Broker != "tcp://broker:1883" {
		t.Errorf("unexpected broker: %q", s.MQTT.Broker)
	}
}

func TestFormatJSONBeforeFirstUpdate(t *testing.T) {
	tr := newTestTracker(Config{})

	var sj StatusJSON
	if err := json.Unmarshal(FormatJSON(tr.Snapshot()), &sj); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if sj.Status.Door != "UNKNOWN" {
		t.Errorf("Door: got %q, want UNKNOWN", sj.Status.Door)
	}
	if sj.Status.Phase != "UNKNOWN" {
		t.Errorf("Phase: got %q, want UNKNOWN", sj.Status.Phase)
	}
	if sj.Status.Config.Methods == nil {
		t.Error("methods should encode as an empty list, not null")
	}
}

func TestFormatStatusEvent(t *testing.T) {
	tr := newTestTracker(Config{})
	tr.Update(Sensor{Phase: sensor.PhaseClosed, Display: indicator.Closed})

	data := FormatStatusEvent(tr.Snapshot(), "SHUTDOWN", "SIGTERM")
	if strings.Contains(string(data), "\n") {
		t.Error("event payload should be compact")
	}

	var sj StatusJSON
	if err := json.Unmarshal(data, &sj); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if sj.Status.Event != "SHUTDOWN" || sj.Status.Reason != "SIGTERM" {
		t.Errorf("unexpected event/reason: %q/%q", sj.Status.Event, sj.Status.Reason)
	}
	if sj.Status.Door != "CLOSED" {
		t.Errorf("Door: got %q, want CLOSED", sj.Status.Door)
	}
}

func TestHumanUptime(t *testing.T) {
	if got := HumanUptime(0); got != "0 seconds" {
		t.Errorf("zero uptime: got %q", got)
	}
	got := HumanUptime(3*24*time.Hour + 4*time.Hour + 10*time.Minute)
	if !strings.Contains(got, "3 days") || !strings.Contains(got, "4 hours") {
		t.Errorf("expected days and hours, got %q", got)
	}
	if strings.Contains(got, "minutes") {
		t.Errorf("expected only two units, got %q", got)
	}
}
