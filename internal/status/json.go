package status

import (
	"encoding/json"
	"time"

	"github.com/hako/durafmt"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	Description   string     `json:"description"`
	Door          string     `json:"door"`
	Phase         string     `json:"phase"`
	Indicator     string     `json:"indicator"`
	Paused        bool       `json:"paused"`
	SleepAllowed  bool       `json:"sleep_allowed"`
	Ready         bool       `json:"ready"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	Uptime        string     `json:"uptime"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Counts        CountsJSON `json:"event_counts"`
	Config        ConfigJSON `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker,omitempty"`
}

// CountsJSON is the JSON representation of sensor counters.
type CountsJSON struct {
	Opened         int `json:"opened"`
	Closed         int `json:"closed"`
	NotifiedOpen   int `json:"notified_open"`
	NotifiedClose  int `json:"notified_close"`
	PauseToggles   int `json:"pause_toggles"`
	PauseAutoClear int `json:"pause_auto_clear"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs             int64    `json:"poll_ms"`
	DebounceMs         int64    `json:"debounce_ms"`
	ShortSleepMs       int64    `json:"short_sleep_ms"`
	HeartbeatMs        int64    `json:"heartbeat_ms"`
	NotifyDelayMinutes int      `json:"notify_open_delay_minutes"`
	Methods            []string `json:"notification_methods"`
	HTTPAddr           string   `json:"http_addr,omitempty"`
}

// HumanUptime renders d as its two most significant units, e.g. "2 hours 5 minutes".
func HumanUptime(d time.Duration) string {
	d = d.Truncate(time.Second)
	if d <= 0 {
		return "0 seconds"
	}
	return durafmt.Parse(d).LimitFirstN(2).String()
}

// Report builds the status view of snap shared by the JSON and HTML outputs.
func Report(snap Snapshot) StatusInner {
	door := "UNKNOWN"
	if snap.Ready {
		door = "CLOSED"
		if snap.Sensor.Open {
			door = "OPEN"
		}
	}
	phase := string(snap.Sensor.Phase)
	if phase == "" {
		phase = "UNKNOWN"
	}
	methods := snap.Config.Methods
	if methods == nil {
		methods = []string{}
	}

	c := snap.Sensor.Counts
	return StatusInner{
		Description:   snap.Config.Description,
		Door:          door,
		Phase:         phase,
		Indicator:     snap.Sensor.Display.String(),
		Paused:        snap.Sensor.Paused,
		SleepAllowed:  snap.Sensor.SleepAllowed,
		Ready:         snap.Ready,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		Uptime:        HumanUptime(snap.Uptime()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Opened:         c.Opened,
			Closed:         c.Closed,
			NotifiedOpen:   c.NotifiedOpen,
			NotifiedClose:  c.NotifiedClose,
			PauseToggles:   c.PauseToggles,
			PauseAutoClear: c.PauseAutoClear,
		},
		Config: ConfigJSON{
			PollMs:             snap.Config.PollMs,
			DebounceMs:         snap.Config.DebounceMs,
			ShortSleepMs:       snap.Config.ShortSleepMs,
			HeartbeatMs:        snap.Config.HeartbeatMs,
			NotifyDelayMinutes: snap.Config.NotifyDelayMinutes,
			Methods:            methods,
			HTTPAddr:           snap.Config.HTTPAddr,
		},
	}
}

// FormatJSON returns the indented JSON status (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: Report(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := Report(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
