// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// Topic is the default MQTT topic for door notification events.
const Topic = "home/door/sensor/events"

// TopicSystem is the default MQTT topic for system lifecycle events.
const TopicSystem = "home/door/sensor/system"

// EventType is the kind of door notification.
type EventType string

const (
	EventOpen  EventType = "OPEN"
	EventClose EventType = "CLOSE"
)

// Event is a door notification to be published.
type Event struct {
	Timestamp   time.Time
	Type        EventType
	Description string // e.g. "garage door"
	Message     string // human readable text, e.g. `Open "garage door"`
}

// Publisher is the outbound side of the broker connection. Failures are
// returned to the caller and never retried here.
type Publisher interface {
	Publish(event Event) error
	PublishSystem(event SystemEvent) error
	Close() error
}

// ErrQueued is returned, wrapped, when a message was kept for replay
// because the broker is not connected.
var ErrQueued = errors.New("not connected, message queued")

// IsQueued reports whether err means the message will be sent on reconnect.
func IsQueued(err error) bool {
	return errors.Cause(err) == ErrQueued
}

// ConnectionStatus reports whether the broker link is up.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent is a daemon lifecycle message: STARTUP, SHUTDOWN, HEARTBEAT
// or the OFFLINE last will.
type SystemEvent struct {
	Timestamp time.Time
	Event     string
	Reason    string // signal name on SHUTDOWN
	Retained  bool

	// RawPayload replaces the formatted body when set; the daemon uses it
	// to send a full status snapshot.
	RawPayload []byte
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Door DoorPayload `json:"door"`
}

// DoorPayload contains the door event details.
type DoorPayload struct {
	Timestamp   string `json:"timestamp"`
	Event       string `json:"event"`
	Description string `json:"description"`
	Message     string `json:"message"`
}

// FormatPayload creates the JSON payload for a door event.
func FormatPayload(event Event) ([]byte, error) {
	payload := Payload{
		Door: DoorPayload{
			Timestamp:   event.Timestamp.UTC().Format(time.RFC3339),
			Event:       string(event.Type),
			Description: event.Description,
			Message:     event.Message,
		},
	}
	return json.Marshal(payload)
}

type lifecycleBody struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload encodes a lifecycle event as {"system":{...}}.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}
	return json.Marshal(map[string]lifecycleBody{
		"system": {
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	})
}
