// Package notify delivers open and close notifications for the sensor.
// Every notifier is fire-and-forget: delivery failures are logged and
// swallowed, never retried.
package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sweeney/door-sensor/internal/mqtt"
)

// Method selects how notifications are delivered.
type Method string

const (
	MethodLog  Method = "LOG"
	MethodMQTT Method = "MQTT"
)

// KnownMethod reports whether s names a supported method, ignoring case
// and surrounding space.
func KnownMethod(s string) bool {
	switch Method(strings.ToUpper(strings.TrimSpace(s))) {
	case MethodLog, MethodMQTT:
		return true
	}
	return false
}

// ParseMethod maps a configured name to a Method. Anything unrecognised
// falls back to MethodLog.
func ParseMethod(s string) Method {
	if strings.EqualFold(strings.TrimSpace(s), string(MethodMQTT)) {
		return MethodMQTT
	}
	return MethodLog
}

// OpenMessage is the text sent when the sensor has been open too long.
func OpenMessage(description string) string {
	return fmt.Sprintf("Open %q", description)
}

// CloseMessage is the text sent when a notified open episode ends.
func CloseMessage(description string) string {
	return fmt.Sprintf("Close %q", description)
}

// Log writes notifications to the log only.
type Log struct {
	log logrus.FieldLogger
}

// NewLog creates a Log notifier.
func NewLog(log logrus.FieldLogger) *Log {
	return &Log{log: log}
}

// NotifyOpen logs the open notification.
func (l *Log) NotifyOpen() {
	l.log.WithField("event", mqtt.EventOpen).Info("notify -> opened")
}

// NotifyClose logs the close notification.
func (l *Log) NotifyClose() {
	l.log.WithField("event", mqtt.EventClose).Info("notify -> closed")
}

// MQTT publishes notifications as door events.
type MQTT struct {
	publisher   mqtt.Publisher
	description string
	now         func() time.Time
	log         logrus.FieldLogger
}

// NewMQTT creates an MQTT notifier. now supplies event timestamps.
func NewMQTT(publisher mqtt.Publisher, description string, now func() time.Time, log logrus.FieldLogger) *MQTT {
	return &MQTT{
		publisher:   publisher,
		description: description,
		now:         now,
		log:         log,
	}
}

// NotifyOpen publishes an OPEN event.
func (m *MQTT) NotifyOpen() {
	m.publish(mqtt.EventOpen, OpenMessage(m.description))
}

// NotifyClose publishes a CLOSE event.
func (m *MQTT) NotifyClose() {
	m.publish(mqtt.EventClose, CloseMessage(m.description))
}

func (m *MQTT) publish(typ mqtt.EventType, message string) {
	event := mqtt.Event{
		Timestamp:   m.now(),
		Type:        typ,
		Description: m.description,
		Message:     message,
	}
	err := m.publisher.Publish(event)
	switch {
	case mqtt.IsQueued(err):
		m.log.WithField("event", typ).Info("notification queued until the broker reconnects")
		return
	case err != nil:
		m.log.WithError(err).WithField("event", typ).Warn("notification publish failed")
		return
	}
	m.log.WithField("event", typ).WithField("message", message).Info("notification published")
}

// Notifier matches sensor.Notifier without importing it.
type Notifier interface {
	NotifyOpen()
	NotifyClose()
}

// Multi fans notifications out to each notifier in order.
type Multi []Notifier

// NotifyOpen notifies every target.
func (m Multi) NotifyOpen() {
	for _, n := range m {
		n.NotifyOpen()
	}
}

// NotifyClose notifies every target.
func (m Multi) NotifyClose() {
	for _, n := range m {
		n.NotifyClose()
	}
}
