package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func openEvent() Event {
	return Event{
		Timestamp:   time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Type:        EventOpen,
		Description: "garage door",
		Message:     `Open "garage door"`,
	}
}

func TestFormatPayload(t *testing.T) {
	payload, err := FormatPayload(openEvent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Door.Timestamp != "2026-02-02T22:18:12Z" {
		t.Errorf("unexpected timestamp: %s", parsed.Door.Timestamp)
	}
	if parsed.Door.Event != "OPEN" {
		t.Errorf("unexpected event: %s", parsed.Door.Event)
	}
	if parsed.Door.Description != "garage door" {
		t.Errorf("unexpected description: %s", parsed.Door.Description)
	}
	if parsed.Door.Message != `Open "garage door"` {
		t.Errorf("unexpected message: %s", parsed.Door.Message)
	}
}

func TestFormatPayloadExactJSON(t *testing.T) {
	e := openEvent()
	e.Type = EventClose
	e.Message = `Close "garage door"`

	payload, err := FormatPayload(e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"door":{"timestamp":"2026-02-02T22:18:12Z","event":"CLOSE","description":"garage door","message":"Close \"garage door\""}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatSystemPayloadExactJSON(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 3, 10, 30, 45, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-02-03T10:30:45Z","event":"SHUTDOWN","reason":"SIGTERM"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatSystemPayloadOmitsEmptyReason(t *testing.T) {
	payload, err := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "STARTUP"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed map[string]map[string]interface{}
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, exists := parsed["system"]["reason"]; exists {
		t.Error("reason field should be omitted when empty")
	}
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"status":{"event":"HEARTBEAT"}}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: "HEARTBEAT", RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("expected raw payload passthrough, got %s", payload)
	}
}

func TestTopics(t *testing.T) {
	if Topic != "home/door/sensor/events" {
		t.Errorf("unexpected topic: %s", Topic)
	}
	if TopicSystem != "home/door/sensor/system" {
		t.Errorf("unexpected system topic: %s", TopicSystem)
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()

	if err := f.Publish(openEvent()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: "STARTUP"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.Events) != 1 || f.Events[0].Type != EventOpen {
		t.Errorf("unexpected events: %+v", f.Events)
	}
	if len(f.OnTopic(Topic)) != 1 || len(f.OnTopic(TopicSystem)) != 1 {
		t.Errorf("expected one message per topic, got %d", len(f.Sent))
	}
	if len(f.SystemEvents) != 1 || f.SystemEvents[0].Event != "STARTUP" {
		t.Errorf("unexpected system events: %+v", f.SystemEvents)
	}
}

func TestFakePublisherErrors(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("simulated error")
	f.PublishSystemError = errors.New("simulated system error")

	if err := f.Publish(openEvent()); err == nil {
		t.Error("expected error")
	}
	if err := f.PublishSystem(SystemEvent{Event: "STARTUP"}); err == nil {
		t.Error("expected system error")
	}
	if len(f.Events) != 0 || len(f.SystemEvents) != 0 {
		t.Error("nothing should be recorded on error")
	}
}

func TestFakePublisherReset(t *testing.T) {
	f := NewFakePublisher()
	f.Publish(openEvent())
	f.Close()
	f.Connected = true
	f.PublishError = errors.New("error")

	f.Reset()

	if len(f.Events) != 0 || len(f.Sent) != 0 {
		t.Error("events should be cleared")
	}
	if f.Closed || f.Connected {
		t.Error("flags should be reset")
	}
	if f.PublishError != nil {
		t.Error("error should be cleared")
	}
}

func TestFakePublisherRetained(t *testing.T) {
	f := NewFakePublisher()
	if f.Retained(TopicSystem) != nil {
		t.Error("nothing retained yet")
	}

	f.PublishSystem(SystemEvent{Event: "STARTUP", RawPayload: []byte("start"), Retained: true})
	f.PublishSystem(SystemEvent{Event: "HEARTBEAT", RawPayload: []byte("beat")})
	if got := string(f.Retained(TopicSystem)); got != "start" {
		t.Errorf("heartbeat is not retained, got %q", got)
	}

	f.PublishSystem(SystemEvent{Event: "SHUTDOWN", RawPayload: []byte("stop"), Retained: true})
	if got := string(f.Retained(TopicSystem)); got != "stop" {
		t.Errorf("expected the last retained payload, got %q", got)
	}
	if f.Retained(Topic) != nil {
		t.Error("door events are not retained")
	}
}
