package mqtt

import (
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
)

func newTestOutbox(t *testing.T, capacity int) (*outbox, *logtest.Hook) {
	t.Helper()
	log, hook := logtest.NewNullLogger()
	return newOutbox(capacity, log), hook
}

func event(n byte) queuedMsg {
	return queuedMsg{topic: Topic, payload: []byte{n}, qos: 1}
}

func TestOutboxEmptyTake(t *testing.T) {
	o, _ := newTestOutbox(t, 4)
	if got := o.take(); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestOutboxKeepsPublishOrder(t *testing.T) {
	o, _ := newTestOutbox(t, 4)
	o.add(event(1))
	o.add(event(2))
	o.add(event(3))

	got := o.take()
	if len(got) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got))
	}
	for i, m := range got {
		if m.payload[0] != byte(i+1) {
			t.Errorf("message %d: got payload %d", i, m.payload[0])
		}
	}
	if o.len() != 0 {
		t.Errorf("take should empty the outbox, len=%d", o.len())
	}
}

func TestOutboxDropsOldestWhenFull(t *testing.T) {
	o, hook := newTestOutbox(t, 3)
	for i := byte(1); i <= 6; i++ {
		o.add(event(i))
	}

	if o.dropped != 3 {
		t.Errorf("expected 3 dropped, got %d", o.dropped)
	}
	if len(hook.AllEntries()) != 1 {
		t.Errorf("expected one full warning, got %d", len(hook.AllEntries()))
	}

	got := o.take()
	if len(got) != 3 || got[0].payload[0] != 4 || got[2].payload[0] != 6 {
		t.Errorf("expected the newest three, got %v", got)
	}

	// The warning re-arms after a take.
	for i := byte(1); i <= 4; i++ {
		o.add(event(i))
	}
	if len(hook.AllEntries()) != 2 {
		t.Errorf("expected a second warning, got %d", len(hook.AllEntries()))
	}
}

func TestOutboxRetainedReplacesRetained(t *testing.T) {
	o, _ := newTestOutbox(t, 8)
	o.add(queuedMsg{topic: TopicSystem, payload: []byte("STARTUP"), retained: true})
	o.add(event(1))
	o.add(queuedMsg{topic: TopicSystem, payload: []byte("HEARTBEAT")})
	o.add(queuedMsg{topic: TopicSystem, payload: []byte("SHUTDOWN"), retained: true})

	got := o.take()
	if len(got) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got))
	}
	if string(got[1].payload) != "HEARTBEAT" {
		t.Errorf("non-retained system messages are kept, got %q", got[1].payload)
	}
	if string(got[2].payload) != "SHUTDOWN" {
		t.Errorf("expected the newest retained message last, got %q", got[2].payload)
	}
	for _, m := range got {
		if string(m.payload) == "STARTUP" {
			t.Error("superseded retained message should be gone")
		}
	}
}

func TestOutboxPreservesFields(t *testing.T) {
	o, _ := newTestOutbox(t, 2)
	o.add(queuedMsg{topic: "a/b", payload: []byte("x"), qos: 1, retained: true})

	got := o.take()
	if len(got) != 1 {
		t.Fatalf("expected 1 message, got %d", len(got))
	}
	m := got[0]
	if m.topic != "a/b" || string(m.payload) != "x" || m.qos != 1 || !m.retained {
		t.Errorf("unexpected message: %+v", m)
	}
}
