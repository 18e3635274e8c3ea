package mqtt

// Message is a single publish as the broker receives it.
type Message struct {
	Topic    string
	Payload  []byte
	Retained bool
}

// FakePublisher records what a RealPublisher would send, on the default
// topics.
type FakePublisher struct {
	// Events and SystemEvents hold the events in publish order.
	Events       []Event
	SystemEvents []SystemEvent

	// Sent holds every formatted message across both topics.
	Sent []Message

	// PublishError and PublishSystemError, if set, fail the matching call
	// without recording anything.
	PublishError       error
	PublishSystemError error

	Connected bool
	Closed    bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish records a door event.
func (f *FakePublisher) Publish(event Event) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	f.Events = append(f.Events, event)
	f.Sent = append(f.Sent, Message{Topic: Topic, Payload: payload})
	return nil
}

// PublishSystem records a lifecycle event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.Sent = append(f.Sent, Message{Topic: TopicSystem, Payload: payload, Retained: event.Retained})
	return nil
}

// OnTopic returns the payloads sent to topic, oldest first.
func (f *FakePublisher) OnTopic(topic string) [][]byte {
	var out [][]byte
	for _, m := range f.Sent {
		if m.Topic == topic {
			out = append(out, m.Payload)
		}
	}
	return out
}

// Retained returns the payload a broker would hold for topic, or nil.
func (f *FakePublisher) Retained(topic string) []byte {
	for i := len(f.Sent) - 1; i >= 0; i-- {
		if m := f.Sent[i]; m.Topic == topic && m.Retained {
			return m.Payload
		}
	}
	return nil
}

// Close marks the publisher closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected returns Connected.
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears everything recorded and configured.
func (f *FakePublisher) Reset() {
	*f = FakePublisher{}
}
