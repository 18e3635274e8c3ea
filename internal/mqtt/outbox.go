package mqtt

import "github.com/sirupsen/logrus"

type queuedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox holds messages published while the broker is unreachable, in
// publish order. A retained message replaces an earlier retained message on
// the same topic, since the broker keeps only the last one anyway. When full
// the oldest message is dropped. Callers synchronize.
type outbox struct {
	msgs     []queuedMsg
	capacity int
	dropped  int
	warned   bool
	log      logrus.FieldLogger
}

func newOutbox(capacity int, log logrus.FieldLogger) *outbox {
	return &outbox{
		msgs:     make([]queuedMsg, 0, capacity),
		capacity: capacity,
		log:      log,
	}
}

func (o *outbox) add(m queuedMsg) {
	if m.retained {
		for i, q := range o.msgs {
			if q.retained && q.topic == m.topic {
				o.msgs = append(o.msgs[:i], o.msgs[i+1:]...)
				break
			}
		}
	}

	if len(o.msgs) == o.capacity {
		if !o.warned {
			o.log.WithField("capacity", o.capacity).Warn("mqtt outbox full, dropping oldest")
			o.warned = true
		}
		copy(o.msgs, o.msgs[1:])
		o.msgs = o.msgs[:len(o.msgs)-1]
		o.dropped++
	}
	o.msgs = append(o.msgs, m)
}

// take empties the outbox and returns its messages, oldest first.
func (o *outbox) take() []queuedMsg {
	if len(o.msgs) == 0 {
		return nil
	}
	msgs := make([]queuedMsg, len(o.msgs))
	copy(msgs, o.msgs)
	o.msgs = o.msgs[:0]
	o.warned = false
	return msgs
}

func (o *outbox) len() int {
	return len(o.msgs)
}
