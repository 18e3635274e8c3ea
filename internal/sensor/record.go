package sensor

import "github.com/sweeney/door-sensor/internal/clock"

// stamp is a timestamp that may be unset.
type stamp struct {
	at  clock.Millis
	set bool
}

func at(t clock.Millis) stamp {
	return stamp{at: t, set: true}
}

// value returns the timestamp, or zero when unset.
func (s stamp) value() clock.Millis {
	if !s.set {
		return 0
	}
	return s.at
}

// record captures when the sensor was opened and closed, and when each was
// last notified.
type record struct {
	openedAt             stamp
	closedAt             stamp
	lastNotifiedOpenAt   stamp
	lastNotifiedClosedAt stamp
}

func (r *record) reset() {
	*r = record{}
}

func (r *record) isOpen() bool {
	if !r.openedAt.set {
		return false
	}
	return !r.closedAt.set || r.openedAt.at > r.closedAt.at
}

// notifiedOpen reports whether an open notification was sent during the
// current open episode.
func (r *record) notifiedOpen() bool {
	return r.lastNotifiedOpenAt.set && r.lastNotifiedOpenAt.at >= r.openedAt.value()
}

// latest returns the most recent of the four timestamps.
func (r *record) latest() clock.Millis {
	last := r.openedAt.value()
	for _, s := range []stamp{r.closedAt, r.lastNotifiedOpenAt, r.lastNotifiedClosedAt} {
		if v := s.value(); v > last {
			last = v
		}
	}
	return last
}

// Record is an exported copy of the machine's timestamps. A nil field means
// the timestamp is unset.
type Record struct {
	OpenedAt             *clock.Millis
	ClosedAt             *clock.Millis
	LastNotifiedOpenAt   *clock.Millis
	LastNotifiedClosedAt *clock.Millis
}

// Empty reports whether no timestamp is set.
func (r Record) Empty() bool {
	return r.OpenedAt == nil && r.ClosedAt == nil &&
		r.LastNotifiedOpenAt == nil && r.LastNotifiedClosedAt == nil
}

func (s stamp) export() *clock.Millis {
	if !s.set {
		return nil
	}
	v := s.at
	return &v
}

func (r *record) export() Record {
	return Record{
		OpenedAt:             r.openedAt.export(),
		ClosedAt:             r.closedAt.export(),
		LastNotifiedOpenAt:   r.lastNotifiedOpenAt.export(),
		LastNotifiedClosedAt: r.lastNotifiedClosedAt.export(),
	}
}
