package gpio

import "github.com/sirupsen/logrus"

// Sampler adapts an Input to an infallible raw source for debouncing.
// A failed read keeps the last good value; errors are logged once per
// failure streak.
type Sampler struct {
	in      Input
	log     logrus.FieldLogger
	last    bool
	failing bool
}

// NewSampler wraps in.
func NewSampler(in Input, log logrus.FieldLogger) *Sampler {
	return &Sampler{in: in, log: log}
}

// Raw returns the current line value, or the last good one on error.
func (s *Sampler) Raw() bool {
	v, err := s.in.Read()
	if err != nil {
		if !s.failing {
			s.log.WithError(err).Warn("gpio read failed, holding last value")
			s.failing = true
		}
		return s.last
	}
	if s.failing {
		s.log.Info("gpio read recovered")
		s.failing = false
	}
	s.last = v
	return v
}

// Failing reports whether the most recent read failed.
func (s *Sampler) Failing() bool {
	return s.failing
}

// LED adapts an Output to the indicator, writing only on level changes.
type LED struct {
	out     Output
	log     logrus.FieldLogger
	level   bool
	written bool
	failing bool
}

// NewLED wraps out.
func NewLED(out Output, log logrus.FieldLogger) *LED {
	return &LED{out: out, log: log}
}

// Set drives the LED. Write errors are logged once per failure streak and
// retried on the next call.
func (l *LED) Set(lit bool) {
	if l.written && lit == l.level && !l.failing {
		return
	}
	if err := l.out.Write(lit); err != nil {
		if !l.failing {
			l.log.WithError(err).Warn("led write failed")
			l.failing = true
		}
		return
	}
	l.failing = false
	l.level = lit
	l.written = true
}

// Inverted reads an Input with its logical value flipped.
type Inverted struct {
	Input
}

// Invert wraps in so that Read reports the opposite level.
func Invert(in Input) Inverted {
	return Inverted{Input: in}
}

// Read returns the inverted line value.
func (i Inverted) Read() (bool, error) {
	v, err := i.Input.Read()
	if err != nil {
		return false, err
	}
	return !v, nil
}
