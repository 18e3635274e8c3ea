//go:build linux

package gpio

import (
	"github.com/pkg/errors"
	"github.com/warthog618/go-gpiocdev"
)

// Chip opens lines on an actual GPIO chip using the Linux character device.
type Chip struct {
	chip *gpiocdev.Chip
}

// OpenChip opens the named GPIO chip, e.g. "gpiochip0".
func OpenChip(name string) (*Chip, error) {
	chip, err := gpiocdev.NewChip(name)
	if err != nil {
		return nil, errors.Wrapf(err, "open gpio chip %s", name)
	}
	return &Chip{chip: chip}, nil
}

// Input requests pin as an input with pull-up. The contact and button pull
// the line low when active.
func (c *Chip) Input(pin int) (*RealInput, error) {
	line, err := c.chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		return nil, errors.Wrapf(err, "request input pin %d", pin)
	}
	return &RealInput{line: line, pin: pin}, nil
}

// Output requests pin as an output, initially low.
func (c *Chip) Output(pin int) (*RealOutput, error) {
	line, err := c.chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, errors.Wrapf(err, "request output pin %d", pin)
	}
	return &RealOutput{line: line, pin: pin}, nil
}

// Close releases the chip. Lines must be closed first.
func (c *Chip) Close() error {
	if err := c.chip.Close(); err != nil {
		return errors.Wrap(err, "close chip")
	}
	return nil
}

// RealInput reads a GPIO input line.
type RealInput struct {
	line *gpiocdev.Line
	pin  int
}

// Read returns the logical state of the line.
// Inverts raw GPIO: raw inactive (0) = logical true (contact closed to ground).
func (r *RealInput) Read() (bool, error) {
	raw, err := r.line.Value()
	if err != nil {
		return false, errors.Wrapf(err, "read pin %d", r.pin)
	}
	return raw == 0, nil
}

// Close releases the line.
// Reconfigures it to input with pull-down (matching Pi boot defaults) before
// closing so external hardware sees a clean state on shutdown/reboot.
func (r *RealInput) Close() error {
	var errs []error
	if err := r.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		errs = append(errs, errors.Wrapf(err, "reconfigure pin %d", r.pin))
	}
	if err := r.line.Close(); err != nil {
		errs = append(errs, errors.Wrapf(err, "close pin %d", r.pin))
	}
	if len(errs) > 0 {
		return errors.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealOutput drives a GPIO output line.
type RealOutput struct {
	line *gpiocdev.Line
	pin  int
}

// Write sets the line level.
func (r *RealOutput) Write(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := r.line.SetValue(v); err != nil {
		return errors.Wrapf(err, "write pin %d", r.pin)
	}
	return nil
}

// Close drives the line low and releases it.
func (r *RealOutput) Close() error {
	var errs []error
	if err := r.line.SetValue(0); err != nil {
		errs = append(errs, errors.Wrapf(err, "reset pin %d", r.pin))
	}
	if err := r.line.Close(); err != nil {
		errs = append(errs, errors.Wrapf(err, "close pin %d", r.pin))
	}
	if len(errs) > 0 {
		return errors.Errorf("close errors: %v", errs)
	}
	return nil
}
