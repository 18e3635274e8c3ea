//go:build !linux

package gpio

import "github.com/pkg/errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// Chip is not available on non-Linux platforms.
type Chip struct{}

// OpenChip returns an error on non-Linux platforms.
func OpenChip(name string) (*Chip, error) {
	return nil, errUnsupported
}

// Input is not implemented on non-Linux platforms.
func (c *Chip) Input(pin int) (*RealInput, error) {
	return nil, errUnsupported
}

// Output is not implemented on non-Linux platforms.
func (c *Chip) Output(pin int) (*RealOutput, error) {
	return nil, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (c *Chip) Close() error {
	return nil
}

// RealInput is not available on non-Linux platforms.
type RealInput struct{}

// Read is not implemented on non-Linux platforms.
func (r *RealInput) Read() (bool, error) {
	return false, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (r *RealInput) Close() error {
	return nil
}

// RealOutput is not available on non-Linux platforms.
type RealOutput struct{}

// Write is not implemented on non-Linux platforms.
func (r *RealOutput) Write(on bool) error {
	return errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (r *RealOutput) Close() error {
	return nil
}
