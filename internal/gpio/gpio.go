// Package gpio provides digital input and output lines with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Input reads a single GPIO input line.
type Input interface {
	// Read returns the logical state of the line.
	// Inputs are wired active low with a pull-up: raw 0 = logical true.
	Read() (bool, error)

	// Close releases the line.
	Close() error
}

// Output drives a single GPIO output line.
type Output interface {
	// Write sets the line high (true) or low (false).
	Write(on bool) error

	// Close releases the line.
	Close() error
}

// Pin definitions (BCM numbering)
const (
	DefaultPinSensor = 17 // Door contact
	DefaultPinButton = 27 // Pause button
	DefaultPinLED    = 22 // Indicator LED
)

// DefaultChip is the GPIO character device on a Raspberry Pi.
const DefaultChip = "gpiochip0"
