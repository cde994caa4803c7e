// Package gpio drives the probe indicators from a Linux host.
// The real implementation uses the Linux GPIO character device.
// The log implementation stands in when no LEDs are wired.
package gpio

import "launchprobe/core"

// Driver is a core.GPIODriver that holds host resources.
type Driver interface {
	core.GPIODriver

	// Close drives every configured line low and releases it.
	Close() error
}

// DefaultChip is the gpiochip the indicator lines live on.
const DefaultChip = "gpiochip0"
