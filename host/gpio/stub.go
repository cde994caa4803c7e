//go:build !linux

package gpio

import (
	"errors"

	"launchprobe/core"
)

// LineDriver is not available on non-Linux platforms.
type LineDriver struct{}

// NewLineDriver returns an error on non-Linux platforms.
func NewLineDriver(chipName string) (*LineDriver, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// ConfigureOutput is not implemented on non-Linux platforms.
func (d *LineDriver) ConfigureOutput(pin core.GPIOPin) error {
	return errors.New("gpio: not supported")
}

// SetPin is not implemented on non-Linux platforms.
func (d *LineDriver) SetPin(pin core.GPIOPin, value bool) error {
	return errors.New("gpio: not supported")
}

// GetPin is not implemented on non-Linux platforms.
func (d *LineDriver) GetPin(pin core.GPIOPin) (bool, error) {
	return false, errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (d *LineDriver) Close() error {
	return nil
}
