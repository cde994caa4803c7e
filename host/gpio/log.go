package gpio

import (
	"fmt"
	"sync"

	"github.com/golang/glog"

	"launchprobe/core"
)

// LogDriver keeps pin levels in memory and logs every change. It is used
// when the host has no indicator LEDs.
type LogDriver struct {
	mu     sync.Mutex
	names  map[core.GPIOPin]string
	levels map[core.GPIOPin]bool
}

// NewLogDriver creates a LogDriver. names labels pins in the log; pins
// missing from it are logged by number.
func NewLogDriver(names map[core.GPIOPin]string) *LogDriver {
	if names == nil {
		names = make(map[core.GPIOPin]string)
	}
	return &LogDriver{
		names:  names,
		levels: make(map[core.GPIOPin]bool),
	}
}

func (d *LogDriver) label(pin core.GPIOPin) string {
	if name, ok := d.names[pin]; ok {
		return name
	}
	return fmt.Sprintf("pin%d", pin)
}

// ConfigureOutput records pin as an output, initially low.
func (d *LogDriver) ConfigureOutput(pin core.GPIOPin) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.levels[pin]; !ok {
		d.levels[pin] = false
		glog.V(1).Infof("gpio: %s configured as output", d.label(pin))
	}
	return nil
}

// SetPin records value, logging only on change.
func (d *LogDriver) SetPin(pin core.GPIOPin, value bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	old, ok := d.levels[pin]
	if !ok {
		return fmt.Errorf("pin %d not configured", pin)
	}
	d.levels[pin] = value
	if old != value {
		glog.V(2).Infof("gpio: %s -> %v", d.label(pin), value)
	}
	return nil
}

// GetPin returns the last value set.
func (d *LogDriver) GetPin(pin core.GPIOPin) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.levels[pin]
	if !ok {
		return false, fmt.Errorf("pin %d not configured", pin)
	}
	return v, nil
}

// Close forgets every pin.
func (d *LogDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.levels = make(map[core.GPIOPin]bool)
	return nil
}
