//go:build linux

package gpio

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"

	"launchprobe/core"
)

// LineDriver drives indicator LEDs through the GPIO character device.
type LineDriver struct {
	mu    sync.Mutex
	chip  *gpiocdev.Chip
	lines map[core.GPIOPin]*gpiocdev.Line
}

// NewLineDriver opens the named chip (e.g. "gpiochip0").
func NewLineDriver(chipName string) (*LineDriver, error) {
	if chipName == "" {
		chipName = DefaultChip
	}
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer("probed"))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	return &LineDriver{
		chip:  chip,
		lines: make(map[core.GPIOPin]*gpiocdev.Line),
	}, nil
}

// ConfigureOutput requests pin as an output, initially low.
func (d *LineDriver) ConfigureOutput(pin core.GPIOPin) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.lines[pin]; ok {
		return nil
	}
	line, err := d.chip.RequestLine(int(pin), gpiocdev.AsOutput(0))
	if err != nil {
		return fmt.Errorf("request pin %d: %w", pin, err)
	}
	d.lines[pin] = line
	return nil
}

// SetPin drives a configured line.
func (d *LineDriver) SetPin(pin core.GPIOPin, value bool) error {
	line, err := d.line(pin)
	if err != nil {
		return err
	}
	v := 0
	if value {
		v = 1
	}
	if err := line.SetValue(v); err != nil {
		return fmt.Errorf("set pin %d: %w", pin, err)
	}
	return nil
}

// GetPin reads back a configured line.
func (d *LineDriver) GetPin(pin core.GPIOPin) (bool, error) {
	line, err := d.line(pin)
	if err != nil {
		return false, err
	}
	v, err := line.Value()
	if err != nil {
		return false, fmt.Errorf("read pin %d: %w", pin, err)
	}
	return v != 0, nil
}

func (d *LineDriver) line(pin core.GPIOPin) (*gpiocdev.Line, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	line, ok := d.lines[pin]
	if !ok {
		return nil, fmt.Errorf("pin %d not configured", pin)
	}
	return line, nil
}

// Close turns the indicators off and returns the lines to inputs so the
// LEDs stay dark while nothing owns them.
func (d *LineDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for pin, line := range d.lines {
		if err := line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear pin %d: %w", pin, err))
		}
		if err := line.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", pin, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", pin, err))
		}
		delete(d.lines, pin)
	}
	if d.chip != nil {
		if err := d.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		d.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
