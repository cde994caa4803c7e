package core

import (
	"errors"
	"sync"
)

// FakeGPIO is an in-memory GPIODriver that records every write.
// It is used by tests and by hosts running without LEDs.
type FakeGPIO struct {
	mu         sync.Mutex
	configured map[GPIOPin]bool
	levels     map[GPIOPin]bool
	history    map[GPIOPin][]bool

	// SetError, if set, is returned by SetPin.
	SetError error
}

// NewFakeGPIO creates an empty fake driver.
func NewFakeGPIO() *FakeGPIO {
	return &FakeGPIO{
		configured: make(map[GPIOPin]bool),
		levels:     make(map[GPIOPin]bool),
		history:    make(map[GPIOPin][]bool),
	}
}

// ConfigureOutput marks pin as an output.
func (f *FakeGPIO) ConfigureOutput(pin GPIOPin) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configured[pin] = true
	return nil
}

// SetPin records the write.
func (f *FakeGPIO) SetPin(pin GPIOPin, value bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetError != nil {
		return f.SetError
	}
	if !f.configured[pin] {
		return errors.New("gpio: pin not configured as output")
	}
	f.levels[pin] = value
	f.history[pin] = append(f.history[pin], value)
	return nil
}

// GetPin returns the last level written to pin.
func (f *FakeGPIO) GetPin(pin GPIOPin) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.levels[pin], nil
}

// History returns a copy of all levels written to pin, oldest first.
func (f *FakeGPIO) History(pin GPIOPin) []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]bool, len(f.history[pin]))
	copy(out, f.history[pin])
	return out
}

// Reset clears recorded history but keeps pin configuration and levels.
func (f *FakeGPIO) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = make(map[GPIOPin][]bool)
}
