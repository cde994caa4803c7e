package core

import "sync/atomic"

// GPIOPin identifies a hardware GPIO pin number
type GPIOPin uint32

// GPIODriver is the abstract output interface the platform drives its
// indicators through. Targets provide the hardware implementation.
type GPIODriver interface {
	// ConfigureOutput configures a pin as a digital output
	ConfigureOutput(pin GPIOPin) error

	// SetPin sets the pin to high (true) or low (false)
	SetPin(pin GPIOPin, value bool) error

	// GetPin reads back the current pin level
	GetPin(pin GPIOPin) (bool, error)
}

// Indicator is a single LED-style output driven from the tick context.
// Write failures are counted and logged, never returned to the tick.
type Indicator struct {
	name   string
	driver GPIODriver
	pin    GPIOPin
	level  uint32 // atomic, last level written
	errors uint32 // atomic
	log    *EventLog
}

// NewIndicator configures pin as an output and drives it low.
func NewIndicator(name string, driver GPIODriver, pin GPIOPin, log *EventLog) (*Indicator, error) {
	if err := driver.ConfigureOutput(pin); err != nil {
		return nil, err
	}
	ind := &Indicator{name: name, driver: driver, pin: pin, log: log}
	ind.Set(false)
	return ind, nil
}

// Name returns the indicator label used in logs.
func (i *Indicator) Name() string {
	return i.name
}

// Pin returns the pin the indicator drives.
func (i *Indicator) Pin() GPIOPin {
	return i.pin
}

// Set drives the output to level.
func (i *Indicator) Set(level bool) {
	var v uint32
	if level {
		v = 1
	}
	atomic.StoreUint32(&i.level, v)
	if err := i.driver.SetPin(i.pin, level); err != nil {
		n := atomic.AddUint32(&i.errors, 1)
		i.log.Record(EvtIndicatorError, uint32(i.pin), n)
		DebugAsync("[GPIO] " + i.name + " write failed: " + err.Error())
	}
}

// Toggle inverts the output. The current level is read back from the pin
// when the driver can report it, so external writes are honoured.
func (i *Indicator) Toggle() {
	level, err := i.driver.GetPin(i.pin)
	if err != nil {
		level = i.Level()
	}
	i.Set(!level)
}

// Level returns the last level written.
func (i *Indicator) Level() bool {
	return atomic.LoadUint32(&i.level) != 0
}

// Errors returns the number of failed pin writes.
func (i *Indicator) Errors() uint32 {
	return atomic.LoadUint32(&i.errors)
}
