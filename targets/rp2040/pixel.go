//go:build rp2040

package main

import (
	"image/color"
	"machine"

	"tinygo.org/x/drivers/ws2812"

	"launchprobe/core"
)

var (
	pixelOff   = color.RGBA{}
	pixelRun   = color.RGBA{G: 0x10}
	pixelFault = color.RGBA{R: 0x40}
)

// pixelDriver mirrors the run and error indicators onto one WS2812 pixel:
// red while the fault beacon is lit, dim green on a heartbeat, else dark.
type pixelDriver struct {
	inner    core.GPIODriver
	dev      ws2812.Device
	runPin   core.GPIOPin
	errorPin core.GPIOPin
	run      bool
	fault    bool
	buf      [1]color.RGBA
}

func newPixelDriver(inner core.GPIODriver, pixel machine.Pin, runPin, errorPin core.GPIOPin) *pixelDriver {
	pixel.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return &pixelDriver{
		inner:    inner,
		dev:      ws2812.New(pixel),
		runPin:   runPin,
		errorPin: errorPin,
	}
}

func (d *pixelDriver) ConfigureOutput(pin core.GPIOPin) error {
	return d.inner.ConfigureOutput(pin)
}

func (d *pixelDriver) SetPin(pin core.GPIOPin, value bool) error {
	if err := d.inner.SetPin(pin, value); err != nil {
		return err
	}
	switch pin {
	case d.runPin:
		d.run = value
	case d.errorPin:
		d.fault = value
	default:
		return nil
	}
	return d.show()
}

func (d *pixelDriver) GetPin(pin core.GPIOPin) (bool, error) {
	return d.inner.GetPin(pin)
}

func (d *pixelDriver) show() error {
	switch {
	case d.fault:
		d.buf[0] = pixelFault
	case d.run:
		d.buf[0] = pixelRun
	default:
		d.buf[0] = pixelOff
	}
	return d.dev.WriteColors(d.buf[:])
}
