//go:build rp2040

package main

import "machine"

// LinkMode selects which serial port carries the host byte channel.
type LinkMode uint8

const (
	// LinkUART uses UART0 on GPIO0 (TX) and GPIO1 (RX)
	LinkUART LinkMode = iota
	// LinkUSB uses the USB CDC port
	LinkUSB
)

// BoardConfig holds the pin assignment and link selection
type BoardConfig struct {
	Link LinkMode

	// RunPin carries the heartbeat
	RunPin machine.Pin
	// ErrorPin carries the Morse fault beacon
	ErrorPin machine.Pin
	// PixelPin drives a WS2812 status pixel; NoPin disables it
	PixelPin machine.Pin
}

// GetBoardConfig returns the board configuration.
// This can be modified at compile time.
func GetBoardConfig() BoardConfig {
	return BoardConfig{
		Link:     LinkUART,
		RunPin:   machine.LED,
		ErrorPin: machine.GPIO15,
		PixelPin: machine.GPIO16,
	}
}
