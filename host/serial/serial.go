// Package serial opens the host side of the probe's UART link.
package serial

import (
	"io"
)

// Port is an open serial line. Anything implementing it can back a
// hostlink.StreamTransport:
// - Native serial (github.com/tarm/serial)
// - net.Pipe or a pty in tests
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate
	Baud int

	// Read timeout in milliseconds (0 = blocking). With a timeout set, idle
	// reads return io.EOF and the stream transport must be told so.
	ReadTimeout int
}

// DefaultBaud is the probe UART rate.
const DefaultBaud = 115200

// DefaultConfig returns the default configuration for device.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 100,
	}
}

// TimesOut reports whether reads on a port opened with c can return
// io.EOF while the line is merely idle.
func (c *Config) TimesOut() bool {
	return c.ReadTimeout > 0
}
