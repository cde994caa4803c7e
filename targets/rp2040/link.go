//go:build rp2040

package main

import (
	"machine"
	"time"
)

// byteSerial is the part of machine.UART and machine.Serial the link uses.
type byteSerial interface {
	Buffered() int
	ReadByte() (byte, error)
	WriteByte(c byte) error
}

// serialLink adapts a TinyGo serial port to hostlink.Transport.
type serialLink struct {
	port byteSerial
}

// openLink configures the port selected by mode
func openLink(mode LinkMode) (*serialLink, error) {
	if mode == LinkUSB {
		// machine.Serial is USB CDC on RP2040; the baud rate is ignored
		if err := machine.Serial.Configure(machine.UARTConfig{}); err != nil {
			return nil, err
		}
		return &serialLink{port: machine.Serial}, nil
	}

	err := machine.UART0.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.UART0_TX_PIN,
		RX:       machine.UART0_RX_PIN,
	})
	if err != nil {
		return nil, err
	}
	return &serialLink{port: machine.UART0}, nil
}

// Buffered returns the number of bytes in the receive buffer
func (l *serialLink) Buffered() int {
	return l.port.Buffered()
}

// ReadByte waits for a byte. The receive interrupt fills the buffer, so
// polling with a short sleep is enough.
func (l *serialLink) ReadByte() (byte, error) {
	for l.port.Buffered() == 0 {
		time.Sleep(100 * time.Microsecond)
	}
	return l.port.ReadByte()
}

// WriteByte writes a byte to the port
func (l *serialLink) WriteByte(c byte) error {
	return l.port.WriteByte(c)
}

// Flush returns once written bytes are on their way. UART writes block
// until the byte is in the hardware FIFO, and USB CDC sends on its own.
func (l *serialLink) Flush() error {
	return nil
}
