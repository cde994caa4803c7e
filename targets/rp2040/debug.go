//go:build rp2040

package main

import (
	"machine"

	"launchprobe/core"
)

var debugUART *machine.UART

// InitDebugUART initializes UART1 on GPIO4 (TX) and GPIO5 (RX) for debugging
// and routes core debug output to it.
// Baud rate: 115200
func InitDebugUART() {
	debugUART = machine.UART1

	err := debugUART.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GPIO4, // UART1 TX
		RX:       machine.GPIO5, // UART1 RX
	})
	if err != nil {
		debugUART = nil
		return
	}

	core.SetDebugWriter(debugWriteLine)
	core.SetDebugEnabled(true)
	core.InitAsyncDebug()

	core.DebugPrintln("=== launchprobe debug UART ===")
	core.DebugPrintln("Baud: 115200, TX=GPIO4, RX=GPIO5")
}

// debugWriteLine writes a string to the debug UART with newline
func debugWriteLine(s string) {
	if debugUART == nil {
		return
	}
	debugUART.Write([]byte(s))
	debugUART.Write([]byte("\r\n"))
}
