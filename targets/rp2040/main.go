//go:build rp2040

package main

import (
	"context"
	"machine"
	"time"

	"launchprobe/console"
	"launchprobe/core"
	"launchprobe/hostlink"
)

var (
	// Debug counters
	consoleErrors uint32
	panics        uint32
)

func main() {
	// Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	InitDebugUART()
	board := GetBoardConfig()

	var driver core.GPIODriver = NewRPGPIODriver()
	if board.PixelPin != machine.NoPin {
		driver = newPixelDriver(driver, board.PixelPin,
			core.GPIOPin(board.RunPin), core.GPIOPin(board.ErrorPin))
	}

	platform, err := core.NewPlatform(core.PlatformConfig{
		Driver:   driver,
		RunPin:   core.GPIOPin(board.RunPin),
		ErrorPin: core.GPIOPin(board.ErrorPin),
	})
	if err != nil {
		core.DebugPrintln("[MAIN] platform: " + err.Error())
		haltBlink(board.RunPin)
	}

	ticks := make(chan time.Time, 1)
	go tickSource(ticks)
	go platform.Scheduler.Run(context.Background(), ticks)

	link, err := openLink(board.Link)
	if err != nil {
		core.DebugPrintln("[MAIN] link: " + err.Error())
		platform.FatalError()
		for {
			time.Sleep(time.Second)
		}
	}

	ch := hostlink.NewByteChannel(link, platform.Countdown, platform.Events)
	con := console.New(ch, platform, console.Config{
		Banner: "launchprobe ready",
		Echo:   true,
	})

	platform.SetRunning(true)
	core.DebugPrintln("[MAIN] running")

	for {
		// Recover from panics in the console so the beacon keeps going
		func() {
			defer func() {
				if r := recover(); r != nil {
					panics++
					platform.FatalError()
					platform.Events.Dump(core.DebugPrintln)
				}
			}()

			if err := con.Serve(context.Background()); err != nil {
				consoleErrors++
				core.DebugPrintln("[MAIN] console: " + err.Error())
				time.Sleep(100 * time.Millisecond)
			}
		}()
	}
}

// haltBlink flashes pin rapidly forever to show the firmware could not start
func haltBlink(pin machine.Pin) {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for {
		pin.High()
		time.Sleep(100 * time.Millisecond)
		pin.Low()
		time.Sleep(100 * time.Millisecond)
	}
}
