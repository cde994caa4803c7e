//go:build rp2040

package main

import (
	"runtime/volatile"
	"time"
	"unsafe"

	"launchprobe/core"
)

// RP2040 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerTIMERAWH = timerBase + 0x24 // Raw timer high word
	timerTIMERAWL = timerBase + 0x28 // Raw timer low word
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))

	// Ticks skipped because the scheduler fell more than a period behind
	missedTicks uint32
)

// GetHardwareUptime reads the full 64-bit RP2040 microsecond timer
func GetHardwareUptime() uint64 {
	// Must read high first, then low, then high again to detect rollover
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()

		if high1 == high2 {
			return (uint64(high1) << 32) | uint64(low)
		}
	}
}

// tickSource sends one tick per core.TickPeriod, paced on the hardware timer
// so sleep overshoot does not accumulate. A tick the scheduler has not
// taken yet is not queued twice.
func tickSource(out chan<- time.Time) {
	period := uint64(core.TickPeriod / time.Microsecond)
	next := GetHardwareUptime() + period

	for {
		now := GetHardwareUptime()
		if now < next {
			time.Sleep(time.Duration(next-now) * time.Microsecond)
			continue
		}

		next += period
		if now >= next {
			missedTicks++
			next = now + period
		}

		select {
		case out <- time.Now():
		default:
			missedTicks++
		}
	}
}
