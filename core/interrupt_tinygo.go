//go:build tinygo

package core

import "runtime/interrupt"

// disableInterrupts masks interrupts so the tick handler cannot observe a
// half-updated playback cursor. Returns the previous mask state.
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

// restoreInterrupts restores the mask state saved by disableInterrupts.
func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}
