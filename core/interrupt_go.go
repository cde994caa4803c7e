//go:build !tinygo

package core

import "sync"

// State is the saved critical-section state. On regular Go there is no
// interrupt controller, so the tick goroutine and main-line goroutines are
// serialized with a mutex instead.
type State uintptr

var tickSection sync.Mutex

// disableInterrupts enters the section shared with the tick handler.
// Not reentrant.
func disableInterrupts() State {
	tickSection.Lock()
	return 0
}

// restoreInterrupts leaves the section entered by disableInterrupts.
func restoreInterrupts(state State) {
	tickSection.Unlock()
}
