package core

import "sync/atomic"

// Heartbeat blinks the run indicator once per tick while the probe is
// running. When not running the indicator keeps whatever level it had.
type Heartbeat struct {
	led     *Indicator
	running uint32 // atomic bool
}

// NewHeartbeat creates a stopped heartbeat on led.
func NewHeartbeat(led *Indicator) *Heartbeat {
	return &Heartbeat{led: led}
}

// SetRunning sets the run flag read by every tick.
func (h *Heartbeat) SetRunning(running bool) {
	if running {
		atomic.StoreUint32(&h.running, 1)
	} else {
		atomic.StoreUint32(&h.running, 0)
	}
}

// Running returns the run flag.
func (h *Heartbeat) Running() bool {
	return atomic.LoadUint32(&h.running) != 0
}

// SetLevel drives the indicator directly. A running heartbeat keeps
// toggling from the new level on the next tick.
func (h *Heartbeat) SetLevel(level bool) {
	h.led.Set(level)
}

// Level returns the indicator level.
func (h *Heartbeat) Level() bool {
	return h.led.Level()
}

// Tick toggles the indicator if running.
func (h *Heartbeat) Tick() {
	if h.Running() {
		h.led.Toggle()
	}
}
