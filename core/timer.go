package core

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"
)

// Tick source configuration. Every timeout in the platform is expressed in
// milliseconds and converted to ticks by floor division by TickPeriodMS.
const (
	TickHz       = 10
	TickPeriodMS = 1000 / TickHz
	TickPeriod   = TickPeriodMS * time.Millisecond
)

// MsToTicks converts a millisecond timeout into whole ticks.
// Anything shorter than one tick period rounds down to zero.
func MsToTicks(ms uint32) uint32 {
	return ms / TickPeriodMS
}

// Countdown is the shared tick-decremented counter used for delays and
// bounded reads. A new Arm overwrites whatever was armed before.
type Countdown struct {
	remaining uint32 // atomic
	log       *EventLog
}

// NewCountdown creates an expired countdown.
func NewCountdown(log *EventLog) *Countdown {
	return &Countdown{log: log}
}

// Arm sets the counter to ticks.
func (c *Countdown) Arm(ticks uint32) {
	atomic.StoreUint32(&c.remaining, ticks)
	c.log.Record(EvtArm, ticks, 0)
}

// Expired reports whether the counter has reached zero.
func (c *Countdown) Expired() bool {
	return atomic.LoadUint32(&c.remaining) == 0
}

// Remaining returns the ticks left before expiry.
func (c *Countdown) Remaining() uint32 {
	return atomic.LoadUint32(&c.remaining)
}

// Tick decrements the counter by one, stopping at zero.
// Called from the tick context only.
func (c *Countdown) Tick() {
	for {
		cur := atomic.LoadUint32(&c.remaining)
		if cur == 0 {
			return
		}
		if atomic.CompareAndSwapUint32(&c.remaining, cur, cur-1) {
			if cur == 1 {
				c.log.Record(EvtExpire, 0, 0)
			}
			return
		}
		// Lost a race with Arm; re-read the new value.
	}
}

// BlockUntilExpired spins until the counter reaches zero or ctx is done.
// Nothing but the tick source makes progress towards expiry, so callers
// must only use it where stalling is acceptable.
func (c *Countdown) BlockUntilExpired(ctx context.Context) error {
	for !c.Expired() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		runtime.Gosched()
	}
	return nil
}

// Delay arms the countdown and waits for it to expire.
func (c *Countdown) Delay(ctx context.Context, ticks uint32) error {
	c.Arm(ticks)
	return c.BlockUntilExpired(ctx)
}
