package core

import (
	"context"
	"sync/atomic"
	"time"
)

// TickScheduler is the single periodic entry point. Each tick it runs the
// heartbeat, the countdown and the morse player, always in that order.
type TickScheduler struct {
	heartbeat *Heartbeat
	countdown *Countdown
	morse     *MorsePlayer
	ticks     uint32 // atomic
}

// NewTickScheduler wires the three tick consumers.
func NewTickScheduler(hb *Heartbeat, cd *Countdown, mp *MorsePlayer) *TickScheduler {
	return &TickScheduler{
		heartbeat: hb,
		countdown: cd,
		morse:     mp,
	}
}

// OnTick runs one tick. It never blocks beyond the short critical section
// shared with MorsePlayer.Start, and ticks never overlap.
func (s *TickScheduler) OnTick() {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	atomic.AddUint32(&s.ticks, 1)
	s.heartbeat.Tick()
	s.countdown.Tick()
	s.morse.Advance()
}

// Ticks returns the number of ticks run so far.
func (s *TickScheduler) Ticks() uint32 {
	return atomic.LoadUint32(&s.ticks)
}

// Run calls OnTick for every value received on ticks. It returns nil when
// ticks is closed and ctx.Err() when ctx is done.
func (s *TickScheduler) Run(ctx context.Context, ticks <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-ticks:
			if !ok {
				return nil
			}
			s.OnTick()
		}
	}
}
