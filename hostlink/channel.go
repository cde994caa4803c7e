package hostlink

import (
	"runtime"
	"time"

	"launchprobe/core"
)

// pollInterval bounds how long a bounded read sleeps between countdown
// checks when the transport can signal data arrival.
const pollInterval = core.TickPeriod / 10

// ByteChannel is the probe's host byte stream. Bounded reads are timed by
// the platform countdown, so their resolution is one tick.
type ByteChannel struct {
	t     Transport
	timer *core.Countdown
	log   *core.EventLog
}

// NewByteChannel creates a channel over t, timing reads with timer.
func NewByteChannel(t Transport, timer *core.Countdown, log *core.EventLog) *ByteChannel {
	return &ByteChannel{t: t, timer: timer, log: log}
}

// ReadBlocking waits for one byte with no timeout. It only returns early
// if the transport fails.
func (c *ByteChannel) ReadBlocking() (byte, error) {
	return c.t.ReadByte()
}

// ReadTimeout waits up to timeoutMS for one byte. The timeout is floored to
// whole ticks; availability is always checked at least once, so a timeout
// under one tick period is a single poll. Returns ErrTimeout when nothing
// arrived, or the transport error if the link died while waiting.
func (c *ByteChannel) ReadTimeout(timeoutMS uint32) (byte, error) {
	ticks := core.MsToTicks(timeoutMS)
	c.timer.Arm(ticks)

	wait := c.waiter()
	defer wait.stop()

	for {
		if c.t.Buffered() > 0 {
			return c.t.ReadByte()
		}
		if f, ok := c.t.(Failer); ok {
			if err := f.Err(); err != nil {
				return 0, err
			}
		}
		if c.timer.Expired() {
			c.log.Record(core.EvtReadTimeout, ticks, 0)
			return 0, ErrTimeout
		}
		wait.idle()
	}
}

// Write sends b. With flush set it also waits for the transport to drain.
func (c *ByteChannel) Write(b byte, flush bool) error {
	if err := c.t.WriteByte(b); err != nil {
		return err
	}
	if flush {
		return c.t.Flush()
	}
	return nil
}

// WriteString writes s byte by byte, flushing after the last byte when
// flush is set.
func (c *ByteChannel) WriteString(s string, flush bool) error {
	for i := 0; i < len(s); i++ {
		if err := c.Write(s[i], flush && i == len(s)-1); err != nil {
			return err
		}
	}
	return nil
}

type readWaiter struct {
	ready <-chan struct{}
	timer *time.Timer
}

func (c *ByteChannel) waiter() *readWaiter {
	r, ok := c.t.(Readable)
	if !ok {
		return &readWaiter{}
	}
	return &readWaiter{ready: r.Readable()}
}

// idle yields until data may have arrived or the poll interval passed.
func (w *readWaiter) idle() {
	if w.ready == nil {
		runtime.Gosched()
		return
	}
	if w.timer == nil {
		w.timer = time.NewTimer(pollInterval)
	} else {
		w.timer.Reset(pollInterval)
	}
	select {
	case <-w.ready:
		w.timer.Stop()
	case <-w.timer.C:
	}
}

func (w *readWaiter) stop() {
	if w.timer != nil {
		w.timer.Stop()
	}
}
