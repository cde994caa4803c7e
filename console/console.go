// Package console is a small line-oriented command console served over the
// probe's host byte channel. It lets an operator drive the indicators and
// inspect the tick state without the debug protocol.
package console

import (
	"context"
	"errors"
	"strings"

	"launchprobe/core"
	"launchprobe/hostlink"
)

// MaxLine is the longest command accepted; extra bytes are dropped.
const MaxLine = 80

// DefaultIdleTimeoutMS is used when Config leaves IdleTimeoutMS zero.
const DefaultIdleTimeoutMS = 500

// Config tunes the console.
type Config struct {
	// IdleTimeoutMS bounds each byte read so Serve can notice ctx ending.
	IdleTimeoutMS uint32
	// Banner is written once when Serve starts; empty disables it.
	Banner string
	// Echo writes received characters back to the host.
	Echo bool
	// Notify, if set, is called after a command that changed what the
	// probe signals (run, idle, morse, beacon, stop, lost) succeeds.
	Notify func(cmd, arg string)
}

// Console reads command lines from a ByteChannel and runs them against a
// Platform.
type Console struct {
	ch   *hostlink.ByteChannel
	p    *core.Platform
	cfg  Config
	line []byte
}

// New creates a console.
func New(ch *hostlink.ByteChannel, p *core.Platform, cfg Config) *Console {
	if cfg.IdleTimeoutMS == 0 {
		cfg.IdleTimeoutMS = DefaultIdleTimeoutMS
	}
	return &Console{ch: ch, p: p, cfg: cfg, line: make([]byte, 0, MaxLine)}
}

// Serve processes input until ctx is done or the channel fails.
func (c *Console) Serve(ctx context.Context) error {
	if c.cfg.Banner != "" {
		if err := c.reply(c.cfg.Banner); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		b, err := c.ch.ReadTimeout(c.cfg.IdleTimeoutMS)
		if errors.Is(err, hostlink.ErrTimeout) {
			continue
		}
		if err != nil {
			return err
		}
		if err := c.feed(ctx, b); err != nil {
			return err
		}
	}
}

// feed handles one received byte.
func (c *Console) feed(ctx context.Context, b byte) error {
	switch b {
	case '\r', '\n':
		if c.cfg.Echo {
			if err := c.ch.WriteString("\r\n", true); err != nil {
				return err
			}
		}
		if len(c.line) == 0 {
			return nil
		}
		line := string(c.line)
		c.line = c.line[:0]
		return c.reply(c.Execute(ctx, line))
	case 0x08, 0x7F: // backspace, delete
		if len(c.line) > 0 {
			c.line = c.line[:len(c.line)-1]
			if c.cfg.Echo {
				return c.ch.WriteString("\b \b", true)
			}
		}
		return nil
	}

	if len(c.line) >= MaxLine {
		return nil
	}
	c.line = append(c.line, b)
	if c.cfg.Echo {
		return c.ch.Write(b, true)
	}
	return nil
}

func (c *Console) reply(s string) error {
	return c.ch.WriteString(s+"\r\n", true)
}

// Execute runs one command line and returns the reply text.
func (c *Console) Execute(ctx context.Context, line string) string {
	line = strings.TrimSpace(line)
	cmd, arg := line, ""
	if i := strings.IndexByte(line, ' '); i >= 0 {
		cmd, arg = line[:i], strings.TrimSpace(line[i+1:])
	}
	core.DebugAsync("[CONSOLE] " + line)

	cmd = strings.ToLower(cmd)
	reply := c.execute(ctx, cmd, arg)
	if c.cfg.Notify != nil && notifies(cmd) && !strings.HasPrefix(reply, "ERR") {
		c.cfg.Notify(cmd, arg)
	}
	return reply
}

func notifies(cmd string) bool {
	switch cmd {
	case "run", "idle", "morse", "beacon", "stop", "lost":
		return true
	}
	return false
}

func (c *Console) execute(ctx context.Context, cmd, arg string) string {
	switch cmd {
	case "help", "?":
		return "commands: run idle led on|off morse TEXT beacon TEXT stop lost delay MS status events"

	case "run":
		c.p.SetRunning(true)
		return "OK"

	case "idle":
		c.p.SetRunning(false)
		return "OK"

	case "led":
		switch strings.ToLower(arg) {
		case "on", "1":
			c.p.Heartbeat.SetLevel(true)
		case "off", "0":
			c.p.Heartbeat.SetLevel(false)
		default:
			return "ERR led needs on or off"
		}
		return "OK"

	case "morse", "beacon":
		if arg == "" {
			return "ERR " + cmd + " needs text"
		}
		c.p.Signal(arg, cmd == "beacon")
		return "OK"

	case "stop":
		c.p.Morse.Stop()
		return "OK"

	case "lost":
		if c.p.FatalError() {
			return "LOST running"
		}
		return "LOST idle"

	case "delay":
		ms, ok := core.Atou(arg)
		if !ok {
			return "ERR delay needs milliseconds"
		}
		if err := c.p.Delay(ctx, core.MsToTicks(ms)); err != nil {
			return "ERR " + err.Error()
		}
		return "OK"

	case "status":
		return c.status()

	case "events":
		var sb strings.Builder
		c.p.Events.Dump(func(s string) {
			if sb.Len() > 0 {
				sb.WriteString("\r\n")
			}
			sb.WriteString(s)
		})
		return sb.String()
	}

	return "ERR unknown command " + cmd
}

func (c *Console) status() string {
	msg, repeat := c.p.Morse.Message()

	var sb strings.Builder
	sb.WriteString("ticks=" + core.Utoa(c.p.Scheduler.Ticks()))
	sb.WriteString(" running=" + flag(c.p.Heartbeat.Running()))
	sb.WriteString(" run_led=" + flag(c.p.RunLED.Level()))
	sb.WriteString(" error_led=" + flag(c.p.ErrorLED.Level()))
	sb.WriteString(" countdown=" + core.Utoa(c.p.Countdown.Remaining()))
	if msg != "" {
		sb.WriteString(" signal=\"" + msg + "\" repeat=" + flag(repeat))
	}
	return sb.String()
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
