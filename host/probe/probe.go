// Package probe is the host-side client of the probe console. It sends
// command lines over the serial link and collects the reply lines.
package probe

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"launchprobe/host/serial"
	"launchprobe/hostlink"
)

// ReplyGap is how long Command keeps listening after a reply line for
// further lines of the same reply.
const ReplyGap = 50 * time.Millisecond

// ErrNotConnected is returned by Command before Connect.
var ErrNotConnected = errors.New("not connected to probe")

// Probe represents a connection to a probe console
type Probe struct {
	// Transport layer
	transport *hostlink.StreamTransport

	lines chan string

	// Serializes commands so replies are not interleaved.
	mu sync.Mutex

	// Read by IsConnected without mu while a command may be in flight.
	connected atomic.Bool
}

// New creates a new Probe instance (not yet connected)
func New() *Probe {
	return &Probe{}
}

// Connect connects to a probe via serial port
func (p *Probe) Connect(device string) error {
	return p.ConnectWithConfig(serial.DefaultConfig(device))
}

// ConnectWithConfig connects to a probe with a custom serial config
func (p *Probe) ConnectWithConfig(cfg *serial.Config) error {
	port, err := serial.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}
	p.Attach(port, cfg.TimesOut())
	return nil
}

// Attach uses an already open stream. timesOut must be set when idle reads
// on rw return io.EOF.
func (p *Probe) Attach(rw io.ReadWriteCloser, timesOut bool) {
	p.transport = hostlink.NewStreamTransport(rw, hostlink.StreamConfig{ReadTimeout: timesOut})
	p.lines = make(chan string, 64)
	p.connected.Store(true)
	go p.readLines()
}

func (p *Probe) readLines() {
	defer close(p.lines)

	var sb strings.Builder
	for {
		b, err := p.transport.ReadByte()
		if err != nil {
			if !errors.Is(err, hostlink.ErrClosed) {
				glog.Warningf("probe: read: %v", err)
			}
			return
		}
		switch b {
		case '\r':
		case '\n':
			select {
			case p.lines <- sb.String():
			default:
				glog.Warningf("probe: dropping unread line %q", sb.String())
			}
			sb.Reset()
		default:
			sb.WriteByte(b)
		}
	}
}

// Close closes the connection to the probe
func (p *Probe) Close() error {
	if p.transport != nil {
		if err := p.transport.Close(); err != nil {
			return err
		}
	}
	p.connected.Store(false)
	return nil
}

// IsConnected returns whether the probe is connected
func (p *Probe) IsConnected() bool {
	return p.connected.Load()
}

// Command sends one console line and returns the reply lines. It waits up
// to timeout for the first line, then gathers lines until ReplyGap passes
// with nothing new.
func (p *Probe) Command(line string, timeout time.Duration) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.connected.Load() {
		return nil, ErrNotConnected
	}
	p.drain()

	for i := 0; i < len(line); i++ {
		if err := p.transport.WriteByte(line[i]); err != nil {
			return nil, fmt.Errorf("send %q: %w", line, err)
		}
	}
	if err := p.transport.WriteByte('\r'); err != nil {
		return nil, fmt.Errorf("send %q: %w", line, err)
	}
	if err := p.transport.Flush(); err != nil {
		return nil, fmt.Errorf("flush %q: %w", line, err)
	}
	glog.V(2).Infof("probe: sent %q", line)

	var reply []string
	wait := time.NewTimer(timeout)
	defer wait.Stop()
	for {
		select {
		case l, ok := <-p.lines:
			if !ok {
				if len(reply) > 0 {
					return reply, nil
				}
				return nil, hostlink.ErrClosed
			}
			reply = append(reply, l)
			wait.Reset(ReplyGap)
		case <-wait.C:
			if len(reply) == 0 {
				return nil, fmt.Errorf("no reply to %q: %w", line, hostlink.ErrTimeout)
			}
			return reply, nil
		}
	}
}

// drain discards lines nobody asked for, such as the startup banner.
func (p *Probe) drain() {
	for {
		select {
		case l, ok := <-p.lines:
			if !ok {
				return
			}
			glog.V(1).Infof("probe: unsolicited %q", l)
		default:
			return
		}
	}
}
