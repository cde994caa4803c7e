package mirror

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"launchprobe/core"
)

// DefaultQueueSize bounds changes waiting to be published.
const DefaultQueueSize = 64

// Driver wraps a core.GPIODriver and queues every level change for
// publishing. SetPin runs in the tick context, so it never waits on the
// broker: when the queue is full the change is dropped and counted.
type Driver struct {
	inner  core.GPIODriver
	pub    Publisher
	prefix string
	names  map[core.GPIOPin]string
	clock  func() time.Time

	mu     sync.Mutex
	levels map[core.GPIOPin]bool

	queue    chan Change
	dropped  uint32
	failures uint32
}

// Config tunes a Driver.
type Config struct {
	Prefix    string
	Names     map[core.GPIOPin]string
	QueueSize int
	Clock     func() time.Time
}

// NewDriver creates a mirroring driver. Call Run to start publishing.
func NewDriver(inner core.GPIODriver, pub Publisher, cfg Config) *Driver {
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultTopic
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Names == nil {
		cfg.Names = make(map[core.GPIOPin]string)
	}
	return &Driver{
		inner:  inner,
		pub:    pub,
		prefix: cfg.Prefix,
		names:  cfg.Names,
		clock:  cfg.Clock,
		levels: make(map[core.GPIOPin]bool),
		queue:  make(chan Change, cfg.QueueSize),
	}
}

// ConfigureOutput configures pin on the wrapped driver.
func (d *Driver) ConfigureOutput(pin core.GPIOPin) error {
	return d.inner.ConfigureOutput(pin)
}

// SetPin drives pin and queues the change if the level moved.
func (d *Driver) SetPin(pin core.GPIOPin, value bool) error {
	if err := d.inner.SetPin(pin, value); err != nil {
		return err
	}

	d.mu.Lock()
	old, seen := d.levels[pin]
	d.levels[pin] = value
	d.mu.Unlock()
	if seen && old == value {
		return nil
	}

	c := Change{Timestamp: d.clock(), Name: d.name(pin), Pin: pin, Level: value}
	select {
	case d.queue <- c:
	default:
		atomic.AddUint32(&d.dropped, 1)
	}
	return nil
}

// GetPin reads pin from the wrapped driver.
func (d *Driver) GetPin(pin core.GPIOPin) (bool, error) {
	return d.inner.GetPin(pin)
}

func (d *Driver) name(pin core.GPIOPin) string {
	if n, ok := d.names[pin]; ok {
		return n
	}
	return "pin" + core.Utoa(uint32(pin))
}

// Run publishes queued changes until ctx is done. Changes still queued
// when ctx ends are published before Run returns.
func (d *Driver) Run(ctx context.Context) {
	if err := d.pub.Publish(StatusTopic(d.prefix), []byte("online"), true); err != nil {
		glog.Warningf("mirror: publish status: %v", err)
	}

	for {
		select {
		case c := <-d.queue:
			d.publish(c)
		case <-ctx.Done():
			for {
				select {
				case c := <-d.queue:
					d.publish(c)
				default:
					return
				}
			}
		}
	}
}

func (d *Driver) publish(c Change) {
	payload, err := FormatPayload(c)
	if err != nil {
		atomic.AddUint32(&d.failures, 1)
		glog.Errorf("mirror: format %s: %v", c.Name, err)
		return
	}
	if err := d.pub.Publish(IndicatorTopic(d.prefix, c.Name), payload, true); err != nil {
		atomic.AddUint32(&d.failures, 1)
		glog.Warningf("mirror: publish %s: %v", c.Name, err)
		return
	}
	glog.V(2).Infof("mirror: %s=%v", c.Name, c.Level)
}

// PublishCommand publishes a console command. It blocks on the broker and
// must not be called from the tick context.
func (d *Driver) PublishCommand(name, arg string) error {
	payload, err := FormatCommandPayload(d.clock(), name, arg)
	if err != nil {
		return err
	}
	return d.pub.Publish(CommandTopic(d.prefix), payload, false)
}

// Dropped returns changes discarded on a full queue.
func (d *Driver) Dropped() uint32 {
	return atomic.LoadUint32(&d.dropped)
}

// Failures returns changes the publisher rejected.
func (d *Driver) Failures() uint32 {
	return atomic.LoadUint32(&d.failures)
}
