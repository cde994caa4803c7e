package hostlink

import (
	"errors"
	"sync"
	"testing"
	"time"

	"launchprobe/core"
)

// fakeTransport serves scripted bytes and records writes.
type fakeTransport struct {
	mu       sync.Mutex
	rx       []byte
	tx       []byte
	flushes  int
	polls    int
	onPoll   func(polls int) []byte // bytes to inject on a given poll
	writeErr error
}

func (f *fakeTransport) Buffered() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if f.onPoll != nil {
		f.rx = append(f.rx, f.onPoll(f.polls)...)
	}
	return len(f.rx)
}

func (f *fakeTransport) ReadByte() (byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.rx) == 0 {
		return 0, errors.New("fake: read on empty transport")
	}
	b := f.rx[0]
	f.rx = f.rx[1:]
	return b, nil
}

func (f *fakeTransport) WriteByte(c byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.tx = append(f.tx, c)
	return nil
}

func (f *fakeTransport) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
	return nil
}

func (f *fakeTransport) pollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}

func newTestChannel(ft *fakeTransport) (*ByteChannel, *core.Countdown, *core.EventLog) {
	log := core.NewEventLog()
	cd := core.NewCountdown(log)
	return NewByteChannel(ft, cd, log), cd, log
}

func TestReadTimeoutZeroPollsOnce(t *testing.T) {
	ft := &fakeTransport{}
	ch, _, log := newTestChannel(ft)

	_, err := ch.ReadTimeout(0)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Expected ErrTimeout, got %v", err)
	}
	if ft.pollCount() != 1 {
		t.Errorf("Expected exactly one availability check, got %d", ft.pollCount())
	}

	events := log.Events()
	if last := events[len(events)-1]; last.Type != core.EvtReadTimeout {
		t.Errorf("Expected READ_TIMEOUT event, got %+v", last)
	}
}

func TestReadTimeoutSubTickIsSinglePoll(t *testing.T) {
	ft := &fakeTransport{}
	ch, cd, _ := newTestChannel(ft)

	if _, err := ch.ReadTimeout(core.TickPeriodMS - 1); !errors.Is(err, ErrTimeout) {
		t.Fatalf("Expected ErrTimeout, got %v", err)
	}
	if ft.pollCount() != 1 {
		t.Errorf("Sub-tick timeout should poll once, got %d", ft.pollCount())
	}
	if !cd.Expired() {
		t.Error("Countdown should be left expired")
	}
}

func TestReadTimeoutDataAlreadyAvailable(t *testing.T) {
	ft := &fakeTransport{rx: []byte{0x42}}
	ch, _, _ := newTestChannel(ft)

	b, err := ch.ReadTimeout(0)
	if err != nil {
		t.Fatalf("Expected data, got %v", err)
	}
	if b != 0x42 {
		t.Errorf("Expected 0x42, got 0x%02x", b)
	}
	if ft.pollCount() != 1 {
		t.Errorf("Expected one poll, got %d", ft.pollCount())
	}
}

func TestReadTimeoutByte255IsData(t *testing.T) {
	ft := &fakeTransport{rx: []byte{0xFF}}
	ch, _, _ := newTestChannel(ft)

	b, err := ch.ReadTimeout(0)
	if err != nil || b != 0xFF {
		t.Errorf("Expected 0xFF with no error, got 0x%02x, %v", b, err)
	}
}

func TestReadTimeoutDataArrivesBeforeExpiry(t *testing.T) {
	ft := &fakeTransport{
		onPoll: func(polls int) []byte {
			if polls == 5 {
				return []byte{'x'}
			}
			return nil
		},
	}
	ch, cd, _ := newTestChannel(ft)

	b, err := ch.ReadTimeout(1000)
	if err != nil {
		t.Fatalf("Expected data, got %v", err)
	}
	if b != 'x' {
		t.Errorf("Expected 'x', got %q", b)
	}
	if cd.Remaining() != 10 {
		t.Errorf("No ticks ran, expected 10 remaining, got %d", cd.Remaining())
	}
}

func TestReadTimeoutExpiresWithTicks(t *testing.T) {
	ft := &fakeTransport{}
	ch, cd, log := newTestChannel(ft)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			select {
			case <-stop:
				return
			case <-time.After(time.Millisecond):
				cd.Tick()
			}
		}
	}()

	if _, err := ch.ReadTimeout(300); !errors.Is(err, ErrTimeout) {
		t.Fatalf("Expected ErrTimeout, got %v", err)
	}
	if ft.pollCount() < 2 {
		t.Errorf("Expected repeated polling, got %d polls", ft.pollCount())
	}

	found := false
	for _, evt := range log.Events() {
		if evt.Type == core.EvtReadTimeout && evt.Value1 == 3 {
			found = true
		}
	}
	if !found {
		t.Error("Expected READ_TIMEOUT event for 3 ticks")
	}
}

func TestReadBlocking(t *testing.T) {
	ft := &fakeTransport{rx: []byte{1, 2}}
	ch, _, _ := newTestChannel(ft)

	for _, want := range []byte{1, 2} {
		b, err := ch.ReadBlocking()
		if err != nil || b != want {
			t.Errorf("Expected %d, got %d, %v", want, b, err)
		}
	}
}

func TestWriteFlush(t *testing.T) {
	ft := &fakeTransport{}
	ch, _, _ := newTestChannel(ft)

	if err := ch.Write('a', false); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if ft.flushes != 0 {
		t.Error("Unflushed write should not flush")
	}

	if err := ch.Write('b', true); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if ft.flushes != 1 {
		t.Errorf("Expected one flush, got %d", ft.flushes)
	}

	if err := ch.WriteString("cd", true); err != nil {
		t.Fatalf("WriteString failed: %v", err)
	}
	if string(ft.tx) != "abcd" || ft.flushes != 2 {
		t.Errorf("Expected abcd with 2 flushes, got %q with %d", ft.tx, ft.flushes)
	}
}

func TestWriteError(t *testing.T) {
	ft := &fakeTransport{writeErr: errors.New("tx fault")}
	ch, _, _ := newTestChannel(ft)

	if err := ch.Write('a', true); err == nil {
		t.Error("Expected write error")
	}
	if ft.flushes != 0 {
		t.Error("Failed write should not flush")
	}
}
