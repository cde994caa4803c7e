// Package hostlink carries bytes between the probe and its host: a byte
// channel with blocking and tick-bounded reads over a pluggable transport.
package hostlink

import (
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"
)

var (
	// ErrTimeout is returned by a bounded read that saw no data in time.
	ErrTimeout = errors.New("hostlink: read timeout")
	// ErrClosed is returned once the transport has been closed.
	ErrClosed = errors.New("hostlink: transport closed")
)

// Transport is the byte-level link under a ByteChannel.
type Transport interface {
	// Buffered returns the number of bytes that can be read without blocking.
	Buffered() int

	// ReadByte blocks until a byte is available.
	ReadByte() (byte, error)

	// WriteByte queues one byte for transmission.
	WriteByte(c byte) error

	// Flush blocks until every queued byte has been transmitted.
	Flush() error
}

// Readable is implemented by transports that can wake a waiting reader.
// The channel is coalesced: a receive means "check Buffered again".
type Readable interface {
	Readable() <-chan struct{}
}

// Failer is implemented by transports that can report a dead link
// without a blocking read.
type Failer interface {
	// Err returns the error that ended the link once no buffered bytes
	// remain, or nil while the link is up.
	Err() error
}

// Flusher is implemented by underlying streams with their own output
// buffering.
type Flusher interface {
	Flush() error
}

// StreamConfig tunes a StreamTransport.
type StreamConfig struct {
	// BufferSize is the capacity of each of the RX and TX rings.
	BufferSize int

	// ReadTimeout must be set when the stream's Read already returns after
	// a timeout (serial ports opened with a read timeout). Timeouts and
	// zero-length reads are then treated as idle instead of end of stream.
	ReadTimeout bool
}

// DefaultBufferSize is the ring size used when StreamConfig leaves it zero.
const DefaultBufferSize = 256

// StreamTransport adapts an io.ReadWriteCloser to Transport. A reader goroutine
// fills the RX ring and a writer goroutine drains the TX ring, the way a
// UART driver's interrupt handler would.
type StreamTransport struct {
	rw  io.ReadWriteCloser
	cfg StreamConfig

	rx      *Fifo
	rxReady chan struct{}
	rxDone  chan struct{}
	rxErr   error

	tx      *Fifo
	mu      sync.Mutex
	cond    *sync.Cond
	writing bool
	txErr   error
	closed  bool

	overruns  uint32 // atomic, bytes dropped on a full RX ring
	stop      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewStreamTransport starts the I/O goroutines for rw. rw.Close must
// unblock a pending Read so Close can stop the reader.
func NewStreamTransport(rw io.ReadWriteCloser, cfg StreamConfig) *StreamTransport {
	if cfg.BufferSize <= 1 {
		cfg.BufferSize = DefaultBufferSize
	}
	t := &StreamTransport{
		rw:      rw,
		cfg:     cfg,
		rx:      NewFifo(cfg.BufferSize),
		rxReady: make(chan struct{}, 1),
		rxDone:  make(chan struct{}),
		tx:      NewFifo(cfg.BufferSize),
		stop:    make(chan struct{}),
	}
	t.cond = sync.NewCond(&t.mu)

	t.wg.Add(2)
	go t.readLoop()
	go t.writeLoop()
	return t
}

// Buffered returns the number of received bytes waiting to be read.
func (t *StreamTransport) Buffered() int {
	return t.rx.Available()
}

// Readable returns the coalesced data-arrival signal.
func (t *StreamTransport) Readable() <-chan struct{} {
	return t.rxReady
}

// ReadByte blocks until a byte arrives. Bytes already received are still
// delivered after the stream ends; then the stream error is returned.
func (t *StreamTransport) ReadByte() (byte, error) {
	for {
		if b, ok := t.rx.ReadByte(); ok {
			return b, nil
		}
		select {
		case <-t.rxReady:
		case <-t.rxDone:
			if b, ok := t.rx.ReadByte(); ok {
				return b, nil
			}
			return 0, t.rxErr
		case <-t.stop:
			return 0, ErrClosed
		}
	}
}

// WriteByte queues c, waiting for room if the TX ring is full.
func (t *StreamTransport) WriteByte(c byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for {
		if t.closed {
			return ErrClosed
		}
		if t.txErr != nil {
			return t.txErr
		}
		if t.tx.Write([]byte{c}) == 1 {
			t.cond.Broadcast()
			return nil
		}
		t.cond.Wait()
	}
}

// Flush waits until the writer goroutine has handed every queued byte to
// the stream, then flushes the stream itself if it buffers.
func (t *StreamTransport) Flush() error {
	t.mu.Lock()
	for (!t.tx.IsEmpty() || t.writing) && !t.closed && t.txErr == nil {
		t.cond.Wait()
	}
	closed, err := t.closed, t.txErr
	t.mu.Unlock()

	if err != nil {
		return err
	}
	if closed {
		return ErrClosed
	}
	if f, ok := t.rw.(Flusher); ok {
		return f.Flush()
	}
	return nil
}

// Err returns the stream error once the reader has stopped and every
// received byte has been read.
func (t *StreamTransport) Err() error {
	select {
	case <-t.rxDone:
		if t.rx.IsEmpty() {
			return t.rxErr
		}
	default:
	}
	return nil
}

// Overruns returns the number of received bytes dropped on a full ring.
func (t *StreamTransport) Overruns() uint32 {
	return atomic.LoadUint32(&t.overruns)
}

// Close closes the stream and waits for the I/O goroutines to stop.
func (t *StreamTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.closed = true
		t.cond.Broadcast()
		t.mu.Unlock()
		close(t.stop)

		err = t.rw.Close()
		t.wg.Wait()
	})
	return err
}

func (t *StreamTransport) readLoop() {
	defer t.wg.Done()
	defer close(t.rxDone)

	buf := make([]byte, 64)
	for {
		select {
		case <-t.stop:
			t.rxErr = ErrClosed
			return
		default:
		}

		n, err := t.rw.Read(buf)
		if n > 0 {
			if w := t.rx.Write(buf[:n]); w < n {
				atomic.AddUint32(&t.overruns, uint32(n-w))
			}
			select {
			case t.rxReady <- struct{}{}:
			default:
			}
		}
		if err == nil {
			continue
		}
		if t.cfg.ReadTimeout && (err == io.EOF || os.IsTimeout(err)) {
			continue
		}
		select {
		case <-t.stop:
			t.rxErr = ErrClosed
		default:
			t.rxErr = err
		}
		return
	}
}

func (t *StreamTransport) writeLoop() {
	defer t.wg.Done()

	chunk := make([]byte, 64)
	for {
		t.mu.Lock()
		for t.tx.IsEmpty() && !t.closed {
			t.cond.Wait()
		}
		if t.closed {
			t.mu.Unlock()
			return
		}
		n := t.tx.Read(chunk)
		t.writing = true
		t.cond.Broadcast() // room in the ring
		t.mu.Unlock()

		_, err := t.rw.Write(chunk[:n])

		t.mu.Lock()
		t.writing = false
		if err != nil && t.txErr == nil {
			t.txErr = err
		}
		t.cond.Broadcast()
		t.mu.Unlock()

		if err != nil {
			return
		}
	}
}
