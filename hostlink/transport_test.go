package hostlink

import (
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"launchprobe/core"
)

func newPipeTransport(t *testing.T) (*StreamTransport, net.Conn) {
	t.Helper()
	local, peer := net.Pipe()
	tr := NewStreamTransport(local, StreamConfig{BufferSize: 16})
	t.Cleanup(func() {
		tr.Close()
		peer.Close()
	})
	return tr, peer
}

func waitBuffered(t *testing.T, tr *StreamTransport, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return tr.Buffered() >= n },
		2*time.Second, time.Millisecond, "expected %d buffered bytes", n)
}

func TestStreamTransportReceive(t *testing.T) {
	tr, peer := newPipeTransport(t)

	go peer.Write([]byte("hi"))
	waitBuffered(t, tr, 2)

	b, err := tr.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte('h'), b)

	b, err = tr.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte('i'), b)
	require.Zero(t, tr.Buffered())
}

func TestStreamTransportReadByteBlocks(t *testing.T) {
	tr, peer := newPipeTransport(t)

	got := make(chan byte, 1)
	go func() {
		b, err := tr.ReadByte()
		if err == nil {
			got <- b
		}
	}()

	select {
	case <-got:
		t.Fatal("ReadByte returned before data arrived")
	case <-time.After(20 * time.Millisecond):
	}

	_, err := peer.Write([]byte{0x7E})
	require.NoError(t, err)

	select {
	case b := <-got:
		require.Equal(t, byte(0x7E), b)
	case <-time.After(2 * time.Second):
		t.Fatal("ReadByte did not wake up")
	}
}

func TestStreamTransportWriteFlush(t *testing.T) {
	tr, peer := newPipeTransport(t)

	var (
		mu       sync.Mutex
		received []byte
	)
	go func() {
		buf := make([]byte, 8)
		for {
			n, err := peer.Read(buf)
			mu.Lock()
			received = append(received, buf[:n]...)
			mu.Unlock()
			if err != nil {
				return
			}
		}
	}()

	for _, c := range []byte("$OK#9a") {
		require.NoError(t, tr.WriteByte(c))
	}
	require.NoError(t, tr.Flush())

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return string(received) == "$OK#9a"
	}, 2*time.Second, time.Millisecond)
}

func TestStreamTransportWriteLargerThanRing(t *testing.T) {
	tr, peer := newPipeTransport(t)

	payload := make([]byte, 100)
	for i := range payload {
		payload[i] = byte(i)
	}

	done := make(chan []byte, 1)
	go func() {
		buf := make([]byte, len(payload))
		_, err := io.ReadFull(peer, buf)
		if err == nil {
			done <- buf
		}
	}()

	for _, c := range payload {
		require.NoError(t, tr.WriteByte(c))
	}
	require.NoError(t, tr.Flush())

	select {
	case got := <-done:
		require.Equal(t, payload, got)
	case <-time.After(2 * time.Second):
		t.Fatal("peer did not receive payload")
	}
}

func TestStreamTransportPeerClosed(t *testing.T) {
	tr, peer := newPipeTransport(t)

	_, err := peer.Write([]byte{'z'})
	require.NoError(t, err)
	waitBuffered(t, tr, 1)
	require.NoError(t, peer.Close())

	b, err := tr.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte('z'), b)

	_, err = tr.ReadByte()
	require.ErrorIs(t, err, io.EOF)
}

func TestStreamTransportClose(t *testing.T) {
	tr, _ := newPipeTransport(t)

	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())

	_, err := tr.ReadByte()
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, tr.WriteByte('a'), ErrClosed)
	require.ErrorIs(t, tr.Flush(), ErrClosed)
}

// timeoutStream returns (0, io.EOF) like a serial port opened with a read
// timeout, then serves its data once.
type timeoutStream struct {
	mu      sync.Mutex
	idle    int
	data    []byte
	closed  bool
	written []byte
}

func (s *timeoutStream) Read(p []byte) (int, error) {
	time.Sleep(time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errors.New("closed")
	}
	if s.idle > 0 {
		s.idle--
		return 0, io.EOF
	}
	n := copy(p, s.data)
	s.data = s.data[n:]
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

func (s *timeoutStream) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.written = append(s.written, p...)
	return len(p), nil
}

func (s *timeoutStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func TestStreamTransportReadTimeoutStream(t *testing.T) {
	stream := &timeoutStream{idle: 3, data: []byte{'g'}}
	tr := NewStreamTransport(stream, StreamConfig{ReadTimeout: true})
	defer tr.Close()

	b, err := tr.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte('g'), b)
}

func TestByteChannelOverStream(t *testing.T) {
	tr, peer := newPipeTransport(t)
	log := core.NewEventLog()
	cd := core.NewCountdown(log)
	ch := NewByteChannel(tr, cd, log)

	_, err := ch.ReadTimeout(0)
	require.ErrorIs(t, err, ErrTimeout)

	go peer.Write([]byte{'+'})
	waitBuffered(t, tr, 1)

	b, err := ch.ReadTimeout(0)
	require.NoError(t, err)
	require.Equal(t, byte('+'), b)
}

func TestByteChannelWaitsForReadable(t *testing.T) {
	tr, peer := newPipeTransport(t)
	cd := core.NewCountdown(nil)
	ch := NewByteChannel(tr, cd, nil)

	go func() {
		time.Sleep(30 * time.Millisecond)
		peer.Write([]byte{'!'})
	}()

	// Nothing ticks, so only arriving data can end this read.
	b, err := ch.ReadTimeout(500)
	require.NoError(t, err)
	require.Equal(t, byte('!'), b)
	require.Equal(t, uint32(5), cd.Remaining())
}

func TestStreamTransportErrAfterDrain(t *testing.T) {
	tr, peer := newPipeTransport(t)
	require.NoError(t, tr.Err())

	_, err := peer.Write([]byte{'q'})
	require.NoError(t, err)
	waitBuffered(t, tr, 1)
	require.NoError(t, peer.Close())

	// The pending byte is still readable, so the link is not dead yet.
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, tr.Err())

	_, err = tr.ReadByte()
	require.NoError(t, err)
	require.Eventually(t, func() bool { return errors.Is(tr.Err(), io.EOF) },
		2*time.Second, time.Millisecond)
}

func TestByteChannelReportsDeadLink(t *testing.T) {
	tr, peer := newPipeTransport(t)
	cd := core.NewCountdown(nil)
	ch := NewByteChannel(tr, cd, nil)

	go func() {
		time.Sleep(20 * time.Millisecond)
		peer.Close()
	}()

	// Nothing ticks; only the dead link can end this read.
	_, err := ch.ReadTimeout(1000)
	require.ErrorIs(t, err, io.EOF)
}

// blockingStream blocks in Read until it is closed, like a serial port
// opened without a read timeout.
type blockingStream struct {
	closed    chan struct{}
	closeOnce sync.Once
}

func (s *blockingStream) Read(p []byte) (int, error) {
	<-s.closed
	return 0, io.ErrClosedPipe
}

func (s *blockingStream) Write(p []byte) (int, error) {
	return len(p), nil
}

func (s *blockingStream) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}

func TestStreamTransportCloseUnblocksReader(t *testing.T) {
	tr := NewStreamTransport(&blockingStream{closed: make(chan struct{})}, StreamConfig{})

	done := make(chan error, 1)
	go func() { done <- tr.Close() }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return while the reader was blocked")
	}
	require.ErrorIs(t, tr.Err(), ErrClosed)
}
