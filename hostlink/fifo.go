package hostlink

import "sync"

// Fifo is a circular byte buffer shared between a transport's I/O goroutine
// and its consumer. One slot is kept free to tell full from empty.
type Fifo struct {
	mu    sync.Mutex
	buf   []byte
	read  int
	write int
	size  int
}

// NewFifo creates a Fifo that holds up to capacity-1 bytes.
func NewFifo(capacity int) *Fifo {
	return &Fifo{
		buf:  make([]byte, capacity),
		size: capacity,
	}
}

// Write appends as much of data as fits and returns the count written.
func (f *Fifo) Write(data []byte) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	written := 0
	for _, b := range data {
		nextWrite := (f.write + 1) % f.size
		if nextWrite == f.read {
			// Buffer full
			break
		}
		f.buf[f.write] = b
		f.write = nextWrite
		written++
	}
	return written
}

// Read moves up to len(data) bytes out of the buffer.
func (f *Fifo) Read(data []byte) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	read := 0
	for i := range data {
		if f.read == f.write {
			break
		}
		data[i] = f.buf[f.read]
		f.read = (f.read + 1) % f.size
		read++
	}
	return read
}

// ReadByte removes one byte. ok is false when the buffer is empty.
func (f *Fifo) ReadByte() (b byte, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.read == f.write {
		return 0, false
	}
	b = f.buf[f.read]
	f.read = (f.read + 1) % f.size
	return b, true
}

// Available returns the number of bytes available for reading
func (f *Fifo) Available() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.available()
}

func (f *Fifo) available() int {
	if f.write >= f.read {
		return f.write - f.read
	}
	return f.size - f.read + f.write
}

// Free returns the number of bytes available for writing
func (f *Fifo) Free() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.size - f.available() - 1
}

// IsEmpty returns true if the buffer is empty
func (f *Fifo) IsEmpty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read == f.write
}

// Reset discards all buffered bytes
func (f *Fifo) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.read = 0
	f.write = 0
}
