// ABOUTME: Blocking PCM ring buffer between a push writer and a pull callback
// ABOUTME: Writers block while full; readers zero-fill on underrun
package output

import (
	"errors"
	"sync"
)

// errRingClosed is returned by Write after the ring was closed or failed
var errRingClosed = errors.New("ring buffer closed")

// RingBuffer provides a thread-safe circular byte buffer for PCM data.
// Write blocks while the buffer is full, which turns the pull-driven server
// callback into backpressure on the writer. Reads only ever take whole
// units of align bytes, so samples are never split across reads.
type RingBuffer struct {
	buffer   []byte
	readPos  int
	writePos int
	size     int
	count    int // Number of bytes currently in buffer
	align    int

	draining bool
	err      error

	mu   sync.Mutex
	cond *sync.Cond
}

// NewRingBuffer creates a ring buffer with given capacity (in bytes)
func NewRingBuffer(capacity int) *RingBuffer {
	return NewAlignedRingBuffer(capacity, 1)
}

// NewAlignedRingBuffer creates a ring buffer read in units of align bytes.
// The capacity is rounded down to a multiple of align.
func NewAlignedRingBuffer(capacity, align int) *RingBuffer {
	if align < 1 {
		align = 1
	}
	capacity -= capacity % align
	if capacity < align {
		capacity = align
	}
	rb := &RingBuffer{
		buffer: make([]byte, capacity),
		size:   capacity,
		align:  align,
	}
	rb.cond = sync.NewCond(&rb.mu)
	return rb
}

// Write copies all of data into the buffer, blocking while it is full.
func (rb *RingBuffer) Write(data []byte) error {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	for len(data) > 0 {
		for rb.count == rb.size && rb.err == nil {
			rb.cond.Wait()
		}
		if rb.err != nil {
			return rb.err
		}

		n := rb.size - rb.count
		if n > len(data) {
			n = len(data)
		}
		for i := 0; i < n; i++ {
			rb.buffer[rb.writePos] = data[i]
			rb.writePos = (rb.writePos + 1) % rb.size
		}
		rb.count += n
		data = data[n:]
		rb.cond.Broadcast()
	}
	return nil
}

// Read fills p from the buffer without blocking. Only whole units of align
// bytes are consumed; on underrun the rest of p is zero-filled (silence).
// After Drain, reads return only buffered units, and ok is false once fewer
// than align bytes are left. A partial trailing unit is discarded.
func (rb *RingBuffer) Read(p []byte) (n int, ok bool) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.count < rb.align && (rb.draining || rb.err != nil) {
		rb.discard()
		return 0, false
	}

	want := rb.count
	if want > len(p) {
		want = len(p)
	}
	want -= want % rb.align

	for n < want {
		p[n] = rb.buffer[rb.readPos]
		rb.readPos = (rb.readPos + 1) % rb.size
		rb.count--
		n++
	}
	if n > 0 {
		rb.cond.Broadcast()
	}

	if rb.draining {
		return n, true
	}

	// Zero-fill remaining if underrun
	for i := n; i < len(p); i++ {
		p[i] = 0
	}
	return len(p), true
}

// discard drops buffered bytes (must hold rb.mu)
func (rb *RingBuffer) discard() {
	rb.readPos, rb.writePos, rb.count = 0, 0, 0
	rb.cond.Broadcast()
}

// Reset discards buffered data
func (rb *RingBuffer) Reset() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.discard()
}

// Drain marks the end of data: readers get the remaining bytes, then end.
func (rb *RingBuffer) Drain() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.draining = true
	rb.cond.Broadcast()
}

// Fail wakes blocked writers and makes further writes return err
func (rb *RingBuffer) Fail(err error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	if err == nil {
		err = errRingClosed
	}
	if rb.err == nil {
		rb.err = err
	}
	rb.cond.Broadcast()
}

// Available returns the number of bytes available to read
func (rb *RingBuffer) Available() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

// Free returns the number of free bytes in the buffer
func (rb *RingBuffer) Free() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.size - rb.count
}
