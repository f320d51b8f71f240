// ABOUTME: Tests for the blocking PCM ring buffer
// ABOUTME: Tests underrun fill, writer backpressure, drain and failure
package output

import (
	"errors"
	"testing"
	"time"
)

func TestRingBufferReadWrite(t *testing.T) {
	rb := NewRingBuffer(8)

	if err := rb.Write([]byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if rb.Available() != 4 || rb.Free() != 4 {
		t.Errorf("expected 4 available and 4 free, got %d and %d", rb.Available(), rb.Free())
	}

	buf := make([]byte, 4)
	n, ok := rb.Read(buf)
	if !ok || n != 4 {
		t.Fatalf("expected 4 bytes, got n=%d ok=%v", n, ok)
	}
	if string(buf) != string([]byte{1, 2, 3, 4}) {
		t.Errorf("unexpected data %v", buf)
	}
}

func TestRingBufferUnderrunZeroFills(t *testing.T) {
	rb := NewRingBuffer(8)
	rb.Write([]byte{9, 9})

	buf := []byte{7, 7, 7, 7, 7, 7}
	n, ok := rb.Read(buf)
	if !ok || n != len(buf) {
		t.Fatalf("expected full read with silence, got n=%d ok=%v", n, ok)
	}
	want := []byte{9, 9, 0, 0, 0, 0}
	if string(buf) != string(want) {
		t.Errorf("expected %v, got %v", want, buf)
	}
}

func TestRingBufferWrapAround(t *testing.T) {
	rb := NewRingBuffer(4)
	buf := make([]byte, 3)

	rb.Write([]byte{1, 2, 3})
	rb.Read(buf)
	rb.Write([]byte{4, 5, 6})

	n, _ := rb.Read(buf)
	if n != 3 || string(buf) != string([]byte{4, 5, 6}) {
		t.Errorf("expected wrapped data [4 5 6], got %v", buf[:n])
	}
}

func TestRingBufferWriteBlocksUntilRead(t *testing.T) {
	rb := NewRingBuffer(4)
	rb.Write([]byte{1, 2, 3, 4})

	done := make(chan error, 1)
	go func() {
		done <- rb.Write([]byte{5, 6})
	}()

	select {
	case <-done:
		t.Fatal("expected Write to block while buffer is full")
	case <-time.After(50 * time.Millisecond):
	}

	rb.Read(make([]byte, 2))

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("expected Write to resume after Read")
	}
}

func TestRingBufferFailUnblocksWriter(t *testing.T) {
	rb := NewRingBuffer(2)
	rb.Write([]byte{1, 2})

	failure := errors.New("stream failed")
	done := make(chan error, 1)
	go func() {
		done <- rb.Write([]byte{3})
	}()

	time.Sleep(20 * time.Millisecond)
	rb.Fail(failure)

	select {
	case err := <-done:
		if !errors.Is(err, failure) {
			t.Errorf("expected %v, got %v", failure, err)
		}
	case <-time.After(time.Second):
		t.Fatal("expected Fail to wake the writer")
	}

	if err := rb.Write([]byte{4}); !errors.Is(err, failure) {
		t.Errorf("expected later writes to fail, got %v", err)
	}
}

func TestRingBufferDrain(t *testing.T) {
	rb := NewRingBuffer(8)
	rb.Write([]byte{1, 2})
	rb.Drain()

	buf := make([]byte, 4)
	n, ok := rb.Read(buf)
	if !ok || n != 2 {
		t.Fatalf("expected remaining 2 bytes without padding, got n=%d ok=%v", n, ok)
	}

	if _, ok := rb.Read(buf); ok {
		t.Error("expected end of data once drained buffer is empty")
	}
}

func TestRingBufferReset(t *testing.T) {
	rb := NewRingBuffer(8)
	rb.Write([]byte{1, 2, 3})
	rb.Reset()

	if rb.Available() != 0 {
		t.Errorf("expected empty buffer after Reset, got %d bytes", rb.Available())
	}
}

func TestAlignedRingBufferCapacity(t *testing.T) {
	tests := []struct {
		capacity int
		align    int
		want     int
	}{
		{11025, 2, 11024},
		{8, 4, 8},
		{7, 4, 4},
		{1, 4, 4},
		{5, 0, 5},
	}

	for _, tt := range tests {
		rb := NewAlignedRingBuffer(tt.capacity, tt.align)
		if rb.Free() != tt.want {
			t.Errorf("NewAlignedRingBuffer(%d, %d) capacity = %d, want %d", tt.capacity, tt.align, rb.Free(), tt.want)
		}
	}
}

func TestAlignedRingBufferReadsWholeSamples(t *testing.T) {
	rb := NewAlignedRingBuffer(8, 2)
	rb.Write([]byte{1, 2, 3})

	buf := make([]byte, 4)
	n, ok := rb.Read(buf)
	if !ok || n != 4 {
		t.Fatalf("expected padded read, got n=%d ok=%v", n, ok)
	}
	if string(buf) != string([]byte{1, 2, 0, 0}) {
		t.Errorf("expected only the whole sample, got %v", buf)
	}
	if rb.Available() != 1 {
		t.Fatalf("expected the odd byte to stay buffered, got %d", rb.Available())
	}

	rb.Write([]byte{4})
	n, _ = rb.Read(buf)
	if n != 4 || buf[0] != 3 || buf[1] != 4 {
		t.Errorf("expected sample [3 4] to stay intact, got %v", buf)
	}
}

func TestAlignedRingBufferDrainDropsPartialSample(t *testing.T) {
	rb := NewAlignedRingBuffer(8, 2)
	rb.Write([]byte{1, 2, 3})
	rb.Drain()

	buf := make([]byte, 4)
	n, ok := rb.Read(buf)
	if !ok || n != 2 {
		t.Fatalf("expected one whole sample, got n=%d ok=%v", n, ok)
	}

	if _, ok := rb.Read(buf); ok {
		t.Error("expected end of data with only a partial sample left")
	}
	if rb.Available() != 0 {
		t.Errorf("expected partial sample to be discarded, got %d bytes", rb.Available())
	}
}
