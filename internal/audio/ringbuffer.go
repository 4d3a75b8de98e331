package audio

import (
	"errors"
	"sync"
)

// ErrInvalidCapacity is returned for a ring buffer that could hold nothing
var ErrInvalidCapacity = errors.New("ring buffer capacity must be positive")

// RingBuffer is a fixed-capacity store of interleaved samples. When full,
// pushes overwrite the oldest samples.
//
// Push and DrainAll share one mutex. Both only copy memory while holding it,
// so the capture callback never waits longer than one copy.
type RingBuffer struct {
	mu   sync.Mutex
	data []float32
	head int // index of the oldest sample
	size int
}

// NewRingBuffer creates a ring buffer holding at most capacity samples
func NewRingBuffer(capacity int) (*RingBuffer, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &RingBuffer{data: make([]float32, capacity)}, nil
}

// Push appends samples, evicting the oldest ones when capacity is exceeded.
// It does not allocate.
func (rb *RingBuffer) Push(batch []float32) {
	n := len(batch)
	if n == 0 {
		return
	}

	rb.mu.Lock()
	defer rb.mu.Unlock()

	capacity := len(rb.data)

	// Only the tail of an oversized batch can survive
	if n >= capacity {
		copy(rb.data, batch[n-capacity:])
		rb.head = 0
		rb.size = capacity
		return
	}

	tail := (rb.head + rb.size) % capacity
	written := copy(rb.data[tail:], batch)
	copy(rb.data, batch[written:])

	if overflow := rb.size + n - capacity; overflow > 0 {
		rb.head = (rb.head + overflow) % capacity
		rb.size = capacity
	} else {
		rb.size += n
	}
}

// DrainAll removes and returns every stored sample, oldest first
func (rb *RingBuffer) DrainAll() []float32 {
	// Allocate outside the lock; the buffer never holds more than its capacity.
	out := make([]float32, len(rb.data))

	rb.mu.Lock()
	n := rb.size
	first := copy(out[:n], rb.data[rb.head:])
	copy(out[first:n], rb.data[:n-first])
	rb.head = 0
	rb.size = 0
	rb.mu.Unlock()

	return out[:n]
}

// Len returns the number of samples currently stored
func (rb *RingBuffer) Len() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.size
}

// Cap returns the fixed capacity in samples
func (rb *RingBuffer) Cap() int {
	return len(rb.data)
}
