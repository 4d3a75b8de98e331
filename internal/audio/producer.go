package audio

import "sync/atomic"

// ProducerStats is a snapshot of the capture callback counters
type ProducerStats struct {
	Batches uint64 // batches stored in the ring buffer
	Samples uint64 // samples stored in the ring buffer
	Dropped uint64 // batches discarded
}

// Producer bridges device callbacks to a RingBuffer. Handle runs on the audio
// thread: it never logs, retries or touches anything but the ring buffer and
// its own counters.
type Producer struct {
	ring     *RingBuffer
	channels int

	batches atomic.Uint64
	samples atomic.Uint64
	dropped atomic.Uint64
}

// NewProducer creates a producer feeding ring with batches of the given format
func NewProducer(ring *RingBuffer, format StreamFormat) *Producer {
	channels := format.Channels
	if channels < 1 {
		channels = 1
	}
	return &Producer{ring: ring, channels: channels}
}

// Handle stores one batch. Batches that do not hold whole frames are dropped
// so the ring buffer stays frame aligned.
func (p *Producer) Handle(batch []float32) {
	defer func() {
		if recover() != nil {
			p.dropped.Add(1)
		}
	}()

	if len(batch) == 0 {
		return
	}
	if len(batch)%p.channels != 0 {
		p.dropped.Add(1)
		return
	}

	p.ring.Push(batch)
	p.batches.Add(1)
	p.samples.Add(uint64(len(batch)))
}

// Stats returns the current counters
func (p *Producer) Stats() ProducerStats {
	return ProducerStats{
		Batches: p.batches.Load(),
		Samples: p.samples.Load(),
		Dropped: p.dropped.Load(),
	}
}
