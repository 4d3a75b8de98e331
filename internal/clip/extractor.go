// Package clip turns the contents of the capture window into clips ready to
// be persisted.
package clip

import (
	"errors"
	"fmt"
	"time"

	"github.com/0xlemi/clipr/internal/audio"
	"github.com/google/uuid"
)

// DefaultSilenceThreshold is the magnitude below which a sample counts as silence
const DefaultSilenceThreshold = 1e-6

// ErrQueueFull is returned when the persistence queue cannot take another clip
var ErrQueueFull = errors.New("clip queue full")

// Clip is a trimmed snapshot of the capture window
type Clip struct {
	ID         uuid.UUID
	Samples    []float32
	Format     audio.StreamFormat
	CapturedAt time.Time
}

// Duration returns the playback length of the clip
func (c Clip) Duration() time.Duration {
	return c.Format.Duration(len(c.Samples))
}

// Outcome describes what an extraction did with the drained samples
type Outcome int

const (
	// OutcomeQueued means the clip was handed to the persistence queue
	OutcomeQueued Outcome = iota
	// OutcomeEmpty means only silence was captured and nothing was queued
	OutcomeEmpty
	// OutcomeDropped means the queue was full and the clip was discarded
	OutcomeDropped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeQueued:
		return "queued"
	case OutcomeEmpty:
		return "empty"
	case OutcomeDropped:
		return "dropped"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Result reports a single extraction
type Result struct {
	Outcome  Outcome
	ClipID   uuid.UUID
	Drained  int // samples taken from the window
	Kept     int // samples left after trimming
	Duration time.Duration
}

// Drainer empties the capture window
type Drainer interface {
	DrainAll() []float32
}

// Extractor drains the capture window, drops silence and queues clips. It
// never performs I/O.
type Extractor struct {
	source    Drainer
	format    audio.StreamFormat
	threshold float32
	queue     chan<- Clip
	now       func() time.Time
}

// NewExtractor creates an extractor sending clips to queue. A threshold of
// zero or less selects DefaultSilenceThreshold.
func NewExtractor(source Drainer, format audio.StreamFormat, threshold float64, queue chan<- Clip) *Extractor {
	if threshold <= 0 {
		threshold = DefaultSilenceThreshold
	}
	return &Extractor{
		source:    source,
		format:    format,
		threshold: float32(threshold),
		queue:     queue,
		now:       time.Now,
	}
}

// Extract takes everything captured so far. An all-silent window yields
// OutcomeEmpty with a nil error.
func (e *Extractor) Extract() (Result, error) {
	samples := e.source.DrainAll()
	result := Result{Drained: len(samples)}

	trimmed, ok := TrimFrames(samples, e.format.Channels, e.threshold)
	if !ok {
		result.Outcome = OutcomeEmpty
		return result, nil
	}

	// Copy out so a short clip does not pin the whole drained window while
	// it waits in the queue.
	if cap(trimmed) > len(trimmed) {
		kept := make([]float32, len(trimmed))
		copy(kept, trimmed)
		trimmed = kept
	}

	c := Clip{
		ID:         uuid.New(),
		Samples:    trimmed,
		Format:     e.format,
		CapturedAt: e.now(),
	}
	result.ClipID = c.ID
	result.Kept = len(trimmed)
	result.Duration = c.Duration()

	select {
	case e.queue <- c:
		result.Outcome = OutcomeQueued
		return result, nil
	default:
		result.Outcome = OutcomeDropped
		return result, ErrQueueFull
	}
}
