// Package persist writes finished clips to disk on a dedicated goroutine, away
// from the capture and polling paths.
package persist

import (
	"context"
	"time"

	"github.com/0xlemi/clipr/internal/analysis"
	"github.com/0xlemi/clipr/internal/clip"
	"github.com/0xlemi/clipr/internal/logging"
	"github.com/google/uuid"
)

// Result reports one persisted (or failed) clip
type Result struct {
	ClipID uuid.UUID
	Path   string
	Stats  analysis.Stats
	Err    error
}

// Worker takes clips off the hand-off queue one at a time, in arrival order,
// and writes each with the encoder. A failed clip is reported and skipped.
type Worker struct {
	queue   <-chan clip.Clip
	namer   *Namer
	encoder Encoder
	report  func(Result)
	now     func() time.Time
}

// NewWorker creates a worker draining queue. report, if not nil, is called
// after every clip from the worker goroutine.
func NewWorker(queue <-chan clip.Clip, namer *Namer, encoder Encoder, report func(Result)) *Worker {
	return &Worker{
		queue:   queue,
		namer:   namer,
		encoder: encoder,
		report:  report,
		now:     time.Now,
	}
}

// Run processes clips until ctx is done or the queue is closed. Clips still
// queued at cancellation are not written.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case c, ok := <-w.queue:
			if !ok {
				return nil
			}
			res := w.Persist(c)
			if w.report != nil {
				w.report(res)
			}
		}
	}
}

// Persist writes a single clip. The filename comes from the wall clock at
// write time.
func (w *Worker) Persist(c clip.Clip) Result {
	path := w.namer.Path(w.now())
	res := Result{ClipID: c.ID, Path: path}

	if err := w.encoder.Encode(path, c.Format, c.Samples); err != nil {
		res.Err = err
		logging.Errorw("failed to save recording", "clip", c.ID, "path", path, "error", err)
		return res
	}

	res.Stats = analysis.Summarize(c.Samples, c.Format)
	logging.Infow("saved recording",
		"clip", c.ID,
		"path", path,
		"duration", res.Stats.Duration,
		"peak_db", res.Stats.PeakDB,
		"dominant_hz", res.Stats.DominantHz,
	)
	return res
}
