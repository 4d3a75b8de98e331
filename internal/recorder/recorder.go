// Package recorder assembles the capture pipeline: device callback into the
// ring buffer, hotkey polling into extraction, and the persistence worker.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/0xlemi/clipr/internal/audio"
	"github.com/0xlemi/clipr/internal/clip"
	"github.com/0xlemi/clipr/internal/logging"
	"github.com/0xlemi/clipr/internal/persist"
	"github.com/0xlemi/clipr/internal/trigger"
)

// Options configures a Recorder
type Options struct {
	Window           time.Duration
	Chord            trigger.Chord
	PollInterval     time.Duration
	Keys             trigger.KeySource
	SilenceThreshold float64
	QueueSize        int
	Namer            *persist.Namer
	Encoder          persist.Encoder
	StatsInterval    time.Duration

	// Notify receives clip.Result, persist.Result and Status values.
	// It must not block.
	Notify func(msg any)
}

// Status is a periodic snapshot of the capture side
type Status struct {
	Buffered time.Duration
	Window   time.Duration
	audio.ProducerStats
}

// Recorder owns one capture session
type Recorder struct {
	device    audio.Device
	format    audio.StreamFormat
	window    time.Duration
	ring      *audio.RingBuffer
	producer  *audio.Producer
	monitor   *trigger.Monitor
	extractor *clip.Extractor
	worker    *persist.Worker
	interval  time.Duration
	notify    func(any)
}

// New builds the pipeline around device. Nothing runs until Run.
func New(device audio.Device, opts Options) (*Recorder, error) {
	format := device.Format()
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if format.Encoding != audio.EncodingFloat {
		return nil, fmt.Errorf("%w: %s samples", audio.ErrUnsupportedFormat, format.Encoding)
	}
	if opts.Keys == nil {
		return nil, errors.New("recorder: no key source")
	}
	if opts.Namer == nil || opts.Encoder == nil {
		return nil, errors.New("recorder: no output configured")
	}

	ring, err := audio.NewRingBuffer(format.WindowCapacity(opts.Window))
	if err != nil {
		return nil, fmt.Errorf("window of %v: %w", opts.Window, err)
	}

	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = 1
	}
	queue := make(chan clip.Clip, queueSize)

	notify := opts.Notify
	if notify == nil {
		notify = func(any) {}
	}

	interval := opts.StatsInterval
	if interval <= 0 {
		interval = time.Second
	}

	r := &Recorder{
		device:    device,
		format:    format,
		window:    opts.Window,
		ring:      ring,
		producer:  audio.NewProducer(ring, format),
		monitor:   trigger.NewMonitor(opts.Keys, opts.Chord, opts.PollInterval),
		extractor: clip.NewExtractor(ring, format, opts.SilenceThreshold, queue),
		interval:  interval,
		notify:    notify,
	}
	r.worker = persist.NewWorker(queue, opts.Namer, opts.Encoder, func(res persist.Result) {
		r.notify(res)
	})
	return r, nil
}

// Run starts the device and blocks until ctx is cancelled. A device that
// cannot start is returned as an error straight away.
func (r *Recorder) Run(ctx context.Context) error {
	if err := r.device.Start(r.producer.Handle); err != nil {
		return fmt.Errorf("start capture on %q: %w", r.device.Name(), err)
	}
	logging.Infow("capture started",
		"device", r.device.Name(),
		"format", r.format.String(),
		"window", r.window,
		"capacity", r.ring.Cap(),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.monitor.Run(ctx, r.Trigger) })
	g.Go(func() error { return r.worker.Run(ctx) })
	g.Go(func() error { return r.reportStats(ctx) })

	err := g.Wait()
	if stopErr := r.device.Stop(); stopErr != nil {
		logging.Warnw("stop capture", "error", stopErr)
	}
	logging.Infow("capture stopped")
	return err
}

// Trigger extracts the current window. It is called by the hotkey monitor
// and may also be called directly.
func (r *Recorder) Trigger() {
	res, err := r.extractor.Extract()
	switch {
	case err != nil:
		logging.Errorw("clip not saved", "clip", res.ClipID, "outcome", res.Outcome, "error", err)
	case res.Outcome == clip.OutcomeEmpty:
		logging.Infow("clip empty, not saved", "drained", res.Drained)
	default:
		logging.Infow("clip queued", "clip", res.ClipID, "samples", res.Kept, "duration", res.Duration)
	}
	r.notify(res)
}

// Status returns the current capture counters
func (r *Recorder) Status() Status {
	return Status{
		Buffered:      r.format.Duration(r.ring.Len()),
		Window:        r.window,
		ProducerStats: r.producer.Stats(),
	}
}

// reportStats publishes counters and logs drops away from the audio thread
func (r *Recorder) reportStats(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	var lastDropped uint64
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			st := r.Status()
			if st.Dropped > lastDropped {
				logging.Warnw("capture batches dropped", "new", st.Dropped-lastDropped, "total", st.Dropped)
				lastDropped = st.Dropped
			}
			r.notify(st)
		}
	}
}
