package recorder

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/0xlemi/clipr/internal/audio"
	"github.com/0xlemi/clipr/internal/clip"
	"github.com/0xlemi/clipr/internal/persist"
	"github.com/0xlemi/clipr/internal/trigger"
)

var testFormat = audio.StreamFormat{SampleRate: 100, Channels: 2, BitDepth: 32, Encoding: audio.EncodingFloat}

type fakeDevice struct {
	format   audio.StreamFormat
	startErr error

	mu      sync.Mutex
	handler audio.BatchHandler
	stopped bool
}

func (d *fakeDevice) Name() string               { return "fake" }
func (d *fakeDevice) Format() audio.StreamFormat { return d.format }

func (d *fakeDevice) Start(h audio.BatchHandler) error {
	if d.startErr != nil {
		return d.startErr
	}
	d.mu.Lock()
	d.handler = h
	d.mu.Unlock()
	return nil
}

func (d *fakeDevice) Stop() error {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
	return nil
}

func (d *fakeDevice) push(batch []float32) {
	d.mu.Lock()
	h := d.handler
	d.mu.Unlock()
	h(batch)
}

type captureEncoder struct {
	mu    sync.Mutex
	clips [][]float32
}

func (e *captureEncoder) Extension() string { return "wav" }

func (e *captureEncoder) Encode(path string, format audio.StreamFormat, samples []float32) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clips = append(e.clips, slices.Clone(samples))
	return nil
}

func (e *captureEncoder) written() [][]float32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.clips)
}

type toggleKeys struct{ held atomic.Bool }

func (k *toggleKeys) HeldKeys() []string {
	if k.held.Load() {
		return []string{"ctrl", "alt", "s"}
	}
	return nil
}

func newTestRecorder(t *testing.T, dev *fakeDevice, keys trigger.KeySource, enc persist.Encoder, notify func(any)) *Recorder {
	t.Helper()
	namer, err := persist.NewNamer(t.TempDir(), "", "wav")
	if err != nil {
		t.Fatalf("NewNamer: %v", err)
	}
	r, err := New(dev, Options{
		Window:        time.Second,
		Chord:         trigger.MustParseChord("ctrl+alt|option+s"),
		PollInterval:  2 * time.Millisecond,
		Keys:          keys,
		QueueSize:     4,
		Namer:         namer,
		Encoder:       enc,
		StatsInterval: 5 * time.Millisecond,
		Notify:        notify,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestRecorder_HotkeySavesTrimmedClip(t *testing.T) {
	dev := &fakeDevice{format: testFormat}
	keys := &toggleKeys{}
	enc := &captureEncoder{}

	var (
		mu   sync.Mutex
		msgs []any
	)
	r := newTestRecorder(t, dev, keys, enc, func(m any) {
		mu.Lock()
		msgs = append(msgs, m)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	waitFor(t, "device start", func() bool {
		dev.mu.Lock()
		defer dev.mu.Unlock()
		return dev.handler != nil
	})

	dev.push([]float32{0, 0, 0, 0})
	dev.push([]float32{0.5, 0.25, -0.5, 0})
	dev.push([]float32{0, 0, 0, 0})
	dev.push([]float32{0.1}) // half frame, dropped

	keys.held.Store(true)
	waitFor(t, "clip written", func() bool { return len(enc.written()) == 1 })

	// Still held: no second clip even with new audio
	dev.push([]float32{0.9, 0.9})
	time.Sleep(20 * time.Millisecond)
	if n := len(enc.written()); n != 1 {
		t.Fatalf("holding the chord wrote %d clips", n)
	}

	keys.held.Store(false)
	time.Sleep(10 * time.Millisecond)
	keys.held.Store(true)
	waitFor(t, "second clip", func() bool { return len(enc.written()) == 2 })

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}

	clips := enc.written()
	if want := []float32{0.5, 0.25, -0.5, 0}; !slices.Equal(clips[0], want) {
		t.Errorf("first clip = %v, want %v", clips[0], want)
	}
	if want := []float32{0.9, 0.9}; !slices.Equal(clips[1], want) {
		t.Errorf("second clip = %v, want %v", clips[1], want)
	}

	dev.mu.Lock()
	stopped := dev.stopped
	dev.mu.Unlock()
	if !stopped {
		t.Error("device not stopped after Run returned")
	}

	if st := r.Status(); st.Dropped != 1 || st.Batches != 4 {
		t.Errorf("Status = %+v, want 1 dropped and 4 stored batches", st.ProducerStats)
	}

	mu.Lock()
	defer mu.Unlock()
	var queued, saved, status int
	for _, m := range msgs {
		switch m := m.(type) {
		case clip.Result:
			if m.Outcome == clip.OutcomeQueued {
				queued++
			}
		case persist.Result:
			if m.Err == nil {
				saved++
			}
		case Status:
			status++
		}
	}
	if queued != 2 || saved != 2 {
		t.Errorf("notifications: %d queued, %d saved, want 2 and 2", queued, saved)
	}
	if status == 0 {
		t.Error("no Status notifications")
	}
}

func TestRecorder_TriggerOnSilence(t *testing.T) {
	dev := &fakeDevice{format: testFormat}
	enc := &captureEncoder{}

	var got []clip.Result
	r := newTestRecorder(t, dev, &toggleKeys{}, enc, func(m any) {
		if res, ok := m.(clip.Result); ok {
			got = append(got, res)
		}
	})

	r.producer.Handle(make([]float32, 50))
	r.Trigger()

	if len(got) != 1 || got[0].Outcome != clip.OutcomeEmpty {
		t.Fatalf("results = %+v, want one empty outcome", got)
	}
	if r.ring.Len() != 0 {
		t.Errorf("ring holds %d samples after extraction", r.ring.Len())
	}
}

func TestRecorder_StartFailureIsFatal(t *testing.T) {
	startErr := errors.New("device busy")
	dev := &fakeDevice{format: testFormat, startErr: startErr}
	r := newTestRecorder(t, dev, &toggleKeys{}, &captureEncoder{}, nil)

	err := r.Run(context.Background())
	if !errors.Is(err, startErr) {
		t.Fatalf("Run() = %v, want %v", err, startErr)
	}
}

func TestNew_Rejects(t *testing.T) {
	namer, _ := persist.NewNamer(t.TempDir(), "", "wav")
	base := Options{
		Window:  time.Second,
		Chord:   trigger.MustParseChord("s"),
		Keys:    &toggleKeys{},
		Namer:   namer,
		Encoder: &captureEncoder{},
	}

	intFormat := testFormat
	intFormat.Encoding = audio.EncodingInt
	if _, err := New(&fakeDevice{format: intFormat}, base); !errors.Is(err, audio.ErrUnsupportedFormat) {
		t.Errorf("int format: err = %v, want ErrUnsupportedFormat", err)
	}

	short := base
	short.Window = 100 * time.Millisecond
	if _, err := New(&fakeDevice{format: testFormat}, short); !errors.Is(err, audio.ErrInvalidCapacity) {
		t.Errorf("sub-second window: err = %v, want ErrInvalidCapacity", err)
	}

	noKeys := base
	noKeys.Keys = nil
	if _, err := New(&fakeDevice{format: testFormat}, noKeys); err == nil {
		t.Error("missing key source should fail")
	}

	noOutput := base
	noOutput.Encoder = nil
	if _, err := New(&fakeDevice{format: testFormat}, noOutput); err == nil {
		t.Error("missing encoder should fail")
	}
}
