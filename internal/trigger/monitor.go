package trigger

import (
	"context"
	"time"
)

// DefaultPollInterval is how often held keys are sampled
const DefaultPollInterval = 100 * time.Millisecond

// KeySource reports which keys are held right now
type KeySource interface {
	HeldKeys() []string
}

// KeySourceFunc adapts a function to KeySource
type KeySourceFunc func() []string

// HeldKeys calls f
func (f KeySourceFunc) HeldKeys() []string { return f() }

// State is the chord detection state
type State int

const (
	// Idle means the chord is not fully held
	Idle State = iota
	// Armed means the chord is held and its trigger already fired
	Armed
)

func (s State) String() string {
	if s == Armed {
		return "armed"
	}
	return "idle"
}

// Monitor raises one trigger per press of a chord. Holding the chord across
// many polls fires once; it must be released before it can fire again.
type Monitor struct {
	source   KeySource
	chord    Chord
	interval time.Duration
	state    State
}

// NewMonitor creates a monitor polling source every interval
func NewMonitor(source KeySource, chord Chord, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Monitor{
		source:   source,
		chord:    chord,
		interval: interval,
		state:    Idle,
	}
}

// Poll samples the held keys once and reports whether a trigger was raised
func (m *Monitor) Poll() bool {
	held := m.chord.HeldBy(m.source.HeldKeys())

	switch {
	case m.state == Idle && held:
		m.state = Armed
		return true
	case m.state == Armed && !held:
		m.state = Idle
	}
	return false
}

// State returns the current detection state
func (m *Monitor) State() State {
	return m.state
}

// Run polls until ctx is done, calling fire for every raised trigger. fire
// runs on the polling goroutine.
func (m *Monitor) Run(ctx context.Context, fire func()) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if m.Poll() {
				fire()
			}
		}
	}
}
