package ui

import (
	"context"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultRelaySize is how many messages may wait for the view
const DefaultRelaySize = 64

// Sender accepts messages for the view; *tea.Program satisfies it
type Sender interface {
	Send(msg tea.Msg)
}

// Relay hands recorder notifications to the view from a single goroutine so
// they arrive in the order they were raised. Notify never blocks: when the
// view falls behind and the buffer is full the message is dropped.
type Relay struct {
	sender  Sender
	msgs    chan tea.Msg
	dropped atomic.Uint64
}

// NewRelay creates a relay buffering up to size messages
func NewRelay(sender Sender, size int) *Relay {
	if size <= 0 {
		size = DefaultRelaySize
	}
	return &Relay{sender: sender, msgs: make(chan tea.Msg, size)}
}

// Notify queues msg for the view
func (r *Relay) Notify(msg any) {
	select {
	case r.msgs <- msg:
	default:
		r.dropped.Add(1)
	}
}

// Dropped returns how many messages were discarded
func (r *Relay) Dropped() uint64 {
	return r.dropped.Load()
}

// Run forwards queued messages until ctx is done
func (r *Relay) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-r.msgs:
			r.sender.Send(msg)
		}
	}
}
