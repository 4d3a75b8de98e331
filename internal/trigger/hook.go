package trigger

import (
	"sort"
	"sync"
	"time"

	hook "github.com/robotn/gohook"
)

// HookKeys is a KeySource fed by a global keyboard hook. It follows key
// down/up events in the background and answers HeldKeys from that state.
type HookKeys struct {
	mu    sync.Mutex
	held  map[uint16]struct{}
	names map[uint16][]string
	done  chan struct{}
}

// StartHookKeys installs the keyboard hook. Call Stop to remove it.
func StartHookKeys() *HookKeys {
	k := newHookKeys()
	events := hook.Start()
	go k.consume(events)
	return k
}

func newHookKeys() *HookKeys {
	// Several names can share a code ("ctrl" and "lctrl"); a held key
	// answers to all of them.
	names := make(map[uint16][]string)
	for name, code := range hook.Keycode {
		names[code] = append(names[code], normalize(name))
	}
	for code := range names {
		sort.Strings(names[code])
	}

	return &HookKeys{
		held:  make(map[uint16]struct{}),
		names: names,
		done:  make(chan struct{}),
	}
}

func (k *HookKeys) consume(events chan hook.Event) {
	defer close(k.done)
	for ev := range events {
		k.apply(ev)
	}
}

func (k *HookKeys) apply(ev hook.Event) {
	k.mu.Lock()
	defer k.mu.Unlock()

	switch ev.Kind {
	case hook.KeyDown, hook.KeyHold:
		k.held[ev.Keycode] = struct{}{}
	case hook.KeyUp:
		delete(k.held, ev.Keycode)
	}
}

// HeldKeys returns the names of every key currently held
func (k *HookKeys) HeldKeys() []string {
	k.mu.Lock()
	defer k.mu.Unlock()

	var keys []string
	for code := range k.held {
		keys = append(keys, k.names[code]...)
	}
	sort.Strings(keys)
	return keys
}

// Stop removes the keyboard hook
func (k *HookKeys) Stop() {
	hook.End()
	select {
	case <-k.done:
	case <-time.After(time.Second):
	}
}
