// Package trigger detects the capture hotkey by polling held keys.
package trigger

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidChord is returned when a chord string cannot be parsed
var ErrInvalidChord = errors.New("invalid key chord")

// Chord is a set of keys that must be held at the same time. Each position
// accepts any one of its alternatives, e.g. "ctrl+alt|option+s".
type Chord struct {
	keys [][]string
}

// ParseChord parses a chord written as keys joined by "+", with "|"
// separating alternatives for a single key. Names are case-insensitive.
func ParseChord(s string) (Chord, error) {
	if strings.TrimSpace(s) == "" {
		return Chord{}, fmt.Errorf("%w: empty chord", ErrInvalidChord)
	}

	var keys [][]string
	for _, part := range strings.Split(s, "+") {
		var alts []string
		for _, alt := range strings.Split(part, "|") {
			name := normalize(alt)
			if name == "" {
				return Chord{}, fmt.Errorf("%w: empty key in %q", ErrInvalidChord, s)
			}
			alts = append(alts, name)
		}
		keys = append(keys, alts)
	}
	return Chord{keys: keys}, nil
}

// MustParseChord is like ParseChord but panics on error
func MustParseChord(s string) Chord {
	c, err := ParseChord(s)
	if err != nil {
		panic(err)
	}
	return c
}

// HeldBy reports whether every position of the chord is satisfied by held
func (c Chord) HeldBy(held []string) bool {
	if len(c.keys) == 0 {
		return false
	}

	set := make(map[string]struct{}, len(held))
	for _, k := range held {
		set[normalize(k)] = struct{}{}
	}

	for _, alts := range c.keys {
		found := false
		for _, alt := range alts {
			if _, ok := set[alt]; ok {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (c Chord) String() string {
	parts := make([]string, len(c.keys))
	for i, alts := range c.keys {
		parts[i] = strings.Join(alts, "|")
	}
	return strings.Join(parts, "+")
}

func normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
