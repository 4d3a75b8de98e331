package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/0xlemi/clipr/internal/analysis"
	"github.com/0xlemi/clipr/internal/audio"
	"github.com/0xlemi/clipr/internal/clip"
	"github.com/0xlemi/clipr/internal/persist"
	"github.com/0xlemi/clipr/internal/recorder"
)

func testModel() Model {
	return NewModel(Session{
		Device:    "Built-in Microphone",
		Format:    "48000 Hz, 2 ch, 32-bit float",
		Window:    30 * time.Second,
		Chord:     "ctrl+alt|option+s",
		OutputDir: "/tmp/clips",
	})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestModel_Quit(t *testing.T) {
	for _, key := range []string{"q", "ctrl+c"} {
		var msg tea.KeyMsg
		if key == "q" {
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}
		} else {
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		}
		_, cmd := testModel().Update(msg)
		if cmd == nil {
			t.Fatalf("%s: no command returned", key)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s did not quit", key)
		}
	}
}

func TestModel_ShowsSession(t *testing.T) {
	view := testModel().View()
	for _, want := range []string{"Built-in Microphone", "48000 Hz", "ctrl+alt|option+s", "/tmp/clips", "30.0s"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_Status(t *testing.T) {
	m := update(t, testModel(), recorder.Status{
		Buffered:      15 * time.Second,
		Window:        30 * time.Second,
		ProducerStats: audio.ProducerStats{Batches: 10, Dropped: 3},
	})

	view := m.View()
	if !strings.Contains(view, "15.0s / 30.0s") {
		t.Error("view does not show buffer fill")
	}
	if !strings.Contains(view, "3 batches") {
		t.Error("view does not show dropped batches")
	}
}

func TestModel_ClipLifecycle(t *testing.T) {
	m := update(t, testModel(), clip.Result{Outcome: clip.OutcomeQueued, Duration: 2500 * time.Millisecond})
	if !strings.Contains(m.View(), "Saving 2.5s clip") {
		t.Error("queued clip not shown")
	}

	m = update(t, m, persist.Result{
		Path:  "/tmp/clips/recorded_20240101_120000.wav",
		Stats: analysis.Stats{Duration: 2500 * time.Millisecond, PeakDB: -6, DominantHz: 440},
	})
	view := m.View()
	for _, want := range []string{"Saved recorded_20240101_120000.wav", "peak -6.0 dB", "440 Hz"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m = update(t, m, persist.Result{Path: "/tmp/clips/recorded_x.wav", Err: errors.New("disk full")})
	if !strings.Contains(m.View(), "Save failed: disk full") {
		t.Error("failure not shown")
	}
}

func TestModel_RecentIsBounded(t *testing.T) {
	m := testModel()
	for i := 0; i < maxRecent+3; i++ {
		m = update(t, m, persist.Result{Path: "/tmp/clips/recorded.wav"})
	}
	if len(m.recent) != maxRecent {
		t.Errorf("recent holds %d clips, want %d", len(m.recent), maxRecent)
	}
}

func TestModel_FlashExpires(t *testing.T) {
	m := update(t, testModel(), clip.Result{Outcome: clip.OutcomeEmpty})
	if !strings.Contains(m.View(), "silence") {
		t.Fatal("empty outcome not shown")
	}

	m = update(t, m, TickMsg(time.Now().Add(flashDuration+time.Second)))
	if strings.Contains(m.View(), "silence") {
		t.Error("message still shown after it expired")
	}
}
