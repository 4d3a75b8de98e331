package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/0xlemi/clipr/internal/clip"
	"github.com/0xlemi/clipr/internal/persist"
	"github.com/0xlemi/clipr/internal/recorder"
)

const (
	// How many finished clips stay on screen
	maxRecent = 5

	// How long the last trigger message is highlighted
	flashDuration = 2 * time.Second

	tickInterval = 100 * time.Millisecond
	meterWidth   = 30
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			PaddingLeft(2).
			PaddingRight(2).
			MarginBottom(1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCCCCC"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Width(10)

	meterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00"))

	okStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00FF00"))

	warnStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFA500"))

	errStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF0000"))

	clipBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333333")).
			Padding(0, 1).
			MarginTop(1)
)

// Session describes what is being captured
type Session struct {
	Device    string
	Format    string
	Window    time.Duration
	Chord     string
	OutputDir string
}

// Model represents the UI state
type Model struct {
	session Session
	status  recorder.Status
	recent  []persist.Result
	flash   string
	flashAt time.Time
	flashFn func(strs ...string) string
	now     time.Time
	width   int
	height  int
}

// NewModel creates a new UI model
func NewModel(session Session) Model {
	return Model{
		session: session,
		status:  recorder.Status{Window: session.Window},
		now:     time.Now(),
	}
}

// TickMsg represents a timer tick
type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Init initializes the UI model
func (m Model) Init() tea.Cmd {
	return tick()
}

// Update updates the UI model based on messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case TickMsg:
		m.now = time.Time(msg)
		return m, tick()

	case recorder.Status:
		m.status = msg

	case clip.Result:
		switch msg.Outcome {
		case clip.OutcomeQueued:
			m.setFlash(okStyle.Render, fmt.Sprintf("Saving %s clip...", formatDuration(msg.Duration)))
		case clip.OutcomeEmpty:
			m.setFlash(warnStyle.Render, "Nothing but silence, no clip saved")
		case clip.OutcomeDropped:
			m.setFlash(errStyle.Render, "Writer busy, clip dropped")
		}

	case persist.Result:
		m.recent = append([]persist.Result{msg}, m.recent...)
		if len(m.recent) > maxRecent {
			m.recent = m.recent[:maxRecent]
		}
		if msg.Err != nil {
			m.setFlash(errStyle.Render, "Save failed: "+msg.Err.Error())
		} else {
			m.setFlash(okStyle.Render, "Saved "+filepath.Base(msg.Path))
		}
	}

	return m, nil
}

func (m *Model) setFlash(render func(strs ...string) string, text string) {
	m.flash = text
	m.flashFn = render
	m.flashAt = time.Now()
	m.now = m.flashAt
}

// View renders the UI
func (m Model) View() string {
	s := titleStyle.Render("clipr - Rolling Audio Recorder")
	s += "\n"

	rows := [][2]string{
		{"Device", m.session.Device},
		{"Format", m.session.Format},
		{"Hotkey", m.session.Chord},
		{"Saving to", m.session.OutputDir},
	}
	for _, row := range rows {
		s += labelStyle.Render(row[0]) + infoStyle.Render(row[1]) + "\n"
	}

	s += "\n"
	s += labelStyle.Render("Buffer") + m.meter() + "\n"
	if m.status.Dropped > 0 {
		s += labelStyle.Render("Dropped") + warnStyle.Render(fmt.Sprintf("%d batches", m.status.Dropped)) + "\n"
	}

	if m.flash != "" && m.now.Sub(m.flashAt) < flashDuration {
		s += "\n" + m.flashFn(m.flash) + "\n"
	}

	if len(m.recent) > 0 {
		s += clipBoxStyle.Render(m.recentClips())
	}

	s += "\n\n"
	s += infoStyle.Render("Press the hotkey to save the last " + formatDuration(m.session.Window) + ". Press q to quit")

	return s
}

// meter draws how much of the window is filled
func (m Model) meter() string {
	fill := 0.0
	if m.status.Window > 0 {
		fill = float64(m.status.Buffered) / float64(m.status.Window)
	}
	fill = min(max(fill, 0), 1)

	n := int(fill * meterWidth)
	bar := meterStyle.Render(strings.Repeat("█", n)) + infoStyle.Render(strings.Repeat("░", meterWidth-n))
	return bar + infoStyle.Render(fmt.Sprintf(" %s / %s",
		formatDuration(m.status.Buffered), formatDuration(m.status.Window)))
}

func (m Model) recentClips() string {
	lines := make([]string, 0, len(m.recent))
	for _, r := range m.recent {
		name := filepath.Base(r.Path)
		if r.Err != nil {
			lines = append(lines, errStyle.Render("✗ ")+infoStyle.Render(name))
			continue
		}
		detail := fmt.Sprintf("%s  peak %.1f dB", formatDuration(r.Stats.Duration), r.Stats.PeakDB)
		if r.Stats.DominantHz > 0 {
			detail += fmt.Sprintf("  %.0f Hz", r.Stats.DominantHz)
		}
		lines = append(lines, okStyle.Render("✓ ")+infoStyle.Render(name+"  "+detail))
	}
	return strings.Join(lines, "\n")
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
