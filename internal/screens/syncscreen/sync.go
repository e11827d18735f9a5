// Package syncscreen manages the active learner's remote sync.
package syncscreen

import (
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/studyplan/internal/screen"
	"github.com/abhisek/studyplan/internal/screens/actions"
	"github.com/abhisek/studyplan/internal/syncer"
	"github.com/abhisek/studyplan/internal/tracker"
	"github.com/abhisek/studyplan/internal/ui/components"
	"github.com/abhisek/studyplan/internal/ui/layout"
	"github.com/abhisek/studyplan/internal/ui/theme"
)

// maxHandleLen bounds what can be typed as a remote handle.
const maxHandleLen = 128

// SyncScreen shows sync status and offers the sync operations.
type SyncScreen struct {
	tracker *tracker.Tracker
	menu    components.Menu
	input   components.TextInput
	editing bool
	busy    string
}

var _ screen.Screen = (*SyncScreen)(nil)
var _ screen.InputCapturer = (*SyncScreen)(nil)
var _ screen.Refresher = (*SyncScreen)(nil)

// New creates a SyncScreen.
func New(t *tracker.Tracker) *SyncScreen {
	s := &SyncScreen{
		tracker: t,
		input:   components.NewTextInput("paste a remote handle", maxHandleLen),
	}
	s.Refresh()
	return s
}

func (s *SyncScreen) reconciler() *syncer.Reconciler {
	ws, err := s.tracker.Active()
	if err != nil {
		return nil
	}
	return ws.Sync
}

// Refresh rebuilds the menu for the current sync state.
func (s *SyncScreen) Refresh() {
	rec := s.reconciler()
	if rec == nil || !rec.HasBackend() {
		s.menu = components.NewMenu(nil)
		return
	}

	run := func(op string) func() tea.Cmd {
		return func() tea.Cmd { return s.run(op, "") }
	}

	var items []components.MenuItem
	if rec.Configured() {
		auto := "Turn auto-sync off"
		autoOp := "auto-off"
		if !rec.Config().AutoSync {
			auto, autoOp = "Turn auto-sync on", "auto-on"
		}
		items = []components.MenuItem{
			{Label: "Push now", Action: run("push")},
			{Label: "Pull now", Action: run("pull")},
			{Label: auto, Action: run(autoOp)},
			{Label: "Disconnect", Action: run("disconnect")},
		}
	} else {
		items = []components.MenuItem{
			{Label: "Create a new remote", Action: run("create")},
			{Label: "Connect to an existing remote", Action: func() tea.Cmd {
				s.editing = true
				s.input.Reset()
				return s.input.Init()
			}},
		}
	}
	selected := s.menu.Selected
	s.menu = components.NewMenu(items)
	if selected < len(items) {
		s.menu.Selected = selected
	}
}

func (s *SyncScreen) run(op, arg string) tea.Cmd {
	s.busy = op
	return actions.Sync(s.tracker, op, arg)
}

// CapturingInput reports whether the handle field has focus.
func (s *SyncScreen) CapturingInput() bool { return s.editing }

func (s *SyncScreen) Init() tea.Cmd { return nil }

func (s *SyncScreen) Title() string { return "Sync" }

func (s *SyncScreen) KeyHints() []layout.KeyHint {
	if s.editing {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Connect"},
			{Key: "Esc", Description: "Cancel"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Run"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *SyncScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case actions.SyncDoneMsg:
		s.busy = ""
		s.Refresh()
		return s, nil

	case tea.KeyMsg:
		if s.busy != "" {
			return s, nil
		}
		if s.editing {
			switch msg.String() {
			case "esc":
				s.editing = false
				return s, nil
			case "enter":
				handle := s.input.Value()
				if handle == "" {
					s.input.Submit(false)
					return s, nil
				}
				s.editing = false
				return s, s.run("connect", handle)
			}
			var cmd tea.Cmd
			s.input, cmd = s.input.Update(msg)
			return s, cmd
		}
	}

	if s.editing {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

func (s *SyncScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	rec := s.reconciler()
	if rec == nil {
		return components.Center(theme.Hint.Render("Choose a learner first."), width, height)
	}

	var b strings.Builder
	b.WriteString(theme.Heading.Render("Status") + "\n")
	b.WriteString(statusLine(rec) + "\n")

	if !rec.HasBackend() {
		b.WriteString("\n" + theme.Hint.Render("No sync backend is configured. Progress is kept on this device.\nSet sync.backend in studyplan.yaml to enable sync."))
		return components.Center(components.Card(b.String(), cw), width, height)
	}

	cfg := rec.Config()
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)
	if cfg.RemoteHandle != "" {
		b.WriteString(dim.Render("Remote:    ") + theme.Body.Render(cfg.RemoteHandle) + "\n")
	}
	last := "never"
	if cfg.LastSync != nil {
		last = humanizeSince(time.Since(*cfg.LastSync))
	}
	b.WriteString(dim.Render("Last sync: ") + theme.Body.Render(last) + "\n")
	auto := "off"
	if cfg.AutoSync {
		auto = "on"
	}
	b.WriteString(dim.Render("Auto-sync: ") + theme.Body.Render(auto) + "\n\n")

	switch {
	case s.busy != "":
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Accent).Render("Working: " + s.busy + "…"))
	case s.editing:
		b.WriteString(theme.Body.Render("Remote handle") + "\n" + s.input.View())
	default:
		b.WriteString(s.menu.View())
	}

	return components.Center(components.Card(strings.TrimRight(b.String(), "\n"), cw), width, height)
}

func statusLine(rec *syncer.Reconciler) string {
	st := rec.Status()
	line := string(st)
	style := theme.Pending
	switch st {
	case syncer.StatusSynced:
		style = theme.Done
	case syncer.StatusSyncing:
		style = lipgloss.NewStyle().Foreground(theme.Accent)
	case syncer.StatusError:
		style = theme.Incorrect
		if err := rec.LastError(); err != nil {
			line += ": " + err.Error()
		}
	}
	return style.Render(line)
}

func humanizeSince(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
