// Package users is the "who's studying?" picker.
package users

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/studyplan/internal/router"
	"github.com/abhisek/studyplan/internal/screen"
	"github.com/abhisek/studyplan/internal/screens/actions"
	"github.com/abhisek/studyplan/internal/tracker"
	"github.com/abhisek/studyplan/internal/ui/components"
	"github.com/abhisek/studyplan/internal/ui/layout"
	"github.com/abhisek/studyplan/internal/ui/theme"
)

type selectedMsg struct {
	id  string
	err error
}

// UsersScreen lists the roster and activates the chosen learner.
type UsersScreen struct {
	tracker *tracker.Tracker
	next    func() screen.Screen
	menu    components.Menu
	loading string
}

var _ screen.Screen = (*UsersScreen)(nil)

// New creates the picker. next builds the screen shown once a user is active.
func New(t *tracker.Tracker, next func() screen.Screen) *UsersScreen {
	s := &UsersScreen{tracker: t, next: next}

	current := ""
	if ws, err := t.Active(); err == nil {
		current = ws.User.ID
	}

	items := make([]components.MenuItem, 0, len(t.Users()))
	selected := 0
	for i, u := range t.Users() {
		id := u.ID
		label := u.DisplayName
		if u.Icon != "" {
			label = u.Icon + "  " + label
		}
		detail := ""
		if id == current {
			detail = "(current)"
			selected = i
		}
		items = append(items, components.MenuItem{
			Label:  label,
			Detail: detail,
			Action: func() tea.Cmd { return s.choose(id) },
		})
	}
	s.menu = components.NewMenu(items)
	s.menu.Selected = selected
	return s
}

func (s *UsersScreen) Title() string { return "Who's studying?" }

func (s *UsersScreen) Init() tea.Cmd { return nil }

func (s *UsersScreen) choose(id string) tea.Cmd {
	s.loading = id
	t := s.tracker
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actions.Timeout)
		defer cancel()
		return selectedMsg{id: id, err: t.Select(ctx, id)}
	}
}

func (s *UsersScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case selectedMsg:
		s.loading = ""
		if msg.err != nil {
			return s, actions.Fail(fmt.Errorf("could not open %s: %w", msg.id, msg.err))
		}
		return s, router.Reset(s.next())
	case tea.KeyMsg:
		if s.loading != "" {
			return s, nil
		}
	}

	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

func (s *UsersScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString(theme.Heading.Render("Who's studying today?") + "\n\n")
	if len(s.menu.Items) == 0 {
		b.WriteString(theme.Hint.Render("No learners configured. Add them to users.json."))
	} else {
		b.WriteString(s.menu.View())
	}
	if s.loading != "" {
		b.WriteString("\n" + lipgloss.NewStyle().Foreground(theme.Accent).Render("Loading "+s.loading+"…"))
	}
	cw := components.ContentWidth(width)
	return components.Center(components.Card(b.String(), cw), width, height)
}

func (s *UsersScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Choose"},
		{Key: "Enter", Description: "Start"},
		{Key: "q", Description: "Quit"},
	}
}
