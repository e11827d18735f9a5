// Package subjects shows completion per subject and per unit.
package subjects

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/studyplan/internal/curriculum"
	"github.com/abhisek/studyplan/internal/router"
	"github.com/abhisek/studyplan/internal/screen"
	"github.com/abhisek/studyplan/internal/screens/topics"
	"github.com/abhisek/studyplan/internal/stats"
	"github.com/abhisek/studyplan/internal/tracker"
	"github.com/abhisek/studyplan/internal/ui/components"
	"github.com/abhisek/studyplan/internal/ui/layout"
	"github.com/abhisek/studyplan/internal/ui/theme"
)

// SubjectsScreen lists subjects with progress bars and expands the
// highlighted one into its units.
type SubjectsScreen struct {
	tracker  *tracker.Tracker
	subjects []stats.SubjectCounts
	units    []stats.UnitCounts
	cursor   int
	err      error
}

var _ screen.Screen = (*SubjectsScreen)(nil)
var _ screen.Refresher = (*SubjectsScreen)(nil)

// New creates a SubjectsScreen.
func New(t *tracker.Tracker) *SubjectsScreen {
	s := &SubjectsScreen{tracker: t}
	s.Refresh()
	return s
}

// Refresh reloads the tallies.
func (s *SubjectsScreen) Refresh() {
	s.subjects, s.err = s.tracker.Subjects()
	if s.cursor >= len(s.subjects) {
		s.cursor = 0
	}
	s.loadUnits()
}

func (s *SubjectsScreen) loadUnits() {
	s.units = nil
	if s.err != nil || len(s.subjects) == 0 {
		return
	}
	s.units, s.err = s.tracker.Units(s.subjects[s.cursor].Subject.ID)
}

func (s *SubjectsScreen) Init() tea.Cmd { return nil }

func (s *SubjectsScreen) Title() string { return "Subjects" }

func (s *SubjectsScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Subject"},
		{Key: "Enter", Description: "Topics"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *SubjectsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || len(s.subjects) == 0 {
		return s, nil
	}
	switch kmsg.String() {
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
			s.loadUnits()
		}
	case "down", "j":
		if s.cursor < len(s.subjects)-1 {
			s.cursor++
			s.loadUnits()
		}
	case "enter":
		id := s.subjects[s.cursor].Subject.ID
		return s, router.Push(topics.New(s.tracker, curriculum.FilterAll, id))
	}
	return s, nil
}

func (s *SubjectsScreen) View(width, height int) string {
	if s.err != nil {
		return components.Center(theme.Incorrect.Render(s.err.Error()), width, height)
	}
	cw := components.ContentWidth(width)

	var b strings.Builder
	for i, sc := range s.subjects {
		label := sc.Subject.Name
		if sc.Subject.Priority != "" {
			label += lipgloss.NewStyle().Foreground(theme.TextDim).Render(" · " + sc.Subject.Priority)
		}
		cursor := "  "
		if i == s.cursor {
			cursor = theme.Selected.Render("▸ ")
		}
		b.WriteString(cursor + lipgloss.NewStyle().Foreground(theme.SubjectColor(sc.Subject.Color)).Bold(i == s.cursor).Render(label) +
			lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf("  %d/%d", sc.Completed, sc.Total)) + "\n")
		b.WriteString("  " + bar(sc.Counts, sc.Subject.Color, cw-8) + "\n")
	}

	if len(s.units) > 0 {
		b.WriteString("\n" + theme.Heading.Render("Units") + "\n")
		for _, uc := range s.units {
			b.WriteString(theme.Body.Render("  "+uc.Unit.Name) +
				lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf("  %d/%d", uc.Completed, uc.Total)) + "\n")
			b.WriteString("  " + bar(uc.Counts, s.subjects[s.cursor].Subject.Color, cw-8) + "\n")
		}
	}

	return components.Center(components.Card(strings.TrimRight(b.String(), "\n"), cw), width, height)
}

func bar(c stats.Counts, hex string, width int) string {
	return components.CountBar("", c.Completed, c.Total, width).
		WithColor(theme.SubjectColor(hex)).
		View()
}
