// Package schedule renders the plan as a grid of days.
package schedule

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/studyplan/internal/screen"
	"github.com/abhisek/studyplan/internal/stats"
	"github.com/abhisek/studyplan/internal/tracker"
	"github.com/abhisek/studyplan/internal/ui/components"
	"github.com/abhisek/studyplan/internal/ui/layout"
	"github.com/abhisek/studyplan/internal/ui/theme"
)

// perRow is the number of day cells on each grid line.
const perRow = 10

// ScheduleScreen shows every plan day and the topics of the selected one.
type ScheduleScreen struct {
	tracker *tracker.Tracker
	cells   []stats.DayCell
	cursor  int
	err     error
}

var _ screen.Screen = (*ScheduleScreen)(nil)
var _ screen.Refresher = (*ScheduleScreen)(nil)

// New creates a ScheduleScreen with the cursor on the current day.
func New(t *tracker.Tracker) *ScheduleScreen {
	s := &ScheduleScreen{tracker: t}
	s.Refresh()
	for i, c := range s.cells {
		if c.Current {
			s.cursor = i
		}
	}
	return s
}

// Refresh reloads the grid.
func (s *ScheduleScreen) Refresh() {
	s.cells, s.err = s.tracker.Grid()
	if s.cursor >= len(s.cells) {
		s.cursor = 0
	}
}

func (s *ScheduleScreen) Init() tea.Cmd { return nil }

func (s *ScheduleScreen) Title() string { return "Schedule" }

func (s *ScheduleScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "←→↑↓", Description: "Move"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *ScheduleScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || len(s.cells) == 0 {
		return s, nil
	}
	next := s.cursor
	switch kmsg.String() {
	case "left", "h":
		next--
	case "right", "l":
		next++
	case "up", "k":
		next -= perRow
	case "down", "j":
		next += perRow
	}
	if next >= 0 && next < len(s.cells) {
		s.cursor = next
	}
	return s, nil
}

// Selected returns the highlighted day.
func (s *ScheduleScreen) Selected() stats.DayCell {
	if len(s.cells) == 0 {
		return stats.DayCell{}
	}
	return s.cells[s.cursor]
}

func (s *ScheduleScreen) View(width, height int) string {
	if s.err != nil {
		return components.Center(theme.Incorrect.Render(s.err.Error()), width, height)
	}
	cw := components.ContentWidth(width)

	var b strings.Builder
	for i, c := range s.cells {
		b.WriteString(renderCell(c, i == s.cursor))
		if (i+1)%perRow == 0 {
			b.WriteString("\n")
		} else {
			b.WriteString(" ")
		}
	}
	b.WriteString("\n\n" + legend() + "\n\n")
	b.WriteString(s.renderDay())

	return components.Center(components.Card(strings.TrimRight(b.String(), "\n"), cw), width, height)
}

func renderCell(c stats.DayCell, selected bool) string {
	label := fmt.Sprintf("%3d", c.Day)
	var style lipgloss.Style
	switch c.State {
	case stats.DayCompleted:
		style = theme.DayComplete
	case stats.DayPartial:
		style = theme.DayPartial
	case stats.DayBuffer:
		style = theme.DayBuffer
	case stats.DayPending:
		style = theme.Body
	default:
		style = theme.DayEmpty
	}
	if c.Current {
		style = style.Inherit(theme.DayToday)
	}
	if selected {
		style = style.Reverse(true)
	}
	return style.Render(label)
}

func legend() string {
	return strings.Join([]string{
		theme.DayComplete.Render("■ done"),
		theme.DayPartial.Render("■ partial"),
		theme.Body.Render("■ pending"),
		theme.DayBuffer.Render("■ buffer"),
		theme.DayToday.Render("today"),
	}, "  ")
}

func (s *ScheduleScreen) renderDay() string {
	c := s.Selected()
	head := theme.Heading.Render(fmt.Sprintf("Day %d", c.Day))
	if c.State == stats.DayBuffer {
		return head + "\n" + theme.Hint.Render("Buffer day: catch up on anything pending.")
	}

	ws, err := s.tracker.Active()
	if err != nil {
		return head
	}
	topics := ws.Curriculum.TopicsOnDay(c.Day)
	if len(topics) == 0 {
		return head + "\n" + theme.Hint.Render("Nothing scheduled.")
	}
	lines := []string{head + lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf("  %d/%d done", c.Completed, c.Total))}
	for _, e := range topics {
		mark := theme.Pending.Render("○")
		if ws.Progress.IsComplete(e.Topic.ID) {
			mark = theme.Done.Render("✓")
		}
		lines = append(lines, fmt.Sprintf("  %s %s %s", mark,
			lipgloss.NewStyle().Foreground(theme.SubjectColor(e.Subject.Color)).Render(shortName(e.Subject.ShortName, e.Subject.Name)),
			theme.Body.Render(e.Topic.Title)))
	}
	return strings.Join(lines, "\n")
}

func shortName(short, name string) string {
	if short != "" {
		return short
	}
	r := []rune(name)
	if len(r) > 3 {
		r = r[:3]
	}
	return strings.ToUpper(string(r))
}
