// Package topics lists curriculum topics grouped by subject, with filter
// tabs for today, this week, pending and completed.
package topics

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/studyplan/internal/curriculum"
	"github.com/abhisek/studyplan/internal/router"
	"github.com/abhisek/studyplan/internal/screen"
	"github.com/abhisek/studyplan/internal/screens/actions"
	"github.com/abhisek/studyplan/internal/screens/session"
	"github.com/abhisek/studyplan/internal/tracker"
	"github.com/abhisek/studyplan/internal/ui/layout"
	"github.com/abhisek/studyplan/internal/ui/theme"
)

type rowKind int

const (
	rowSubjectHeader rowKind = iota
	rowTopic
)

type row struct {
	kind    rowKind
	subject *curriculum.Subject
	topic   tracker.TopicView
}

// TopicsScreen displays the filtered topic list.
type TopicsScreen struct {
	tracker   *tracker.Tracker
	filters   []curriculum.Filter
	filterIdx int
	subjectID string

	rows         []row
	cursor       int
	scrollOffset int
	err          error
}

var _ screen.Screen = (*TopicsScreen)(nil)
var _ screen.Refresher = (*TopicsScreen)(nil)

// New creates a TopicsScreen starting on filter. subjectID, when set,
// restricts the list to one subject.
func New(t *tracker.Tracker, filter curriculum.Filter, subjectID string) *TopicsScreen {
	s := &TopicsScreen{tracker: t, filters: curriculum.Filters(), subjectID: subjectID}
	for i, f := range s.filters {
		if f == filter {
			s.filterIdx = i
		}
	}
	s.Refresh()
	return s
}

// Filter returns the active filter.
func (s *TopicsScreen) Filter() curriculum.Filter {
	return s.filters[s.filterIdx]
}

// Refresh reloads the rows, keeping the cursor on the same topic when it
// is still listed.
func (s *TopicsScreen) Refresh() {
	keep := ""
	if cur, ok := s.current(); ok {
		keep = cur.Topic.ID
	}

	views, err := s.tracker.Topics(curriculum.Query{Filter: s.Filter(), SubjectID: s.subjectID})
	s.err = err
	s.rows = groupBySubject(views)
	s.cursor = 0
	s.scrollOffset = 0

	first := -1
	for i, r := range s.rows {
		if r.kind != rowTopic {
			continue
		}
		if first < 0 {
			first = i
		}
		if r.topic.Topic.ID == keep {
			s.cursor = i
			return
		}
	}
	if first >= 0 {
		s.cursor = first
	}
}

// groupBySubject inserts a header row whenever the subject changes. Topics
// arrive ordered by day, so a subject can appear in more than one group.
func groupBySubject(views []tracker.TopicView) []row {
	var rows []row
	var last *curriculum.Subject
	for _, v := range views {
		if v.Subject != last {
			rows = append(rows, row{kind: rowSubjectHeader, subject: v.Subject})
			last = v.Subject
		}
		rows = append(rows, row{kind: rowTopic, subject: v.Subject, topic: v})
	}
	return rows
}

func (s *TopicsScreen) current() (tracker.TopicView, bool) {
	if s.cursor < 0 || s.cursor >= len(s.rows) || s.rows[s.cursor].kind != rowTopic {
		return tracker.TopicView{}, false
	}
	return s.rows[s.cursor].topic, true
}

func (s *TopicsScreen) Init() tea.Cmd {
	return nil
}

func (s *TopicsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}
	switch kmsg.String() {
	case "up", "k":
		s.moveCursor(-1)
	case "down", "j":
		s.moveCursor(1)
	case "tab", "right", "l":
		s.filterIdx = (s.filterIdx + 1) % len(s.filters)
		s.Refresh()
	case "shift+tab", "left", "h":
		s.filterIdx = (s.filterIdx + len(s.filters) - 1) % len(s.filters)
		s.Refresh()
	case "enter":
		if cur, ok := s.current(); ok {
			return s, router.Push(newDetail(s.tracker, cur.Topic.ID))
		}
	case "x":
		if cur, ok := s.current(); ok {
			return s, session.Start(s.tracker, cur.Topic.ID)
		}
	case "space", "t":
		return s, s.toggle()
	}
	return s, nil
}

func (s *TopicsScreen) toggle() tea.Cmd {
	cur, ok := s.current()
	if !ok {
		return nil
	}
	done, err := s.tracker.Toggle(context.Background(), cur.Topic.ID)
	if err != nil {
		return actions.Fail(err)
	}
	s.Refresh()
	if done {
		return actions.Notify("Marked %q complete", cur.Topic.Title)
	}
	return actions.Notify("Marked %q not done", cur.Topic.Title)
}

func (s *TopicsScreen) View(width, height int) string {
	tabs := s.renderTabs()
	body := height - lipgloss.Height(tabs) - 1

	if s.err != nil {
		return tabs + "\n" + theme.Incorrect.Render("  "+s.err.Error())
	}
	if len(s.rows) == 0 {
		return tabs + "\n\n" + theme.Hint.Render("  Nothing here. Try another filter with Tab.")
	}

	s.adjustScroll(body)

	lines := []string{tabs}
	for i := s.scrollOffset; i < len(s.rows) && i-s.scrollOffset < body; i++ {
		r := s.rows[i]
		switch r.kind {
		case rowSubjectHeader:
			lines = append(lines, renderSubjectHeader(r.subject, width))
		case rowTopic:
			lines = append(lines, renderTopicRow(r.topic, i == s.cursor, width))
		}
	}
	return strings.Join(lines, "\n")
}

func (s *TopicsScreen) renderTabs() string {
	parts := make([]string, 0, len(s.filters))
	for i, f := range s.filters {
		label := strings.ToUpper(string(f))
		if i == s.filterIdx {
			parts = append(parts, lipgloss.NewStyle().Foreground(theme.BgDark).Background(theme.Primary).Bold(true).Padding(0, 1).Render(label))
		} else {
			parts = append(parts, lipgloss.NewStyle().Foreground(theme.TextDim).Padding(0, 1).Render(label))
		}
	}
	return "  " + strings.Join(parts, " ")
}

func (s *TopicsScreen) Title() string {
	if s.subjectID != "" {
		if ws, err := s.tracker.Active(); err == nil {
			if sub, ok := ws.Curriculum.Subject(s.subjectID); ok {
				return "Topics: " + sub.Name
			}
		}
	}
	return "Topics"
}

// KeyHints returns the key binding hints for the footer.
func (s *TopicsScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Tab", Description: "Filter"},
		{Key: "Enter", Description: "Details"},
		{Key: "x", Description: "Quiz"},
	}
	if s.tracker.AllowManualToggle() {
		hints = append(hints, layout.KeyHint{Key: "Space", Description: "Toggle"})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Back"})
}

// moveCursor moves the cursor by delta, skipping subject headers.
func (s *TopicsScreen) moveCursor(delta int) {
	next := s.cursor + delta
	for next >= 0 && next < len(s.rows) {
		if s.rows[next].kind == rowTopic {
			s.cursor = next
			return
		}
		next += delta
	}
}

// adjustScroll ensures the cursor is visible within the viewport.
func (s *TopicsScreen) adjustScroll(height int) {
	if height <= 0 {
		return
	}
	// Also show the subject header above the cursor if possible.
	headerRow := s.cursor
	for headerRow > 0 && s.rows[headerRow-1].kind == rowSubjectHeader {
		headerRow--
	}
	if headerRow < s.scrollOffset {
		s.scrollOffset = headerRow
	}
	if s.cursor >= s.scrollOffset+height {
		s.scrollOffset = s.cursor - height + 1
	}
}

func renderSubjectHeader(sub *curriculum.Subject, width int) string {
	return lipgloss.NewStyle().
		Foreground(theme.SubjectColor(sub.Color)).
		Bold(true).
		Width(width).
		Padding(0, 0, 0, 2).
		Render(strings.ToUpper(sub.Name))
}

func renderTopicRow(v tracker.TopicView, selected bool, width int) string {
	icon := theme.Pending.Render("○")
	if v.Completed {
		icon = theme.Done.Render("✓")
	}

	day := lipgloss.NewStyle().Foreground(theme.TextDim).Width(8).Render(fmt.Sprintf("Day %d", v.Topic.Day))
	score := ""
	if v.HasScore {
		score = lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf("best %d/10", v.BestScore))
	}

	titleStyle := theme.Unselected
	cursor := "  "
	if selected {
		titleStyle = theme.Selected
		cursor = theme.Selected.Render("▸ ")
	}

	titleWidth := max(width-lipgloss.Width(day)-lipgloss.Width(score)-14, 10)
	title := titleStyle.Width(titleWidth).Render(truncate(v.Topic.Title, titleWidth))
	return "  " + cursor + icon + " " + day + title + " " + score
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
