// Package home is the learner dashboard.
package home

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/studyplan/internal/curriculum"
	"github.com/abhisek/studyplan/internal/router"
	"github.com/abhisek/studyplan/internal/screen"
	"github.com/abhisek/studyplan/internal/screens/actions"
	"github.com/abhisek/studyplan/internal/screens/help"
	"github.com/abhisek/studyplan/internal/screens/schedule"
	"github.com/abhisek/studyplan/internal/screens/subjects"
	"github.com/abhisek/studyplan/internal/screens/syncscreen"
	"github.com/abhisek/studyplan/internal/screens/topics"
	"github.com/abhisek/studyplan/internal/screens/users"
	"github.com/abhisek/studyplan/internal/stats"
	"github.com/abhisek/studyplan/internal/tracker"
	"github.com/abhisek/studyplan/internal/ui/components"
	"github.com/abhisek/studyplan/internal/ui/layout"
	"github.com/abhisek/studyplan/internal/ui/theme"
)

// maxTodayShown bounds the "today" list on the dashboard.
const maxTodayShown = 5

// Deps are what the dashboard needs to build the screens it links to.
type Deps struct {
	Tracker   *tracker.Tracker
	ExportDir string
}

// HomeScreen is the main dashboard for the active learner.
type HomeScreen struct {
	deps    Deps
	menu    components.Menu
	summary stats.Summary
	today   []tracker.TopicView
	quizzes int
	err     error
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.Refresher = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(deps Deps) *HomeScreen {
	h := &HomeScreen{deps: deps}
	t := deps.Tracker

	items := []components.MenuItem{
		{Label: "Today's topics", Action: func() tea.Cmd {
			return router.Push(topics.New(t, curriculum.FilterToday, ""))
		}},
		{Label: "All topics", Action: func() tea.Cmd {
			return router.Push(topics.New(t, curriculum.FilterAll, ""))
		}},
		{Label: "Subjects", Action: func() tea.Cmd {
			return router.Push(subjects.New(t))
		}},
		{Label: "Schedule", Action: func() tea.Cmd {
			return router.Push(schedule.New(t))
		}},
		{Label: "Sync", Action: func() tea.Cmd {
			return router.Push(syncscreen.New(t))
		}},
		{Label: "Export backup", Action: func() tea.Cmd {
			return actions.Export(t, deps.ExportDir)
		}},
		{Label: "Switch learner", Action: func() tea.Cmd {
			return router.Reset(users.New(t, func() screen.Screen { return New(deps) }))
		}},
		{Label: "Help", Action: func() tea.Cmd {
			return router.Push(help.New(t.AllowManualToggle()))
		}},
		{Label: "Quit", Action: func() tea.Cmd {
			return tea.Quit
		}},
	}
	h.menu = components.NewMenu(items)
	h.Refresh()
	return h
}

// Refresh reloads the summary and today's topics.
func (h *HomeScreen) Refresh() {
	t := h.deps.Tracker
	h.summary, h.err = t.Summary()
	if h.err != nil {
		return
	}
	h.today, h.err = t.Topics(curriculum.Query{Filter: curriculum.FilterToday})
	if h.err != nil {
		return
	}
	if a, err := t.Analytics(); err == nil {
		h.quizzes = a.QuizzesTaken
	}
}

func (h *HomeScreen) Init() tea.Cmd {
	return nil
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) Title() string {
	return "Dashboard"
}

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "s", Description: "Sync"},
		{Key: "e", Description: "Export"},
		{Key: "?", Description: "Help"},
		{Key: "q", Description: "Quit"},
	}
}

func (h *HomeScreen) View(width, height int) string {
	if h.err != nil {
		return components.Center(theme.Incorrect.Render(h.err.Error()), width, height)
	}
	cw := components.ContentWidth(width)
	compact := layout.IsCompactHeight(height + 6)

	var sections []string
	sections = append(sections, h.renderHeadline(cw))
	if !compact {
		sections = append(sections, h.renderTiles(cw))
	}
	sections = append(sections, h.renderProgress(cw))
	sections = append(sections, h.renderToday(cw, compact))

	left := strings.Join(sections, "\n\n")
	right := components.Card(h.menu.View(), 30)

	if width >= cw+36 {
		return components.Center(lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right), width, height)
	}
	return components.Center(left+"\n\n"+right, width, height)
}

func (h *HomeScreen) renderHeadline(cw int) string {
	name := ""
	title := ""
	if ws, err := h.deps.Tracker.Active(); err == nil {
		name = ws.User.DisplayName
		title = ws.Curriculum.Title()
	}
	s := h.summary
	head := theme.Heading.Render(fmt.Sprintf("Hi %s", name)) +
		lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf("  ·  Day %d of %d", s.CurrentDay, s.TotalDays))
	if title != "" {
		head += "\n" + theme.Hint.Render(title)
	}
	return head
}

func (h *HomeScreen) renderTiles(cw int) string {
	s := h.summary
	w := cw/4 - 2
	return lipgloss.JoinHorizontal(lipgloss.Top,
		components.StatTile("complete", fmt.Sprintf("%d%%", s.Overall.Percentage), w),
		components.StatTile("day streak", fmt.Sprint(s.Streak), w),
		components.StatTile("days left", fmt.Sprint(s.DaysLeft), w),
		components.StatTile("quizzes", fmt.Sprint(h.quizzes), w),
	)
}

func (h *HomeScreen) renderProgress(cw int) string {
	s := h.summary
	bar := components.CountBar(
		fmt.Sprintf("%d/%d topics", s.Overall.Completed, s.Overall.Total),
		s.Overall.Completed, s.Overall.Total, cw)
	return bar.View() + "\n" + theme.Hint.Render(stats.PaceMessage(s.Pace))
}

func (h *HomeScreen) renderToday(cw int, compact bool) string {
	var b strings.Builder
	b.WriteString(theme.Heading.Render("Today") + "\n")
	if len(h.today) == 0 {
		b.WriteString(theme.Hint.Render("Nothing scheduled today. Catch up on pending topics!"))
		return b.String()
	}
	limit := maxTodayShown
	if compact {
		limit = 2
	}
	for i, v := range h.today {
		if i == limit {
			b.WriteString(theme.Hint.Render(fmt.Sprintf("…and %d more", len(h.today)-i)))
			break
		}
		mark := theme.Pending.Render("○")
		if v.Completed {
			mark = theme.Done.Render("✓")
		}
		b.WriteString(fmt.Sprintf("%s %s %s\n", mark,
			lipgloss.NewStyle().Foreground(theme.SubjectColor(v.Subject.Color)).Render(v.Subject.Name),
			theme.Body.Render(v.Topic.Title)))
	}
	return strings.TrimRight(b.String(), "\n")
}
