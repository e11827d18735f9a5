package topics

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/studyplan/internal/progress"
	"github.com/abhisek/studyplan/internal/questionbank"
	"github.com/abhisek/studyplan/internal/screen"
	"github.com/abhisek/studyplan/internal/screens/actions"
	"github.com/abhisek/studyplan/internal/screens/session"
	"github.com/abhisek/studyplan/internal/tracker"
	"github.com/abhisek/studyplan/internal/ui/components"
	"github.com/abhisek/studyplan/internal/ui/layout"
	"github.com/abhisek/studyplan/internal/ui/theme"
)

// maxAttemptsShown bounds the attempt history on the detail screen.
const maxAttemptsShown = 6

// DetailScreen shows one topic with its quiz history.
type DetailScreen struct {
	tracker  *tracker.Tracker
	topicID  string
	view     tracker.TopicView
	attempts []progress.Attempt
	err      error
}

var _ screen.Screen = (*DetailScreen)(nil)
var _ screen.KeyHintProvider = (*DetailScreen)(nil)
var _ screen.Refresher = (*DetailScreen)(nil)

func newDetail(t *tracker.Tracker, topicID string) *DetailScreen {
	d := &DetailScreen{tracker: t, topicID: topicID}
	d.Refresh()
	return d
}

// Refresh reloads the topic state and attempts.
func (d *DetailScreen) Refresh() {
	d.view, d.err = d.tracker.Topic(d.topicID)
	if d.err == nil {
		d.attempts, d.err = d.tracker.Attempts(d.topicID)
	}
}

func (d *DetailScreen) Init() tea.Cmd { return nil }

func (d *DetailScreen) Title() string {
	if d.view.Topic != nil {
		return d.view.Topic.Title
	}
	return "Topic"
}

func (d *DetailScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || d.err != nil {
		return d, nil
	}
	switch kmsg.String() {
	case "enter", "x":
		return d, session.Start(d.tracker, d.topicID)
	case "space", "t":
		done, err := d.tracker.Toggle(context.Background(), d.topicID)
		if err != nil {
			return d, actions.Fail(err)
		}
		d.Refresh()
		if done {
			return d, actions.Notify("Marked complete")
		}
		return d, actions.Notify("Marked not done")
	}
	return d, nil
}

func (d *DetailScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{{Key: "Enter", Description: "Take quiz"}}
	if d.tracker.AllowManualToggle() {
		hints = append(hints, layout.KeyHint{Key: "Space", Description: "Toggle"})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Back"})
}

func (d *DetailScreen) View(width, height int) string {
	if d.err != nil {
		return components.Center(theme.Incorrect.Render(d.err.Error()), width, height)
	}
	v := d.view
	cw := components.ContentWidth(width)

	var b strings.Builder

	status := theme.Pending.Render("○ Not done")
	if v.Completed {
		status = theme.Done.Render("✓ Completed")
	}
	b.WriteString(lipgloss.NewStyle().Foreground(theme.SubjectColor(v.Subject.Color)).Bold(true).Render(v.Topic.Title) + "\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render(
		fmt.Sprintf("%s › %s › Day %d", v.Subject.Name, v.Unit.Name, v.Topic.Day)) + "\n")
	b.WriteString(status + "\n")

	if len(v.Topic.Subtopics) > 0 {
		b.WriteString("\n" + theme.Heading.Render("Subtopics") + "\n")
		for _, st := range v.Topic.Subtopics {
			b.WriteString(theme.Body.Render("  • "+st) + "\n")
		}
	}

	b.WriteString("\n" + theme.Hint.Render(poolLine(v)) + "\n")

	b.WriteString("\n" + theme.Heading.Render("Quiz history") + "\n")
	if len(d.attempts) == 0 {
		b.WriteString(theme.Hint.Render("  No attempts yet. Score 8/10 to complete the topic.") + "\n")
	}
	// Newest first.
	for i := len(d.attempts) - 1; i >= 0 && len(d.attempts)-i <= maxAttemptsShown; i-- {
		a := d.attempts[i]
		mark := theme.Incorrect.Render("✗")
		if a.Passed {
			mark = theme.Correct.Render("✓")
		}
		b.WriteString(fmt.Sprintf("  %s %s  %d/10\n", mark,
			lipgloss.NewStyle().Foreground(theme.TextDim).Render(a.Date.Local().Format("Jan 2 15:04")), a.Score))
	}

	return components.Center(components.Card(strings.TrimRight(b.String(), "\n"), cw), width, height)
}

func poolLine(v tracker.TopicView) string {
	line := fmt.Sprintf("Question pool: %d topic questions", v.OwnQuestions)
	if v.OwnQuestions < questionbank.MinPoolSize {
		line += fmt.Sprintf("\nQuizzes use the %d general review questions", v.DefaultQuestions)
	}
	return line
}
