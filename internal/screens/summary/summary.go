// Package summary shows the result of a finished quiz.
package summary

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/studyplan/internal/quiz"
	"github.com/abhisek/studyplan/internal/router"
	"github.com/abhisek/studyplan/internal/screen"
	"github.com/abhisek/studyplan/internal/tracker"
	"github.com/abhisek/studyplan/internal/ui/components"
	"github.com/abhisek/studyplan/internal/ui/layout"
	"github.com/abhisek/studyplan/internal/ui/theme"
)

// maxMistakesShown bounds the review list so it fits a small terminal.
const maxMistakesShown = 5

// SummaryScreen displays the quiz result.
type SummaryScreen struct {
	outcome tracker.Outcome
	retry   func() tea.Cmd
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// New creates a SummaryScreen. retry, when set, restarts a quiz on the
// same topic.
func New(outcome tracker.Outcome, retry func() tea.Cmd) *SummaryScreen {
	return &SummaryScreen{outcome: outcome, retry: retry}
}

func (s *SummaryScreen) Init() tea.Cmd {
	return nil
}

func (s *SummaryScreen) Title() string {
	return "Quiz Result"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{{Key: "Enter", Description: "Continue"}}
	if s.retry != nil && !s.outcome.Result.Passed {
		hints = append(hints, layout.KeyHint{Key: "r", Description: "Try again"})
	}
	return hints
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		switch kmsg.String() {
		case "enter", "space":
			return s, router.Pop()
		case "r":
			if s.retry != nil {
				return s, s.retry()
			}
		}
	}
	return s, nil
}

func (s *SummaryScreen) View(width, height int) string {
	res := s.outcome.Result
	cw := components.ContentWidth(width)

	var sections []string

	if s.outcome.Topic.Topic != nil {
		sections = append(sections, theme.Title.Width(cw).Render(s.outcome.Topic.Topic.Title))
	}

	scoreColor := theme.Error
	verdict := fmt.Sprintf("Not yet. You need %d of %d to pass.", quiz.PassThreshold, res.Total)
	if res.Passed {
		scoreColor = theme.Success
		verdict = "Passed!"
	}
	sections = append(sections,
		lipgloss.NewStyle().Foreground(scoreColor).Bold(true).Width(cw).Align(lipgloss.Center).
			Render(fmt.Sprintf("%d / %d", res.Score, res.Total)),
		lipgloss.NewStyle().Foreground(theme.Text).Width(cw).Align(lipgloss.Center).Render(verdict),
	)

	if s.outcome.NewlyCompleted {
		sections = append(sections, lipgloss.NewStyle().
			Foreground(theme.Highlight).Bold(true).Width(cw).Align(lipgloss.Center).
			Render("★ Topic complete! ★"))
	}

	if len(res.Attempt.IncorrectAnswers) > 0 {
		sections = append(sections, renderMistakes(res, cw))
	}

	return components.Center(strings.Join(sections, "\n\n"), width, height)
}

func renderMistakes(res quiz.Result, cw int) string {
	var b strings.Builder
	b.WriteString(theme.Heading.Render("Review") + "\n")
	for i, m := range res.Attempt.IncorrectAnswers {
		if i == maxMistakesShown {
			b.WriteString(theme.Hint.Render(fmt.Sprintf("…and %d more", len(res.Attempt.IncorrectAnswers)-i)))
			break
		}
		b.WriteString(theme.Body.Render(m.QuestionText) + "\n")
		b.WriteString("  " + theme.Incorrect.Render("✗ "+m.ChosenText) +
			"   " + theme.Correct.Render("✓ "+m.CorrectText) + "\n")
	}
	return components.Card(strings.TrimRight(b.String(), "\n"), cw)
}
