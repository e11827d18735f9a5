package session

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/studyplan/internal/quiz"
	"github.com/abhisek/studyplan/internal/ui/components"
	"github.com/abhisek/studyplan/internal/ui/theme"
)

func (s *SessionScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	if s.err != nil {
		return components.Center(theme.Incorrect.Render(s.err.Error()), width, height)
	}

	var b strings.Builder

	if s.entry.Topic != nil {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render(
			fmt.Sprintf("%s › %s › Day %d", s.entry.Subject.Name, s.entry.Unit.Name, s.entry.Topic.Day)) + "\n")
	}

	st := s.session.Snapshot()
	pos, total := st.Index+1, st.Len
	info := lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).
		Render(fmt.Sprintf("Question %d of %d", pos, total))
	score := lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf("   %s %d   %s %d",
		theme.Correct.Render("✓"), st.Correct,
		theme.Incorrect.Render("✗"), st.Incorrect))
	b.WriteString(info + score + "\n")
	b.WriteString(components.NewProgressBar("", float64(pos-1)/float64(total), false, cw-4).View() + "\n\n")

	if st.Phase == quiz.PhaseInProgress {
		b.WriteString(theme.Hint.Render(string(st.Item.Question.Difficulty)) + "\n")
	}
	b.WriteString(s.choice.View())

	if s.answer != nil {
		b.WriteString("\n")
		if s.answer.Correct {
			b.WriteString(theme.Correct.Render("Correct!"))
		} else {
			b.WriteString(theme.Incorrect.Render("Not quite.") + " " +
				theme.Body.Render("Answer: "+s.answer.CorrectText))
		}
		b.WriteString("\n")
	}

	if s.session.UsedDefaultPool {
		b.WriteString("\n" + theme.Hint.Render("General review questions: this topic has too few of its own."))
	}

	return components.Center(components.Card(b.String(), cw), width, height)
}
