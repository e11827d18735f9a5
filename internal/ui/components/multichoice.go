package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/studyplan/internal/ui/theme"
)

// MultiChoice is a multiple-choice selector component.
type MultiChoice struct {
	Question     string
	Options      []string
	CorrectIndex int
	Selected     int
	Submitted    bool
	ChosenIndex  int
}

// NewMultiChoice creates a new multiple-choice component.
func NewMultiChoice(question string, options []string, correctIndex int) MultiChoice {
	return MultiChoice{
		Question:     question,
		Options:      options,
		CorrectIndex: correctIndex,
		ChosenIndex:  -1,
	}
}

// OptionLabel returns the letter shown before option i.
func OptionLabel(i int) string {
	return string(rune('A' + i))
}

// Update handles keyboard navigation and selection. Letters and digits
// jump straight to an option; enter submits the highlighted one.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, tea.Cmd) {
	if m.Submitted {
		return m, nil
	}

	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
	case "down", "j":
		if m.Selected < len(m.Options)-1 {
			m.Selected++
		}
	case "enter":
		m.Submitted = true
		m.ChosenIndex = m.Selected
	default:
		if i, ok := m.shortcut(key); ok {
			m.Selected = i
		}
	}

	return m, nil
}

func (m MultiChoice) shortcut(key string) (int, bool) {
	if len(key) != 1 {
		return 0, false
	}
	c := key[0]
	var i int
	switch {
	case c >= '1' && c <= '9':
		i = int(c - '1')
	case c >= 'a' && c <= 'z':
		i = int(c - 'a')
	default:
		return 0, false
	}
	return i, i < len(m.Options)
}

// View renders the multiple-choice component.
func (m MultiChoice) View() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(m.Question) + "\n\n")

	for i, opt := range m.Options {
		prefix := "  "
		if i == m.Selected && !m.Submitted {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%s)  %s", prefix, OptionLabel(i), opt)

		var style lipgloss.Style
		switch {
		case m.Submitted && i == m.CorrectIndex:
			style = theme.Correct
		case m.Submitted && i == m.ChosenIndex:
			style = theme.Incorrect
		case m.Submitted:
			style = lipgloss.NewStyle().Foreground(theme.TextDim)
		case i == m.Selected:
			style = theme.Selected
		default:
			style = theme.Unselected
		}
		b.WriteString(style.Render(line) + "\n")
	}

	return b.String()
}

// IsCorrect returns true if the user chose the correct answer.
func (m MultiChoice) IsCorrect() bool {
	return m.Submitted && m.ChosenIndex == m.CorrectIndex
}
