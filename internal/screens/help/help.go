// Package help lists the key bindings and how completion works.
package help

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/studyplan/internal/quiz"
	"github.com/abhisek/studyplan/internal/screen"
	"github.com/abhisek/studyplan/internal/ui/components"
	"github.com/abhisek/studyplan/internal/ui/theme"
)

type binding struct {
	key, desc string
}

var global = []binding{
	{"s", "sync now (settings if no remote)"},
	{"e", "export a backup"},
	{"?", "this help"},
	{"esc", "back"},
	{"q / ctrl+c", "quit"},
}

var topicKeys = []binding{
	{"tab / ←→", "change filter"},
	{"enter", "topic details"},
	{"x", "take the quiz"},
	{"space / t", "toggle complete"},
}

// HelpScreen is a static reference card.
type HelpScreen struct {
	allowToggle bool
}

var _ screen.Screen = (*HelpScreen)(nil)

// New creates a HelpScreen. allowToggle controls whether manual toggling
// is described.
func New(allowToggle bool) *HelpScreen {
	return &HelpScreen{allowToggle: allowToggle}
}

func (h *HelpScreen) Init() tea.Cmd { return nil }

func (h *HelpScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) { return h, nil }

func (h *HelpScreen) Title() string { return "Help" }

func (h *HelpScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString(theme.Heading.Render("Anywhere") + "\n")
	writeBindings(&b, global)
	b.WriteString("\n" + theme.Heading.Render("Topics") + "\n")
	keys := topicKeys
	if !h.allowToggle {
		keys = keys[:len(keys)-1]
	}
	writeBindings(&b, keys)

	b.WriteString("\n" + theme.Heading.Render("Quizzes") + "\n")
	b.WriteString(theme.Body.Render(fmt.Sprintf(
		"Each quiz has %d questions. Score %d or more to complete the topic.",
		quiz.SessionSize, quiz.PassThreshold)) + "\n")
	if !h.allowToggle {
		b.WriteString(theme.Hint.Render("Manual toggling is disabled: passing the quiz is the only way to complete a topic.") + "\n")
	}

	return components.Center(components.Card(strings.TrimRight(b.String(), "\n"), components.ContentWidth(width)), width, height)
}

func writeBindings(b *strings.Builder, bs []binding) {
	keyStyle := lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Width(12)
	for _, k := range bs {
		b.WriteString("  " + keyStyle.Render(k.key) + theme.Hint.Render(k.desc) + "\n")
	}
}
