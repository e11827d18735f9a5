package components

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/studyplan/internal/ui/theme"
)

// MenuItem is one selectable row. Detail is rendered dimmed after the label.
type MenuItem struct {
	Label    string
	Detail   string
	Action   func() tea.Cmd
	Disabled bool
}

// Menu is a vertical list with a cursor that skips disabled rows.
type Menu struct {
	Items    []MenuItem
	Selected int
}

// NewMenu places the cursor on the first enabled item.
func NewMenu(items []MenuItem) Menu {
	m := Menu{Items: items}
	m.Selected = m.step(-1, 1)
	if m.Selected < 0 {
		m.Selected = 0
	}
	return m
}

// step returns the next enabled index from start in direction dir, or -1.
func (m Menu) step(start, dir int) int {
	for i := start + dir; i >= 0 && i < len(m.Items); i += dir {
		if !m.Items[i].Disabled {
			return i
		}
	}
	return -1
}

// Current returns the highlighted item.
func (m Menu) Current() (MenuItem, bool) {
	if m.Selected < 0 || m.Selected >= len(m.Items) {
		return MenuItem{}, false
	}
	return m.Items[m.Selected], true
}

func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	next := -1
	switch kmsg.String() {
	case "up", "k":
		next = m.step(m.Selected, -1)
	case "down", "j":
		next = m.step(m.Selected, 1)
	case "home", "g":
		next = m.step(-1, 1)
	case "end", "G":
		next = m.step(len(m.Items), -1)
	case "enter":
		if item, ok := m.Current(); ok && item.Action != nil && !item.Disabled {
			return m, item.Action()
		}
	}
	if next >= 0 {
		m.Selected = next
	}
	return m, nil
}

func (m Menu) View() string {
	labelWidth := 0
	for _, item := range m.Items {
		labelWidth = max(labelWidth, lipgloss.Width(item.Label))
	}
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)

	var b strings.Builder
	for i, item := range m.Items {
		label := item.Label + strings.Repeat(" ", labelWidth-lipgloss.Width(item.Label))
		switch {
		case item.Disabled:
			b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render("    " + label))
		case i == m.Selected:
			b.WriteString(theme.Selected.Render("  ▸ " + label))
		default:
			b.WriteString(theme.Unselected.Render("    " + label))
		}
		if item.Detail != "" {
			b.WriteString("  " + dim.Render(item.Detail))
		}
		b.WriteString("\n")
	}
	return b.String()
}
