package components

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/studyplan/internal/ui/theme"
)

// ContentWidth returns the uniform inner width used for stacked panels so
// that they visually align.
func ContentWidth(frameWidth int) int {
	// Leave room for the outer border (2) and padding (4).
	w := frameWidth - 6
	return min(max(w, 20), 72)
}

// Center places content in the middle of a width x height area.
func Center(content string, width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

// Card wraps content in a rounded-border card at the given content width.
func Card(content string, cw int) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Width(cw - 2).
		Padding(0, 2).
		Render(content)
}

// StatTile renders a small labelled number for dashboards.
func StatTile(label, value string, width int) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Width(width).
		Align(lipgloss.Center).
		Render(
			lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Render(value) + "\n" +
				lipgloss.NewStyle().Foreground(theme.TextDim).Render(label),
		)
}

// Notice renders a one-line banner in the given color style.
func Notice(text string, style lipgloss.Style) string {
	return style.Padding(0, 1).Render(text)
}
