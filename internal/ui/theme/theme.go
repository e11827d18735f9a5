package theme

import (
	"image/color"

	"charm.land/lipgloss/v2"
)

// Color palette, calm enough for long study sessions.
var (
	Primary   = lipgloss.Color("#6366F1") // Indigo
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F59E0B") // Amber
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	BgDark    = lipgloss.Color("#0F172A") // Deep Navy
	BgCard    = lipgloss.Color("#1E293B") // Dark Slate
	Border    = lipgloss.Color("#334155") // Slate
	Highlight = lipgloss.Color("#FACC15") // Yellow
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		Align(lipgloss.Center)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim).
			Align(lipgloss.Center)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Heading = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)
)

// States
var (
	Selected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	Unselected = lipgloss.NewStyle().
			Foreground(Text)

	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	Done = lipgloss.NewStyle().
		Foreground(Success)

	Pending = lipgloss.NewStyle().
		Foreground(TextDim)
)

// Day cells of the schedule grid.
var (
	DayComplete = lipgloss.NewStyle().Foreground(Success).Bold(true)
	DayPartial  = lipgloss.NewStyle().Foreground(Accent)
	DayEmpty    = lipgloss.NewStyle().Foreground(Border)
	DayToday    = lipgloss.NewStyle().Foreground(Highlight).Bold(true).Underline(true)
	DayBuffer   = lipgloss.NewStyle().Foreground(Secondary).Italic(true)
)

// SubjectColor parses a curriculum subject color such as "#3B82F6",
// falling back to Primary when it is empty.
func SubjectColor(hex string) color.Color {
	if hex == "" {
		return Primary
	}
	return lipgloss.Color(hex)
}
