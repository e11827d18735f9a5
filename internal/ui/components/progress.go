package components

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/studyplan/internal/ui/theme"
)

const (
	barFilled = "█"
	barEmpty  = "░"
)

// ProgressBar draws completion as a row of block glyphs, optionally with a
// leading label and a trailing percentage.
type ProgressBar struct {
	Label       string
	Percent     float64
	ShowPercent bool
	Width       int
	Color       color.Color
}

// NewProgressBar takes percent as a fraction in [0, 1]; values outside the
// range are clamped when rendering.
func NewProgressBar(label string, percent float64, showPercent bool, width int) ProgressBar {
	return ProgressBar{
		Label:       label,
		Percent:     percent,
		ShowPercent: showPercent,
		Width:       width,
		Color:       theme.Secondary,
	}
}

// CountBar is a bar for done out of total topics. An empty total renders
// as an empty bar.
func CountBar(label string, done, total, width int) ProgressBar {
	frac := 0.0
	if total > 0 {
		frac = float64(done) / float64(total)
	}
	return NewProgressBar(label, frac, true, width)
}

// WithColor returns a copy of the bar filled with c.
func (p ProgressBar) WithColor(c color.Color) ProgressBar {
	p.Color = c
	return p
}

func (p ProgressBar) fraction() float64 {
	return min(max(p.Percent, 0), 1)
}

func (p ProgressBar) View() string {
	var prefix, suffix string
	if p.Label != "" {
		prefix = lipgloss.NewStyle().Foreground(theme.Text).Render(p.Label) + "  "
	}
	if p.ShowPercent {
		suffix = lipgloss.NewStyle().
			Foreground(theme.TextDim).
			Render(fmt.Sprintf(" %3d%%", int(p.fraction()*100+0.5)))
	}

	cells := max(p.Width-lipgloss.Width(prefix)-lipgloss.Width(suffix), 4)
	filled := int(float64(cells)*p.fraction() + 0.5)

	fill := p.Color
	if fill == nil {
		fill = theme.Secondary
	}
	return prefix +
		lipgloss.NewStyle().Foreground(fill).Render(strings.Repeat(barFilled, filled)) +
		lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat(barEmpty, cells-filled)) +
		suffix
}
