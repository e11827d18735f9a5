package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/studyplan/internal/ui/theme"
)

const (
	MinWidth  = 80
	MinHeight = 24

	CompactHeightThreshold = 30
)

// KeyHint represents a key binding hint shown in the footer.
type KeyHint struct {
	Key         string
	Description string
}

// HeaderInfo is the learner context shown on the right of the header.
type HeaderInfo struct {
	User   string
	Streak int
	Sync   string
}

// IsCompactHeight returns true if the terminal height is in compact range.
func IsCompactHeight(height int) bool {
	return height < CompactHeightThreshold
}

// IsTooSmall returns true if the terminal is below minimum size.
func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// RenderMinSizeMessage renders the "terminal too small" message.
func RenderMinSizeMessage(width, height int) string {
	return lipgloss.NewStyle().
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Width(width).
		Height(height).
		Render(fmt.Sprintf(
			"Terminal too small!\n\nPlease resize to at\nleast %d x %d\n\nCurrent: %d x %d",
			MinWidth, MinHeight, width, height,
		))
}

// RenderHeader renders the application header bar.
func RenderHeader(title string, info HeaderInfo, width int) string {
	left := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true).
		Render("  StudyPlan")

	center := lipgloss.NewStyle().
		Foreground(theme.Text).
		Render(title)

	var right string
	if info.User != "" {
		dim := lipgloss.NewStyle().Foreground(theme.TextDim)
		right = lipgloss.NewStyle().Foreground(theme.Secondary).Render(info.User) +
			dim.Render("   ") +
			lipgloss.NewStyle().Foreground(theme.Accent).Render(fmt.Sprintf("★ %d day", info.Streak)) +
			dim.Render("   ") +
			syncBadge(info.Sync)
	}

	leftLen := lipgloss.Width(left)
	centerLen := lipgloss.Width(center)
	rightLen := lipgloss.Width(right)

	innerWidth := width - 4
	if innerWidth < 0 {
		innerWidth = 0
	}

	leftGap := (innerWidth-centerLen)/2 - leftLen
	if leftGap < 1 {
		leftGap = 1
	}
	rightGap := innerWidth - leftLen - leftGap - centerLen - rightLen
	if rightGap < 1 {
		rightGap = 1
	}

	content := left + strings.Repeat(" ", leftGap) + center + strings.Repeat(" ", rightGap) + right

	return lipgloss.NewStyle().
		Width(width).
		Background(theme.BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Render(content)
}

func syncBadge(status string) string {
	switch status {
	case "synced":
		return lipgloss.NewStyle().Foreground(theme.Success).Render("● synced")
	case "syncing":
		return lipgloss.NewStyle().Foreground(theme.Accent).Render("◌ syncing")
	case "error":
		return lipgloss.NewStyle().Foreground(theme.Error).Render("✗ sync error")
	default:
		return lipgloss.NewStyle().Foreground(theme.TextDim).Render("○ local")
	}
}

// RenderFooter renders key hints, dropping trailing ones that would not
// fit inside the border and marking the cut with an ellipsis.
func RenderFooter(hints []KeyHint, width int) string {
	const sep = "   "
	avail := width - 6
	keyStyle := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(theme.TextDim)

	var b strings.Builder
	used := 0
	for i, h := range hints {
		part := keyStyle.Render(h.Key) + " " + descStyle.Render(h.Description)
		w := lipgloss.Width(part)
		if i > 0 {
			w += len(sep)
		}
		if used+w > avail {
			b.WriteString(descStyle.Render(" …"))
			break
		}
		if i > 0 {
			b.WriteString(sep)
		}
		b.WriteString(part)
		used += w
	}

	return lipgloss.NewStyle().
		Width(width).
		Background(theme.BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Render("  " + b.String())
}

// RenderFrame composes the full frame: header + content + footer.
func RenderFrame(header, content, footer string, width, height int) string {
	contentHeight := height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 0 {
		contentHeight = 0
	}

	styledContent := lipgloss.NewStyle().
		Width(width).
		Height(contentHeight).
		Render(content)

	return header + "\n" + styledContent + "\n" + footer
}
