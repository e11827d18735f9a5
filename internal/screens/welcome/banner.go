package welcome

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/studyplan/internal/ui/theme"
)

const bannerArt = `
 ███████╗████████╗██╗   ██╗██████╗ ██╗   ██╗██████╗ ██╗      █████╗ ███╗   ██╗
 ██╔════╝╚══██╔══╝██║   ██║██╔══██╗╚██╗ ██╔╝██╔══██╗██║     ██╔══██╗████╗  ██║
 ███████╗   ██║   ██║   ██║██║  ██║ ╚████╔╝ ██████╔╝██║     ███████║██╔██╗ ██║
 ╚════██║   ██║   ██║   ██║██║  ██║  ╚██╔╝  ██╔═══╝ ██║     ██╔══██║██║╚██╗██║
 ███████║   ██║   ╚██████╔╝██████╔╝   ██║   ██║     ███████╗██║  ██║██║ ╚████║
 ╚══════╝   ╚═╝    ╚═════╝ ╚═════╝    ╚═╝   ╚═╝     ╚══════╝╚═╝  ╚═╝╚═╝  ╚═══╝`

const bannerCompact = "S T U D Y P L A N"

// bannerWidth is the widest line of bannerArt.
const bannerWidth = 78

// RenderBanner returns the STUDYPLAN banner styled in the primary color.
// Uses a compact fallback for terminals too narrow for the block letters.
func RenderBanner(width int) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	if width < bannerWidth+4 {
		return style.Render(bannerCompact)
	}
	return style.Render(bannerArt)
}
