package welcome

import (
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/studyplan/internal/router"
	"github.com/abhisek/studyplan/internal/screen"
	"github.com/abhisek/studyplan/internal/ui/theme"
)

const (
	tickInterval = 100 * time.Millisecond
	phase1End    = 500 * time.Millisecond
	phase2End    = 1500 * time.Millisecond
	totalDur     = 3000 * time.Millisecond
)

const bookArt = `    ________________
   /  ____  ____  /|
  /  /___/ /___/ / |
 /______________/  |
 |  ✓ day 1     |  /
 |  ✓ day 2     | /
 |  ○ day 3     |/
 ‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾`

// pulse frames cycle beside the book once it is drawn.
var pulseFrames = []string{"✦", "·"}

type tickMsg time.Time

// WelcomeScreen shows a short splash before handing over to the next
// screen, which is built lazily by next.
type WelcomeScreen struct {
	next         func() screen.Screen
	tagline      string
	elapsed      time.Duration
	tickCount    int
	transitioned bool
}

var _ screen.Screen = (*WelcomeScreen)(nil)

// New creates a WelcomeScreen that replaces itself with next() on any key.
// tagline is usually the curriculum title or a greeting.
func New(tagline string, next func() screen.Screen) *WelcomeScreen {
	if tagline == "" {
		tagline = "One topic a day."
	}
	return &WelcomeScreen{next: next, tagline: tagline}
}

func (w *WelcomeScreen) Title() string {
	return ""
}

func (w *WelcomeScreen) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (w *WelcomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg.(type) {
	case tickMsg:
		if w.transitioned {
			return w, nil
		}
		if w.elapsed < totalDur {
			w.elapsed += tickInterval
		}
		w.tickCount++
		return w, tick()

	case tea.KeyPressMsg:
		return w, w.transition()
	}

	return w, nil
}

func (w *WelcomeScreen) transition() tea.Cmd {
	if w.transitioned {
		return nil
	}
	w.transitioned = true
	return router.Replace(w.next())
}

func (w *WelcomeScreen) View(width, height int) string {
	art := lipgloss.NewStyle().Foreground(theme.Secondary).Render(bookArt)

	if w.elapsed >= phase1End {
		p := lipgloss.NewStyle().Foreground(theme.Accent).Render(pulseFrames[w.tickCount%len(pulseFrames)])
		lines := strings.Split(art, "\n")
		for _, i := range []int{1, 4, 7} {
			if i < len(lines) {
				lines[i] = p + "  " + lines[i] + "  " + p
			}
		}
		art = strings.Join(lines, "\n")
	}

	sections := []string{art}

	if w.elapsed >= phase2End {
		sections = append(sections,
			"",
			RenderBanner(width),
			"",
			lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(w.tagline),
			"",
			theme.Hint.Render("press any key to continue"),
		)
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, strings.Join(sections, "\n"))
}
