package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/studyplan/internal/ui/layout"
)

// Screen defines the interface for all application screens.
type Screen interface {
	// Init returns an initial command when the screen is first created.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is an optional interface that screens can implement
// to provide custom footer key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// InputCapturer is implemented by screens that are reading free text and
// need single-letter keys delivered to them instead of the global bindings.
type InputCapturer interface {
	CapturingInput() bool
}

// Refresher is implemented by screens that cache tracker views and need to
// reload them when they become active again.
type Refresher interface {
	Refresh()
}

// Leaver is implemented by screens that hold state which must be released
// when the user backs out of them.
type Leaver interface {
	Leave()
}
