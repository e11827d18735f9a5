package router

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/studyplan/internal/screen"
)

// PushScreenMsg requests the router to push a new screen onto the stack.
type PushScreenMsg struct {
	Screen screen.Screen
}

// PopScreenMsg requests the router to pop the current screen off the stack.
type PopScreenMsg struct{}

// ReplaceScreenMsg swaps the active screen without changing stack depth.
type ReplaceScreenMsg struct {
	Screen screen.Screen
}

// ResetScreenMsg discards the whole stack and starts over from Screen.
type ResetScreenMsg struct {
	Screen screen.Screen
}

// Push returns a command that pushes s.
func Push(s screen.Screen) tea.Cmd {
	return func() tea.Msg { return PushScreenMsg{Screen: s} }
}

// Pop returns a command that pops the active screen.
func Pop() tea.Cmd {
	return func() tea.Msg { return PopScreenMsg{} }
}

// Replace returns a command that replaces the active screen with s.
func Replace(s screen.Screen) tea.Cmd {
	return func() tea.Msg { return ReplaceScreenMsg{Screen: s} }
}

// Reset returns a command that makes s the only screen.
func Reset(s screen.Screen) tea.Cmd {
	return func() tea.Msg { return ResetScreenMsg{Screen: s} }
}

// Router manages a stack of screens.
type Router struct {
	stack []screen.Screen
}

// New creates a new Router with the given initial screen.
func New(initial screen.Screen) *Router {
	return &Router{
		stack: []screen.Screen{initial},
	}
}

// Push adds a screen on top of the stack and calls its Init().
func (r *Router) Push(s screen.Screen) tea.Cmd {
	r.stack = append(r.stack, s)
	return s.Init()
}

// Pop removes the top screen. No-op if stack depth would become 0.
// The popped screen is told it is being left and the newly exposed screen
// is refreshed when it caches state.
func (r *Router) Pop() tea.Cmd {
	if len(r.stack) <= 1 {
		return nil
	}
	if l, ok := r.Active().(screen.Leaver); ok {
		l.Leave()
	}
	r.stack = r.stack[:len(r.stack)-1]
	if rf, ok := r.Active().(screen.Refresher); ok {
		rf.Refresh()
	}
	return nil
}

// Replace swaps the top screen for s and calls its Init().
func (r *Router) Replace(s screen.Screen) tea.Cmd {
	if len(r.stack) == 0 {
		r.stack = []screen.Screen{s}
	} else {
		r.stack[len(r.stack)-1] = s
	}
	return s.Init()
}

// Reset replaces the whole stack with s.
func (r *Router) Reset(s screen.Screen) tea.Cmd {
	r.stack = []screen.Screen{s}
	return s.Init()
}

// Active returns the top screen on the stack.
func (r *Router) Active() screen.Screen {
	if len(r.stack) == 0 {
		return nil
	}
	return r.stack[len(r.stack)-1]
}

// Depth returns the number of screens on the stack.
func (r *Router) Depth() int {
	return len(r.stack)
}

// Update forwards a message to the active screen and handles navigation messages.
func (r *Router) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case PushScreenMsg:
		return r.Push(msg.Screen)
	case PopScreenMsg:
		return r.Pop()
	case ReplaceScreenMsg:
		return r.Replace(msg.Screen)
	case ResetScreenMsg:
		return r.Reset(msg.Screen)
	}

	active := r.Active()
	if active == nil {
		return nil
	}

	updated, cmd := active.Update(msg)
	r.stack[len(r.stack)-1] = updated
	return cmd
}

// View renders the active screen.
func (r *Router) View(width, height int) string {
	active := r.Active()
	if active == nil {
		return ""
	}
	return active.View(width, height)
}
