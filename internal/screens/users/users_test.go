package users

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/studyplan/internal/router"
	"github.com/abhisek/studyplan/internal/screen"
	"github.com/abhisek/studyplan/internal/screens/actions"
	"github.com/abhisek/studyplan/internal/tracker/trackertest"
)

type stubScreen struct{}

func (s *stubScreen) Init() tea.Cmd                          { return nil }
func (s *stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s *stubScreen) View(int, int) string                   { return "dash" }
func (s *stubScreen) Title() string                          { return "Dashboard" }

func next() screen.Screen { return &stubScreen{} }

func TestListsRoster(t *testing.T) {
	env := trackertest.New(t, nil)
	s := New(env.Tracker, next)

	view := s.View(100, 30)
	for _, name := range []string{"Alice", "Bob"} {
		if !strings.Contains(view, name) {
			t.Errorf("view missing %q", name)
		}
	}
}

func TestSelectActivatesUserAndResets(t *testing.T) {
	env := trackertest.New(t, nil)
	s := New(env.Tracker, next)

	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a select command")
	}
	msg := cmd()
	sel, ok := msg.(selectedMsg)
	if !ok {
		t.Fatalf("expected selectedMsg, got %T", msg)
	}
	if sel.err != nil || sel.id != "bob" {
		t.Fatalf("unexpected selection %+v", sel)
	}

	ws, err := env.Tracker.Active()
	if err != nil || ws.User.ID != "bob" {
		t.Fatalf("expected bob active, got %v %v", ws, err)
	}

	_, cmd = s.Update(msg)
	if _, ok := cmd().(router.ResetScreenMsg); !ok {
		t.Error("expected ResetScreenMsg after selection")
	}
}

func TestSelectFailureShowsNotice(t *testing.T) {
	env := trackertest.New(t, nil)
	s := New(env.Tracker, next)

	_, cmd := s.Update(selectedMsg{id: "alice", err: errBoom{}})
	notice, ok := cmd().(actions.NoticeMsg)
	if !ok || !notice.Err {
		t.Fatalf("expected error notice, got %#v", cmd())
	}
}

func TestCurrentUserPreselected(t *testing.T) {
	env := trackertest.New(t, nil)
	if err := env.Tracker.Select(t.Context(), "bob"); err != nil {
		t.Fatal(err)
	}
	s := New(env.Tracker, next)
	if s.menu.Selected != 1 {
		t.Errorf("expected bob preselected, got %d", s.menu.Selected)
	}
	if !strings.Contains(s.View(100, 30), "(current)") {
		t.Error("expected current marker")
	}
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }
