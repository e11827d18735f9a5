package subjects

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/studyplan/internal/router"
	"github.com/abhisek/studyplan/internal/screens/topics"
	"github.com/abhisek/studyplan/internal/tracker/trackertest"
)

func TestSubjectsShowCountsAndUnits(t *testing.T) {
	env := trackertest.New(t, nil)
	ctx := t.Context()
	if err := env.Tracker.Select(ctx, "alice"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Tracker.Toggle(ctx, "m1"); err != nil {
		t.Fatal(err)
	}

	s := New(env.Tracker)
	view := s.View(100, 40)
	for _, want := range []string{"Mathematics", "1/2", "Science", "0/2", "Algebra"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if !strings.Contains(s.View(100, 40), "Physics") {
		t.Error("moving down should show science units")
	}
}

func TestEnterOpensSubjectTopics(t *testing.T) {
	env := trackertest.New(t, nil)
	if err := env.Tracker.Select(t.Context(), "alice"); err != nil {
		t.Fatal(err)
	}
	s := New(env.Tracker)
	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	push, ok := cmd().(router.PushScreenMsg)
	if !ok {
		t.Fatalf("expected PushScreenMsg, got %T", cmd())
	}
	ts, ok := push.Screen.(*topics.TopicsScreen)
	if !ok {
		t.Fatalf("expected topics screen, got %T", push.Screen)
	}
	if ts.Title() != "Topics: Science" {
		t.Errorf("unexpected title %q", ts.Title())
	}
}

func TestNoActiveUserShowsError(t *testing.T) {
	env := trackertest.New(t, nil)
	s := New(env.Tracker)
	if !strings.Contains(s.View(100, 30), "no active user") {
		t.Error("expected error view without an active user")
	}
}
