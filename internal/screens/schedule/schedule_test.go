package schedule

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/studyplan/internal/stats"
	"github.com/abhisek/studyplan/internal/tracker/trackertest"
)

func newScreen(t *testing.T) *ScheduleScreen {
	t.Helper()
	env := trackertest.New(t, nil)
	if err := env.Tracker.Select(t.Context(), "alice"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Tracker.Toggle(t.Context(), "m1"); err != nil {
		t.Fatal(err)
	}
	return New(env.Tracker)
}

func TestCursorStartsOnToday(t *testing.T) {
	s := newScreen(t)
	if got := s.Selected(); got.Day != 2 || !got.Current {
		t.Fatalf("expected current day 2 selected, got %+v", got)
	}
	view := s.View(100, 30)
	if !strings.Contains(view, "Quadratics") {
		t.Error("selected day should list its topics")
	}
}

func TestNavigateToPartialAndBufferDays(t *testing.T) {
	s := newScreen(t)

	s.Update(tea.KeyPressMsg{Code: tea.KeyLeft})
	if got := s.Selected(); got.Day != 1 || got.State != stats.DayPartial {
		t.Fatalf("expected partial day 1, got %+v", got)
	}
	if !strings.Contains(s.View(100, 30), "1/2 done") {
		t.Error("expected day tally")
	}

	s.Update(tea.KeyPressMsg{Code: tea.KeyRight})
	s.Update(tea.KeyPressMsg{Code: tea.KeyRight})
	s.Update(tea.KeyPressMsg{Code: tea.KeyRight})
	if got := s.Selected(); got.State != stats.DayBuffer {
		t.Fatalf("expected buffer day 4, got %+v", got)
	}
	if !strings.Contains(s.View(100, 30), "Buffer day") {
		t.Error("expected buffer-day hint")
	}
}

func TestCursorStaysInBounds(t *testing.T) {
	s := newScreen(t)
	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if s.Selected().Day != 2 {
		t.Errorf("down past the last row should be ignored, got day %d", s.Selected().Day)
	}
	for range 5 {
		s.Update(tea.KeyPressMsg{Code: tea.KeyLeft})
	}
	if s.Selected().Day != 1 {
		t.Errorf("expected to stop at day 1, got %d", s.Selected().Day)
	}
}

func TestShortName(t *testing.T) {
	if shortName("MA", "Mathematics") != "MA" || shortName("", "Science") != "SCI" {
		t.Error("unexpected short names")
	}
}
