package stats

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/abhisek/studyplan/internal/curriculum"
)

// testIndex schedules two math topics per day on days 1-5, one physics
// topic on days 1-3, a buffer day on 6 and nothing on 7-10.
func testIndex(t *testing.T) *curriculum.Index {
	t.Helper()
	var mathTopics, phyTopics []curriculum.Topic
	for d := 1; d <= 5; d++ {
		mathTopics = append(mathTopics,
			curriculum.Topic{ID: fmt.Sprintf("m%da", d), Title: "a", Day: d},
			curriculum.Topic{ID: fmt.Sprintf("m%db", d), Title: "b", Day: d},
		)
	}
	for d := 1; d <= 3; d++ {
		phyTopics = append(phyTopics, curriculum.Topic{ID: fmt.Sprintf("p%d", d), Title: "p", Day: d})
	}
	ix, err := curriculum.New(curriculum.Document{
		Metadata: curriculum.Metadata{StartDate: "2026-01-05"},
		Schedule: curriculum.Schedule{TotalDays: 10, BufferDays: []int{6}},
		Subjects: []curriculum.Subject{
			{ID: "math", Name: "Math", Units: []curriculum.Unit{
				{ID: "u1", Name: "Early", Topics: mathTopics[:6]},
				{ID: "u2", Name: "Late", Topics: mathTopics[6:]},
			}},
			{ID: "phy", Name: "Physics", Units: []curriculum.Unit{
				{ID: "u3", Name: "Mech", Topics: phyTopics},
			}},
		},
	})
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	return ix
}

func done(ids ...string) CompletionMap {
	m := CompletionMap{}
	for _, id := range ids {
		m[id] = true
	}
	return m
}

func TestOverallAndBreakdowns(t *testing.T) {
	ix := testIndex(t)
	c := done("m1a", "m1b", "m2a", "p1")

	o := Overall(ix, c)
	if o != (Counts{Total: 13, Completed: 4, Percentage: 31}) {
		t.Errorf("Overall = %+v", o)
	}

	subs := BySubject(ix, c)
	if len(subs) != 2 {
		t.Fatalf("BySubject len = %d", len(subs))
	}
	if subs[0].Subject.ID != "math" || subs[0].Counts != (Counts{10, 3, 30}) {
		t.Errorf("math = %+v", subs[0].Counts)
	}
	if subs[1].Counts != (Counts{3, 1, 33}) {
		t.Errorf("phy = %+v", subs[1].Counts)
	}

	units := ByUnit(ix, "math", c)
	if len(units) != 2 || units[0].Counts != (Counts{6, 3, 50}) || units[1].Counts != (Counts{4, 0, 0}) {
		t.Errorf("ByUnit(math) = %+v", units)
	}
	if ByUnit(ix, "nope", c) != nil {
		t.Error("ByUnit for unknown subject should be nil")
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct{ c, t, want int }{
		{0, 0, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 200, 1}, // 0.5 rounds up
		{5, 5, 100},
	}
	for _, tt := range tests {
		if got := Percentage(tt.c, tt.t); got != tt.want {
			t.Errorf("Percentage(%d, %d) = %d, want %d", tt.c, tt.t, got, tt.want)
		}
	}
}

func TestCurrentDay(t *testing.T) {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.Local)
	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"start morning", time.Date(2026, 1, 5, 8, 0, 0, 0, time.Local), 1},
		{"start late night", time.Date(2026, 1, 5, 23, 59, 0, 0, time.Local), 1},
		{"next day just after midnight", time.Date(2026, 1, 6, 0, 1, 0, 0, time.Local), 2},
		{"day five evening", time.Date(2026, 1, 9, 21, 0, 0, 0, time.Local), 5},
		{"before start", time.Date(2025, 12, 20, 12, 0, 0, 0, time.Local), 1},
		{"after end", time.Date(2026, 6, 1, 12, 0, 0, 0, time.Local), 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CurrentDay(start, tt.now, 10); got != tt.want {
				t.Errorf("CurrentDay = %d, want %d", got, tt.want)
			}
		})
	}

	// A start stamp with a time-of-day must not shift day boundaries.
	noon := time.Date(2026, 1, 5, 12, 0, 0, 0, time.Local)
	if got := CurrentDay(noon, time.Date(2026, 1, 6, 9, 0, 0, 0, time.Local), 10); got != 2 {
		t.Errorf("CurrentDay from noon start = %d, want 2", got)
	}
}

func TestDaysLeft(t *testing.T) {
	if DaysLeft(3, 10) != 7 || DaysLeft(10, 10) != 0 || DaysLeft(12, 10) != 0 {
		t.Error("DaysLeft wrong")
	}
}

func TestStreak(t *testing.T) {
	ix := testIndex(t)
	tests := []struct {
		name       string
		c          CompletionMap
		currentDay int
		want       int
	}{
		{"gap at day 3", done("m5a", "m4b", "m2a"), 5, 2},
		{"full run", done("m1a", "p2", "m3a", "m4a", "m5b"), 5, 5},
		{"today not done", done("m4a", "m3a"), 5, 0},
		{"walk stops at day 1", done("m1a", "p2"), 2, 2},
		{"buffer day breaks streak", done("m5a"), 6, 0},
		{"empty", done(), 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Streak(ix, tt.c, tt.currentDay); got != tt.want {
				t.Errorf("Streak = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStreakMonotonicity(t *testing.T) {
	ix := testIndex(t)
	c := done("m2a", "m3b", "m4a", "m5a")
	current := 5
	for d := 2; d <= current; d++ {
		if got := Streak(ix, c, current); got < current-d+1 {
			t.Errorf("Streak = %d, want >= %d for run from day %d", got, current-d+1, d)
		}
	}
}

func TestEstimatePace(t *testing.T) {
	ix := testIndex(t)

	if p := EstimatePace(ix, done(), 4); p != nil {
		t.Fatalf("expected nil pace with no completions, got %+v", p)
	}
	if PaceMessage(nil) != "Start to see estimate" {
		t.Errorf("PaceMessage(nil) = %q", PaceMessage(nil))
	}

	p := EstimatePace(ix, done("m1a", "m1b", "p1", "p2"), 4)
	// 4 done over 4 days = 1/day, 9 remaining.
	if p.AveragePerDay != 1 || p.RemainingTopics != 9 || p.EstimatedDays != 9 {
		t.Errorf("pace = %+v", p)
	}
	if PaceMessage(p) != "9d remaining at current pace" {
		t.Errorf("PaceMessage = %q", PaceMessage(p))
	}

	slow := EstimatePace(ix, done("m1a"), 10)
	// 1 done over 10 days hits the 0.1/day floor.
	if want := int(math.Ceil(12 / minPacePerDay)); slow.EstimatedDays != want {
		t.Errorf("slow pace days = %d, want %d", slow.EstimatedDays, want)
	}
}

func TestSummarize(t *testing.T) {
	ix := testIndex(t)
	now := time.Date(2026, 1, 7, 10, 0, 0, 0, time.Local) // day 3
	s := Summarize(ix, done("m3a", "m2b"), now)

	if s.CurrentDay != 3 || s.DaysLeft != 7 || s.TotalDays != 10 {
		t.Errorf("days: %+v", s)
	}
	if s.Streak != 2 {
		t.Errorf("Streak = %d, want 2", s.Streak)
	}
	if s.Pace == nil || s.Overall.Completed != 2 {
		t.Errorf("summary = %+v", s)
	}
}

func TestGrid(t *testing.T) {
	ix := testIndex(t)
	cells := Grid(ix, done("m1a", "m1b", "p1", "m2a"), 2)

	if len(cells) != 10 {
		t.Fatalf("grid len = %d", len(cells))
	}
	tests := []struct {
		day     int
		state   DayState
		current bool
	}{
		{1, DayCompleted, false},
		{2, DayPartial, true},
		{3, DayPending, false},
		{6, DayBuffer, false},
		{8, DayEmpty, false},
	}
	for _, tt := range tests {
		c := cells[tt.day-1]
		if c.Day != tt.day || c.State != tt.state || c.Current != tt.current {
			t.Errorf("day %d = %+v, want state %s current %v", tt.day, c, tt.state, tt.current)
		}
	}
	if cells[0].Completed != 3 || cells[0].Total != 3 {
		t.Errorf("day 1 counts = %d/%d", cells[0].Completed, cells[0].Total)
	}
}
