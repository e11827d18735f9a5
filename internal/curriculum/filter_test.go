package curriculum

import (
	"slices"
	"testing"
)

func TestSelect(t *testing.T) {
	ix, err := New(testDoc())
	if err != nil {
		t.Fatal(err)
	}
	done := map[string]bool{"m1": true, "p2": true}
	isComplete := func(id string) bool { return done[id] }

	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"all", Query{Filter: FilterAll}, []string{"m1", "p1", "m2", "p2"}},
		{"today", Query{Filter: FilterToday, CurrentDay: 1}, []string{"m1", "p1"}},
		{"week from day 3", Query{Filter: FilterWeek, CurrentDay: 3}, []string{"p2"}},
		{"week from day 2", Query{Filter: FilterWeek, CurrentDay: 2}, []string{"m2"}},
		{"pending", Query{Filter: FilterPending, IsComplete: isComplete}, []string{"p1", "m2"}},
		{"completed", Query{Filter: FilterCompleted, IsComplete: isComplete}, []string{"m1", "p2"}},
		{"subject", Query{Filter: FilterAll, SubjectID: "phy"}, []string{"p1", "p2"}},
		{"priority", Query{Filter: FilterAll, Priority: "high"}, []string{"m1", "m2"}},
		{"subject and pending", Query{Filter: FilterPending, SubjectID: "math", IsComplete: isComplete}, []string{"m2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(ix.Select(tt.q))
			if !slices.Equal(got, tt.want) {
				t.Errorf("Select() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseFilter(t *testing.T) {
	for _, f := range Filters() {
		got, err := ParseFilter(string(f))
		if err != nil || got != f {
			t.Errorf("ParseFilter(%q) = %q, %v", f, got, err)
		}
	}
	if got, _ := ParseFilter(""); got != FilterAll {
		t.Errorf("ParseFilter(\"\") = %q, want all", got)
	}
	if _, err := ParseFilter("tomorrow"); err == nil {
		t.Error("expected error for unknown filter")
	}
}

func TestPriorities(t *testing.T) {
	ix, _ := New(testDoc())
	if got := ix.Priorities(); !slices.Equal(got, []string{"high", "medium"}) {
		t.Errorf("Priorities() = %v", got)
	}
}
