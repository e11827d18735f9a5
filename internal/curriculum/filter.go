package curriculum

import (
	"fmt"
	"slices"
)

// Filter selects a slice of the plan relative to the current day.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterToday     Filter = "today"
	FilterWeek      Filter = "week"
	FilterPending   Filter = "pending"
	FilterCompleted Filter = "completed"
)

// WeekSpan is the number of days covered by FilterWeek, including today.
const WeekSpan = 7

// Filters returns all filters in menu order.
func Filters() []Filter {
	return []Filter{FilterToday, FilterWeek, FilterPending, FilterCompleted, FilterAll}
}

// ParseFilter converts user input into a Filter. Empty input means all.
func ParseFilter(s string) (Filter, error) {
	if s == "" {
		return FilterAll, nil
	}
	for _, f := range Filters() {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown filter %q", s)
}

// Query narrows the topic list. Zero-valued fields do not filter.
type Query struct {
	Filter     Filter
	CurrentDay int
	SubjectID  string
	Priority   string

	// IsComplete reports completion for FilterPending and FilterCompleted.
	IsComplete func(topicID string) bool
}

// Select returns the topics matching q, ordered by scheduled day and then
// by document order.
func (ix *Index) Select(q Query) []Entry {
	isComplete := q.IsComplete
	if isComplete == nil {
		isComplete = func(string) bool { return false }
	}

	var out []Entry
	for _, e := range ix.entries {
		if q.SubjectID != "" && e.Subject.ID != q.SubjectID {
			continue
		}
		if q.Priority != "" && e.Subject.Priority != q.Priority {
			continue
		}

		day := e.Topic.Day
		switch q.Filter {
		case FilterToday:
			if day != q.CurrentDay {
				continue
			}
		case FilterWeek:
			if day < q.CurrentDay || day >= q.CurrentDay+WeekSpan {
				continue
			}
		case FilterPending:
			if isComplete(e.Topic.ID) {
				continue
			}
		case FilterCompleted:
			if !isComplete(e.Topic.ID) {
				continue
			}
		}
		out = append(out, e)
	}

	slices.SortStableFunc(out, func(a, b Entry) int {
		return a.Topic.Day - b.Topic.Day
	})
	return out
}

// Priorities returns the distinct subject priorities in document order.
func (ix *Index) Priorities() []string {
	var out []string
	for _, s := range ix.doc.Subjects {
		if s.Priority != "" && !slices.Contains(out, s.Priority) {
			out = append(out, s.Priority)
		}
	}
	return out
}
