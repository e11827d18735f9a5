// Package stats derives completion, streak, pacing and schedule views from a
// curriculum and a completion record. Every function is pure.
package stats

import (
	"fmt"
	"math"
	"time"

	"github.com/abhisek/studyplan/internal/curriculum"
)

// Completion answers whether a topic is complete.
type Completion interface {
	IsComplete(topicID string) bool
}

// CompletionMap adapts a plain completion record.
type CompletionMap map[string]bool

func (m CompletionMap) IsComplete(topicID string) bool { return m[topicID] }

// Counts is a completion tally over some set of topics.
type Counts struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	Percentage int `json:"percentage"`
}

func tally(entries []curriculum.Entry, c Completion) Counts {
	var out Counts
	for _, e := range entries {
		out.Total++
		if c.IsComplete(e.Topic.ID) {
			out.Completed++
		}
	}
	out.Percentage = Percentage(out.Completed, out.Total)
	return out
}

// Percentage returns round(100*completed/total), or 0 when total is 0.
func Percentage(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

// Overall counts every topic in the curriculum.
func Overall(ix *curriculum.Index, c Completion) Counts {
	return tally(ix.Entries(), c)
}

// SubjectCounts is the tally for one subject.
type SubjectCounts struct {
	Subject *curriculum.Subject
	Counts
}

// BySubject tallies each subject, in curriculum order.
func BySubject(ix *curriculum.Index, c Completion) []SubjectCounts {
	subjects := ix.Subjects()
	out := make([]SubjectCounts, 0, len(subjects))
	for i := range subjects {
		s := &subjects[i]
		var entries []curriculum.Entry
		for ui := range s.Units {
			entries = append(entries, unitEntries(s, &s.Units[ui])...)
		}
		out = append(out, SubjectCounts{Subject: s, Counts: tally(entries, c)})
	}
	return out
}

// UnitCounts is the tally for one unit.
type UnitCounts struct {
	Unit *curriculum.Unit
	Counts
}

// ByUnit tallies each unit of subjectID, in curriculum order.
func ByUnit(ix *curriculum.Index, subjectID string, c Completion) []UnitCounts {
	s, ok := ix.Subject(subjectID)
	if !ok {
		return nil
	}
	out := make([]UnitCounts, 0, len(s.Units))
	for ui := range s.Units {
		u := &s.Units[ui]
		out = append(out, UnitCounts{Unit: u, Counts: tally(unitEntries(s, u), c)})
	}
	return out
}

func unitEntries(s *curriculum.Subject, u *curriculum.Unit) []curriculum.Entry {
	out := make([]curriculum.Entry, len(u.Topics))
	for i := range u.Topics {
		out[i] = curriculum.Entry{Topic: &u.Topics[i], Unit: u, Subject: s}
	}
	return out
}

// CurrentDay returns the 1-based plan day for now, counting calendar days
// between the local dates of start and now, clamped to [1, totalDays].
func CurrentDay(start, now time.Time, totalDays int) int {
	day := daysBetween(start, now) + 1
	return max(1, min(day, max(1, totalDays)))
}

// daysBetween counts whole calendar days from a's local date to b's local
// date. Dates are compared in UTC so DST transitions do not skew the count.
func daysBetween(a, b time.Time) int {
	a, b = a.In(time.Local), b.In(time.Local)
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// DaysLeft returns the number of plan days after currentDay.
func DaysLeft(currentDay, totalDays int) int {
	return max(0, totalDays-currentDay)
}

// Streak counts consecutive days ending at currentDay that have at least one
// completed topic scheduled. Days with nothing scheduled break the streak.
func Streak(ix *curriculum.Index, c Completion, currentDay int) int {
	doneDays := make(map[int]bool)
	for _, e := range ix.Entries() {
		if c.IsComplete(e.Topic.ID) {
			doneDays[e.Topic.Day] = true
		}
	}

	streak := 0
	for d := currentDay; d >= 1 && doneDays[d]; d-- {
		streak++
	}
	return streak
}

// Pace extrapolates completion speed to the end of the plan.
type Pace struct {
	AveragePerDay   float64 `json:"averagePerDay"`
	RemainingTopics int     `json:"remainingTopics"`
	EstimatedDays   int     `json:"estimatedDays"`
}

// minPacePerDay bounds the average so an early, slow start does not produce
// an absurd estimate.
const minPacePerDay = 0.1

// EstimatePace returns nil until at least one topic is complete.
func EstimatePace(ix *curriculum.Index, c Completion, currentDay int) *Pace {
	o := Overall(ix, c)
	if o.Completed == 0 {
		return nil
	}
	avg := float64(o.Completed) / float64(max(1, currentDay))
	remaining := o.Total - o.Completed
	return &Pace{
		AveragePerDay:   avg,
		RemainingTopics: remaining,
		EstimatedDays:   int(math.Ceil(float64(remaining) / math.Max(minPacePerDay, avg))),
	}
}

// PaceMessage renders p for display.
func PaceMessage(p *Pace) string {
	if p == nil {
		return "Start to see estimate"
	}
	return fmt.Sprintf("%dd remaining at current pace", p.EstimatedDays)
}

// Summary bundles the headline numbers shown on a dashboard.
type Summary struct {
	Overall    Counts `json:"overall"`
	CurrentDay int    `json:"currentDay"`
	TotalDays  int    `json:"totalDays"`
	DaysLeft   int    `json:"daysLeft"`
	Streak     int    `json:"streak"`
	Pace       *Pace  `json:"pace"`
}

// Summarize computes the dashboard summary at now.
func Summarize(ix *curriculum.Index, c Completion, now time.Time) Summary {
	total := ix.TotalDays()
	day := CurrentDay(ix.StartDate(), now, total)
	return Summary{
		Overall:    Overall(ix, c),
		CurrentDay: day,
		TotalDays:  total,
		DaysLeft:   DaysLeft(day, total),
		Streak:     Streak(ix, c, day),
		Pace:       EstimatePace(ix, c, day),
	}
}
