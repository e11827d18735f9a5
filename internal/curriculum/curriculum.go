// Package curriculum holds the immutable catalog of subjects, units and
// day-scheduled topics for one study plan.
package curriculum

import (
	"fmt"
	"slices"
	"time"

	"github.com/abhisek/studyplan/internal/jsondoc"
)

// DefaultTotalDays is the plan length used when neither the document nor
// any scheduled topic implies one.
const DefaultTotalDays = 100

// Index is a loaded, validated curriculum with lookup indices.
// It is safe for concurrent reads and never mutated after construction.
type Index struct {
	doc       Document
	start     time.Time
	totalDays int
	entries   []Entry
	byID      map[string]Entry
	byDay     map[int][]Entry
	buffer    map[int]bool
}

// Load reads a curriculum document (JSON or YAML) from path.
func Load(path string) (*Index, error) {
	var doc Document
	if err := jsondoc.DecodeFile(Schema, path, &doc); err != nil {
		return nil, fmt.Errorf("load curriculum: %w", err)
	}
	return New(doc)
}

// Parse decodes a JSON curriculum document.
func Parse(raw []byte) (*Index, error) {
	var doc Document
	if err := jsondoc.Decode(Schema, raw, &doc); err != nil {
		return nil, fmt.Errorf("parse curriculum: %w", err)
	}
	return New(doc)
}

// New validates doc and builds its indices.
func New(doc Document) (*Index, error) {
	start, err := ParseDate(doc.Metadata.StartDate)
	if err != nil {
		return nil, &ValidationError{Problems: []string{err.Error()}}
	}

	ix := &Index{
		doc:    doc,
		start:  start,
		byID:   make(map[string]Entry),
		byDay:  make(map[int][]Entry),
		buffer: make(map[int]bool, len(doc.Schedule.BufferDays)),
	}

	// Entries point into ix.doc, which is never mutated after this loop.
	maxDay := 0
	for si := range ix.doc.Subjects {
		subj := &ix.doc.Subjects[si]
		for ui := range subj.Units {
			unit := &subj.Units[ui]
			for ti := range unit.Topics {
				e := Entry{Topic: &unit.Topics[ti], Unit: unit, Subject: subj}
				ix.entries = append(ix.entries, e)
				maxDay = max(maxDay, e.Topic.Day)
			}
		}
	}
	for _, d := range doc.Schedule.BufferDays {
		ix.buffer[d] = true
		maxDay = max(maxDay, d)
	}

	ix.totalDays = doc.Schedule.TotalDays
	if ix.totalDays == 0 {
		ix.totalDays = maxDay
	}
	if ix.totalDays == 0 {
		ix.totalDays = DefaultTotalDays
	}

	if err := validate(ix); err != nil {
		return nil, err
	}

	for _, e := range ix.entries {
		ix.byID[e.Topic.ID] = e
		ix.byDay[e.Topic.Day] = append(ix.byDay[e.Topic.Day], e)
	}
	return ix, nil
}

// ParseDate parses a plan date (YYYY-MM-DD or RFC 3339) and normalizes it
// to local midnight.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(time.DateOnly, s, time.Local); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start date %q: want YYYY-MM-DD", s)
	}
	t = t.In(time.Local)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local), nil
}

// WithTotalDays returns a view of the index with a different plan length.
// Non-positive n returns ix unchanged.
func (ix *Index) WithTotalDays(n int) *Index {
	if n <= 0 || n == ix.totalDays {
		return ix
	}
	cp := *ix
	cp.totalDays = n
	return &cp
}

// Title returns the plan title, if any.
func (ix *Index) Title() string { return ix.doc.Metadata.Title }

// StartDate returns the plan start at local midnight.
func (ix *Index) StartDate() time.Time { return ix.start }

// TotalDays returns the plan length in days.
func (ix *Index) TotalDays() int { return ix.totalDays }

// Subjects returns subjects in document order.
func (ix *Index) Subjects() []Subject { return ix.doc.Subjects }

// Subject looks up a subject by id.
func (ix *Index) Subject(id string) (*Subject, bool) {
	for i := range ix.doc.Subjects {
		if ix.doc.Subjects[i].ID == id {
			return &ix.doc.Subjects[i], true
		}
	}
	return nil, false
}

// Entries returns every topic in document order.
func (ix *Index) Entries() []Entry { return ix.entries }

// Topic looks up a topic by its globally unique id.
func (ix *Index) Topic(id string) (Entry, bool) {
	e, ok := ix.byID[id]
	return e, ok
}

// HasTopic reports whether id names a topic in this curriculum.
func (ix *Index) HasTopic(id string) bool {
	_, ok := ix.byID[id]
	return ok
}

// TopicsOnDay returns the topics scheduled on day, in document order.
func (ix *Index) TopicsOnDay(day int) []Entry { return ix.byDay[day] }

// IsBufferDay reports whether day is a catch-up day.
func (ix *Index) IsBufferDay(day int) bool { return ix.buffer[day] }

// BufferDays returns the catch-up days in ascending order.
func (ix *Index) BufferDays() []int {
	days := make([]int, 0, len(ix.buffer))
	for d := range ix.buffer {
		days = append(days, d)
	}
	slices.Sort(days)
	return days
}
