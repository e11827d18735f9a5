// Package questionbank holds per-topic multiple-choice question pools and
// the default pool used when a topic has too few questions of its own.
package questionbank

import (
	"fmt"
	"strings"

	"github.com/abhisek/studyplan/internal/jsondoc"
)

// MinPoolSize is the smallest pool a quiz session can be drawn from.
const MinPoolSize = 10

// OptionCount is the number of answer options every question carries.
const OptionCount = 4

// Difficulty tags a question for quota-based selection.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Difficulties returns all difficulties in ascending order.
func Difficulties() []Difficulty {
	return []Difficulty{Easy, Medium, Hard}
}

// Question is an immutable multiple-choice question.
type Question struct {
	ID                 string     `json:"id,omitempty"`
	Difficulty         Difficulty `json:"difficulty"`
	Text               string     `json:"text"`
	Options            []string   `json:"options"`
	CorrectOptionIndex int        `json:"correctOptionIndex"`
}

// CorrectText returns the text of the correct option.
func (q Question) CorrectText() string {
	return q.Options[q.CorrectOptionIndex]
}

// Pool is an ordered set of candidate questions.
type Pool struct {
	Questions []Question `json:"questions"`
}

// Document is the on-disk shape of a question source.
type Document struct {
	TopicQuestions   map[string]Pool `json:"topicQuestions"`
	DefaultQuestions Pool            `json:"defaultQuestions"`
}

// Bank resolves question pools for topics.
type Bank struct {
	topics   map[string][]Question
	fallback []Question
}

// Load reads a question document (JSON or YAML) from path.
func Load(path string) (*Bank, error) {
	var doc Document
	if err := jsondoc.DecodeFile(Schema, path, &doc); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return New(doc)
}

// Parse decodes a JSON question document.
func Parse(raw []byte) (*Bank, error) {
	var doc Document
	if err := jsondoc.Decode(Schema, raw, &doc); err != nil {
		return nil, fmt.Errorf("parse questions: %w", err)
	}
	return New(doc)
}

// New validates doc and builds a Bank.
func New(doc Document) (*Bank, error) {
	var errs []string
	check := func(where string, qs []Question) {
		for i, q := range qs {
			prefix := fmt.Sprintf("%s question %d", where, i)
			if len(q.Options) != OptionCount {
				errs = append(errs, fmt.Sprintf("%s: want %d options, got %d", prefix, OptionCount, len(q.Options)))
			}
			if q.CorrectOptionIndex < 0 || q.CorrectOptionIndex >= len(q.Options) {
				errs = append(errs, fmt.Sprintf("%s: correctOptionIndex %d out of range", prefix, q.CorrectOptionIndex))
			}
			switch q.Difficulty {
			case Easy, Medium, Hard:
			default:
				errs = append(errs, fmt.Sprintf("%s: unknown difficulty %q", prefix, q.Difficulty))
			}
		}
	}

	b := &Bank{topics: make(map[string][]Question, len(doc.TopicQuestions))}
	for id, p := range doc.TopicQuestions {
		check(fmt.Sprintf("topic %q", id), p.Questions)
		b.topics[id] = p.Questions
	}
	check("default", doc.DefaultQuestions.Questions)
	b.fallback = doc.DefaultQuestions.Questions

	if len(errs) > 0 {
		return nil, fmt.Errorf("question bank validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return b, nil
}

// PoolFor returns the topic's own pool when it holds at least MinPoolSize
// questions, otherwise the default pool. The second result reports whether
// the default pool was used.
func (b *Bank) PoolFor(topicID string) ([]Question, bool) {
	if qs := b.topics[topicID]; len(qs) >= MinPoolSize {
		return qs, false
	}
	return b.fallback, true
}

// TopicCount returns the number of questions dedicated to topicID.
func (b *Bank) TopicCount(topicID string) int {
	return len(b.topics[topicID])
}

// DefaultCount returns the size of the default pool.
func (b *Bank) DefaultCount() int {
	return len(b.fallback)
}
