package progress

import (
	"maps"
	"time"
)

// Storage keys inside a user's namespace.
const (
	KeyCompletion = "completion"
	KeyAttempts   = "quiz_attempts"
	KeyAnalytics  = "analytics"
)

// IncorrectAnswer records one missed question for later review.
type IncorrectAnswer struct {
	QuestionText string `json:"questionText"`
	ChosenText   string `json:"chosenText"`
	CorrectText  string `json:"correctText"`
}

// Attempt is one finished quiz session. Attempts are append-only.
type Attempt struct {
	ID               string            `json:"id,omitempty"`
	Date             time.Time         `json:"date"`
	Score            int               `json:"score"`
	Passed           bool              `json:"passed"`
	IncorrectAnswers []IncorrectAnswer `json:"incorrectAnswers,omitempty"`
}

// Snapshot is the portable copy of a user's progress exchanged with the
// remote store.
type Snapshot struct {
	Completion   map[string]bool      `json:"completion"`
	QuizAttempts map[string][]Attempt `json:"quizAttempts,omitempty"`
	LastUpdated  time.Time            `json:"lastUpdated"`
}

// CompletedCount returns the number of topics flagged complete.
func (s Snapshot) CompletedCount() int {
	return countTrue(s.Completion)
}

// Source identifies what caused a completion change.
type Source string

const (
	SourceQuiz   Source = "quiz"
	SourceManual Source = "manual"
	SourceReset  Source = "reset"
	SourceImport Source = "import"
	SourceSync   Source = "sync"
)

// Change describes a mutation of the completion record. TopicID is empty
// for wholesale replacements.
type Change struct {
	Source    Source
	TopicID   string
	Completed bool
	Count     int
}

func countTrue(m map[string]bool) int {
	n := 0
	for _, v := range m {
		if v {
			n++
		}
	}
	return n
}

// normalizeCompletion drops false entries so a completion map is the set of
// completed topic ids.
func normalizeCompletion(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		if v {
			out[k] = true
		}
	}
	return out
}

func cloneAttempts(m map[string][]Attempt) map[string][]Attempt {
	out := make(map[string][]Attempt, len(m))
	for k, v := range m {
		out[k] = append([]Attempt(nil), v...)
	}
	return out
}

func cloneCompletion(m map[string]bool) map[string]bool {
	return maps.Clone(m)
}
