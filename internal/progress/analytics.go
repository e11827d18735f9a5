package progress

import (
	"maps"
	"math"

	"github.com/abhisek/studyplan/internal/questionbank"
)

// Analytics holds running quiz counters. Counters only grow, except on a
// full progress reset.
type Analytics struct {
	QuizzesTaken        int                             `json:"quizzesTaken"`
	QuestionsAnswered   int                             `json:"questionsAnswered"`
	CorrectByDifficulty map[questionbank.Difficulty]int `json:"correctByDifficulty"`
	TotalByDifficulty   map[questionbank.Difficulty]int `json:"totalByDifficulty"`
}

// Tally counts one finished quiz's answers by difficulty.
type Tally struct {
	Correct map[questionbank.Difficulty]int
	Total   map[questionbank.Difficulty]int
}

// NewTally returns an empty Tally.
func NewTally() Tally {
	return Tally{
		Correct: make(map[questionbank.Difficulty]int),
		Total:   make(map[questionbank.Difficulty]int),
	}
}

// Add counts one answered question.
func (t Tally) Add(d questionbank.Difficulty, correct bool) {
	t.Total[d]++
	if correct {
		t.Correct[d]++
	}
}

// Answered returns the number of questions counted.
func (t Tally) Answered() int {
	n := 0
	for _, v := range t.Total {
		n += v
	}
	return n
}

func newAnalytics() Analytics {
	return Analytics{
		CorrectByDifficulty: make(map[questionbank.Difficulty]int),
		TotalByDifficulty:   make(map[questionbank.Difficulty]int),
	}
}

func (a Analytics) clone() Analytics {
	out := a
	out.CorrectByDifficulty = maps.Clone(a.CorrectByDifficulty)
	out.TotalByDifficulty = maps.Clone(a.TotalByDifficulty)
	if out.CorrectByDifficulty == nil {
		out.CorrectByDifficulty = make(map[questionbank.Difficulty]int)
	}
	if out.TotalByDifficulty == nil {
		out.TotalByDifficulty = make(map[questionbank.Difficulty]int)
	}
	return out
}

// with returns a copy of a with t folded in as one more quiz.
func (a Analytics) with(t Tally) Analytics {
	out := a.clone()
	out.QuizzesTaken++
	out.QuestionsAnswered += t.Answered()
	for d, n := range t.Total {
		out.TotalByDifficulty[d] += n
	}
	for d, n := range t.Correct {
		out.CorrectByDifficulty[d] += n
	}
	return out
}

// Accuracy returns the rounded percentage of correct answers at difficulty d.
// ok is false when no question of that difficulty has been answered.
func (a Analytics) Accuracy(d questionbank.Difficulty) (pct int, ok bool) {
	total := a.TotalByDifficulty[d]
	if total == 0 {
		return 0, false
	}
	return int(math.Round(100 * float64(a.CorrectByDifficulty[d]) / float64(total))), true
}
