package quiz

import (
	"math/rand/v2"

	"github.com/abhisek/studyplan/internal/questionbank"
)

// SessionSize is the number of questions in every quiz session.
const SessionSize = 10

// quota is the per-difficulty draw for one session.
var quota = []struct {
	Difficulty questionbank.Difficulty
	Count      int
}{
	{questionbank.Easy, 3},
	{questionbank.Medium, 4},
	{questionbank.Hard, 3},
}

// Item is one question as presented in a session: its options are shuffled
// and CorrectIndex points into the shuffled Options.
type Item struct {
	Question     questionbank.Question
	Options      []string
	CorrectIndex int
}

// Compose draws SessionSize questions from pool: 3 easy, 4 medium and
// 3 hard where available, topped up from the rest of the pool on shortfall.
// The draw order is shuffled and every question's options are shuffled.
func Compose(pool []questionbank.Question, rng *rand.Rand) ([]Item, error) {
	if len(pool) < SessionSize {
		return nil, ErrInsufficientPool
	}

	buckets := make(map[questionbank.Difficulty][]int)
	for i, q := range pool {
		buckets[q.Difficulty] = append(buckets[q.Difficulty], i)
	}

	selected := make([]int, 0, SessionSize)
	used := make(map[int]bool, SessionSize)
	for _, q := range quota {
		idx := append([]int(nil), buckets[q.Difficulty]...)
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		for _, i := range idx[:min(q.Count, len(idx))] {
			selected = append(selected, i)
			used[i] = true
		}
	}

	if len(selected) < SessionSize {
		rest := make([]int, 0, len(pool)-len(selected))
		for i := range pool {
			if !used[i] {
				rest = append(rest, i)
			}
		}
		rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
		for _, i := range rest[:min(SessionSize-len(selected), len(rest))] {
			selected = append(selected, i)
			used[i] = true
		}
	}

	rng.Shuffle(len(selected), func(i, j int) { selected[i], selected[j] = selected[j], selected[i] })

	items := make([]Item, len(selected))
	for n, i := range selected {
		items[n] = shuffleOptions(pool[i], rng)
	}
	return items, nil
}

// shuffleOptions permutes q's options and locates the correct one.
func shuffleOptions(q questionbank.Question, rng *rand.Rand) Item {
	perm := rng.Perm(len(q.Options))
	opts := make([]string, len(q.Options))
	correct := -1
	for to, from := range perm {
		opts[to] = q.Options[from]
		if from == q.CorrectOptionIndex {
			correct = to
		}
	}
	return Item{Question: q, Options: opts, CorrectIndex: correct}
}
