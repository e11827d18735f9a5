package quiz

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/studyplan/internal/questionbank"
)

func makePool(prefix string, easy, medium, hard int) []questionbank.Question {
	var qs []questionbank.Question
	add := func(d questionbank.Difficulty, n int) {
		for i := range n {
			qs = append(qs, questionbank.Question{
				ID:                 fmt.Sprintf("%s-%s-%d", prefix, d, i),
				Difficulty:         d,
				Text:               fmt.Sprintf("%s %s %d", prefix, d, i),
				Options:            []string{"w", "x", "y", "z"},
				CorrectOptionIndex: i % 4,
			})
		}
	}
	add(questionbank.Easy, easy)
	add(questionbank.Medium, medium)
	add(questionbank.Hard, hard)
	return qs
}

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed*31+7))
}

type fakeBank struct {
	topics   map[string][]questionbank.Question
	fallback []questionbank.Question
}

func (b fakeBank) PoolFor(topicID string) ([]questionbank.Question, bool) {
	if qs := b.topics[topicID]; len(qs) >= questionbank.MinPoolSize {
		return qs, false
	}
	return b.fallback, true
}

func countByDifficulty(items []Item) map[questionbank.Difficulty]int {
	out := make(map[questionbank.Difficulty]int)
	for _, it := range items {
		out[it.Question.Difficulty]++
	}
	return out
}

func TestCompose_DifficultyQuota(t *testing.T) {
	pool := makePool("t", 5, 5, 5)
	for seed := range uint64(50) {
		items, err := Compose(pool, seeded(seed))
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		if len(items) != SessionSize {
			t.Fatalf("seed %d: got %d items", seed, len(items))
		}
		got := countByDifficulty(items)
		if got[questionbank.Easy] != 3 || got[questionbank.Medium] != 4 || got[questionbank.Hard] != 3 {
			t.Fatalf("seed %d: split = %v, want 3/4/3", seed, got)
		}
	}
}

func TestCompose_OrderIsShuffled(t *testing.T) {
	pool := makePool("t", 5, 5, 5)
	grouped := 0
	for seed := range uint64(20) {
		items, _ := Compose(pool, seeded(seed))
		if items[0].Question.Difficulty == questionbank.Easy &&
			items[3].Question.Difficulty == questionbank.Medium &&
			items[9].Question.Difficulty == questionbank.Hard {
			grouped++
		}
	}
	if grouped == 20 {
		t.Error("presentation order always follows difficulty grouping")
	}
}

func TestCompose_ShortfallFill(t *testing.T) {
	tests := []struct {
		name              string
		easy, medium, hrd int
	}{
		{"few easy", 1, 10, 3},
		{"no hard", 4, 8, 0},
		{"exactly ten", 2, 6, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := makePool("t", tt.easy, tt.medium, tt.hrd)
			items, err := Compose(pool, seeded(3))
			if err != nil {
				t.Fatal(err)
			}
			if len(items) != SessionSize {
				t.Fatalf("got %d items, want %d", len(items), SessionSize)
			}
			seen := make(map[string]bool)
			for _, it := range items {
				if seen[it.Question.ID] {
					t.Fatalf("question %s selected twice", it.Question.ID)
				}
				seen[it.Question.ID] = true
			}
			got := countByDifficulty(items)
			if got[questionbank.Easy] < min(3, tt.easy) || got[questionbank.Hard] < min(3, tt.hrd) {
				t.Errorf("quota not honoured before fill: %v", got)
			}
		})
	}
}

func TestCompose_InsufficientPool(t *testing.T) {
	_, err := Compose(makePool("t", 3, 3, 3), seeded(1))
	if !errors.Is(err, ErrInsufficientPool) {
		t.Fatalf("err = %v, want ErrInsufficientPool", err)
	}
}

func TestCompose_OptionShuffleCorrectness(t *testing.T) {
	pool := makePool("t", 5, 5, 5)
	positions := make(map[int]bool)
	for seed := range uint64(30) {
		items, _ := Compose(pool, seeded(seed))
		for _, it := range items {
			if len(it.Options) != 4 {
				t.Fatalf("options len = %d", len(it.Options))
			}
			marked := 0
			for i, opt := range it.Options {
				if opt == it.Question.CorrectText() {
					marked++
					if i != it.CorrectIndex {
						t.Fatalf("correct text at %d, CorrectIndex %d", i, it.CorrectIndex)
					}
				}
			}
			if marked != 1 {
				t.Fatalf("%d options match the correct text", marked)
			}
			if it.Question.ID == "t-easy-0" {
				positions[it.CorrectIndex] = true
			}
		}
	}
	if len(positions) < 2 {
		t.Errorf("correct option for t-easy-0 always at %v", positions)
	}
}

func TestEngine_PoolFallback(t *testing.T) {
	bank := fakeBank{
		topics:   map[string][]questionbank.Question{"short": makePool("short", 2, 4, 3)},
		fallback: makePool("default", 5, 5, 5),
	}
	e := NewEngine(bank, WithRand(seeded(9)))

	s, err := e.Start("short")
	if err != nil {
		t.Fatal(err)
	}
	if !s.UsedDefaultPool {
		t.Error("expected default pool for a 9-question topic")
	}
	for _, it := range s.items {
		if it.Question.ID[:7] != "default" {
			t.Fatalf("drew %s from topic pool", it.Question.ID)
		}
	}
}

func TestEngine_NoPoolAnywhere(t *testing.T) {
	e := NewEngine(fakeBank{fallback: makePool("d", 1, 1, 1)})
	if _, err := e.Start("t"); !errors.Is(err, ErrInsufficientPool) {
		t.Fatalf("err = %v, want ErrInsufficientPool", err)
	}
}

func startSession(t *testing.T) *Session {
	t.Helper()
	e := NewEngine(fakeBank{fallback: makePool("d", 5, 5, 5)}, WithRand(seeded(11)))
	s, err := e.Start("topic")
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// play answers the first k questions correctly and the rest wrong.
func play(t *testing.T, s *Session, k int) {
	t.Helper()
	for i := range s.Len() {
		item, err := s.Current()
		if err != nil {
			t.Fatalf("q%d: %v", i, err)
		}
		choice := item.CorrectIndex
		if i >= k {
			choice = (item.CorrectIndex + 1) % len(item.Options)
		}
		if _, err := s.Answer(choice); err != nil {
			t.Fatalf("q%d answer: %v", i, err)
		}
		if err := s.Next(time.Unix(1700000000, 0)); err != nil {
			t.Fatalf("q%d next: %v", i, err)
		}
	}
}

func TestSession_ScoreThreshold(t *testing.T) {
	for k := 0; k <= SessionSize; k++ {
		s := startSession(t)
		play(t, s, k)
		if s.Phase() != PhaseFinished {
			t.Fatalf("k=%d: phase = %s", k, s.Phase())
		}
		r, err := s.Result()
		if err != nil {
			t.Fatal(err)
		}
		if r.Score != k {
			t.Errorf("k=%d: score = %d", k, r.Score)
		}
		if r.Passed != (k >= PassThreshold) {
			t.Errorf("k=%d: passed = %v", k, r.Passed)
		}
		if len(r.Attempt.IncorrectAnswers) != SessionSize-k {
			t.Errorf("k=%d: %d incorrect answers logged", k, len(r.Attempt.IncorrectAnswers))
		}
		if r.Tally.Answered() != SessionSize {
			t.Errorf("k=%d: tally answered = %d", k, r.Tally.Answered())
		}
		if r.Attempt.ID != s.ID || r.Attempt.Score != k {
			t.Errorf("k=%d: attempt = %+v", k, r.Attempt)
		}
	}
}

func TestSession_NoReanswer(t *testing.T) {
	s := startSession(t)
	item, _ := s.Current()

	wrong := (item.CorrectIndex + 1) % 4
	first, err := s.Answer(wrong)
	if err != nil {
		t.Fatal(err)
	}
	if first.Correct {
		t.Fatal("expected incorrect answer")
	}
	if _, err := s.Answer(item.CorrectIndex); !errors.Is(err, ErrAlreadyAnswered) {
		t.Fatalf("re-answer err = %v, want ErrAlreadyAnswered", err)
	}
	if s.CorrectCount() != 0 || s.IncorrectCount() != 1 {
		t.Errorf("counts = %d/%d after rejected re-answer", s.CorrectCount(), s.IncorrectCount())
	}
	got, ok := s.CurrentAnswer()
	if !ok || got.Selected != wrong {
		t.Errorf("recorded answer changed: %+v", got)
	}
}

func TestSession_Transitions(t *testing.T) {
	s := startSession(t)
	if err := s.Next(time.Now()); !errors.Is(err, ErrNotAnswered) {
		t.Fatalf("Next before answer err = %v", err)
	}
	if _, err := s.Answer(9); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("bad option err = %v", err)
	}
	if _, err := s.Result(); !errors.Is(err, ErrNotFinished) {
		t.Fatalf("Result mid-session err = %v", err)
	}

	s.Abandon()
	if s.Phase() != PhaseAbandoned {
		t.Fatalf("phase = %s, want abandoned", s.Phase())
	}
	if _, err := s.Answer(0); !errors.Is(err, ErrSessionFinished) {
		t.Errorf("answer after abandon err = %v", err)
	}
	if _, err := s.Result(); !errors.Is(err, ErrNotFinished) {
		t.Errorf("abandoned session produced a result: %v", err)
	}
}

func TestPhaseString(t *testing.T) {
	if PhaseInProgress.String() != "in-progress" || Phase(42).String() != "unknown" {
		t.Error("unexpected Phase strings")
	}
}

func TestSession_SnapshotIsConsistentUnderConcurrency(t *testing.T) {
	s := startSession(t)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				st := s.Snapshot()
				answered := st.Correct + st.Incorrect
				if st.Phase == PhaseInProgress && st.Answer != nil {
					answered--
				}
				if st.Phase == PhaseInProgress && answered != st.Index {
					t.Errorf("snapshot index %d with %d prior answers", st.Index, answered)
					return
				}
			}
		}()
	}

	for s.Phase() == PhaseInProgress {
		item, err := s.Current()
		if err != nil {
			t.Fatal(err)
		}
		if _, err := s.Answer(item.CorrectIndex); err != nil {
			t.Fatal(err)
		}
		if err := s.Next(time.Now()); err != nil {
			t.Fatal(err)
		}
	}
	close(stop)
	wg.Wait()

	st := s.Snapshot()
	if st.Phase != PhaseFinished || st.Correct != SessionSize || st.Answer != nil {
		t.Errorf("final snapshot = %+v", st)
	}
}
