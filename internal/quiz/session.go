// Package quiz composes and scores 10-question multiple-choice sessions that
// gate topic completion.
package quiz

import (
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/studyplan/internal/progress"
	"github.com/abhisek/studyplan/internal/questionbank"
)

// PassThreshold is the minimum number of correct answers to pass.
const PassThreshold = 8

var (
	ErrInsufficientPool = errors.New("quiz: fewer than 10 questions available for this topic")
	ErrAlreadyAnswered  = errors.New("quiz: question already answered")
	ErrNotAnswered      = errors.New("quiz: current question not answered yet")
	ErrInvalidOption    = errors.New("quiz: option index out of range")
	ErrSessionFinished  = errors.New("quiz: session is no longer in progress")
	ErrNotFinished      = errors.New("quiz: session not finished")
	ErrNoSession        = errors.New("quiz: no quiz in progress")
)

// Phase is the lifecycle state of a Session.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseInProgress
	PhaseFinished
	PhaseAbandoned
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not-started"
	case PhaseInProgress:
		return "in-progress"
	case PhaseFinished:
		return "finished"
	case PhaseAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Answer is the permanent record of one answered question.
type Answer struct {
	Position     int
	Selected     int
	Correct      bool
	QuestionText string
	SelectedText string
	CorrectText  string
	Difficulty   questionbank.Difficulty
}

// PoolSource resolves the question pool for a topic.
type PoolSource interface {
	PoolFor(topicID string) ([]questionbank.Question, bool)
}

// Session is one bounded quiz attempt against a topic. Its methods are safe
// for concurrent use.
type Session struct {
	// ID uniquely identifies the session and its resulting attempt.
	ID string

	// TopicID is the topic being quizzed.
	TopicID string

	// UsedDefaultPool is true when the topic's own pool was too small.
	UsedDefaultPool bool

	// StartedAt is when the session was composed.
	StartedAt time.Time

	mu         sync.Mutex
	finishedAt time.Time
	items      []Item
	answers    []*Answer
	current    int
	correct    int
	incorrect  int
	phase      Phase
}

// Engine starts sessions against a question bank.
type Engine struct {
	bank PoolSource
	rng  *rand.Rand
	now  func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand sets the random source used for selection and shuffling.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine returns an Engine drawing from bank.
func NewEngine(bank PoolSource, opts ...Option) *Engine {
	e := &Engine{
		bank: bank,
		rng:  rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:  time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Start composes a new in-progress session for topicID. It returns
// ErrInsufficientPool when even the default pool cannot fill a session.
func (e *Engine) Start(topicID string) (*Session, error) {
	pool, fallback := e.bank.PoolFor(topicID)
	items, err := Compose(pool, e.rng)
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:              uuid.NewString(),
		TopicID:         topicID,
		UsedDefaultPool: fallback,
		StartedAt:       e.now(),
		items:           items,
		answers:         make([]*Answer, len(items)),
		phase:           PhaseInProgress,
	}, nil
}

// State is a consistent view of a session at one instant.
type State struct {
	Phase     Phase
	Index     int
	Len       int
	Correct   int
	Incorrect int
	// Item is the current question; zero once the session has ended.
	Item Item
	// Answer is the recorded answer for Item, nil until answered.
	Answer *Answer
}

// Snapshot reads every progress counter and the current question under one
// lock, so callers on other goroutines never see a half-applied answer.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		Phase:     s.phase,
		Index:     s.current,
		Len:       len(s.items),
		Correct:   s.correct,
		Incorrect: s.incorrect,
	}
	if s.phase == PhaseInProgress {
		st.Item = s.items[s.current]
		if a := s.answers[s.current]; a != nil {
			cp := *a
			st.Answer = &cp
		}
	}
	return st
}

// Phase returns the session's lifecycle state.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Len returns the number of questions in the session.
func (s *Session) Len() int { return len(s.items) }

// Index returns the zero-based position of the current question.
func (s *Session) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// CorrectCount returns the number of correct answers so far.
func (s *Session) CorrectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.correct
}

// IncorrectCount returns the number of incorrect answers so far.
func (s *Session) IncorrectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.incorrect
}

// Current returns the question at the current position.
func (s *Session) Current() (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseInProgress {
		return Item{}, ErrSessionFinished
	}
	return s.items[s.current], nil
}

// CurrentAnswer returns the answer recorded for the current question, if any.
func (s *Session) CurrentAnswer() (Answer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current >= len(s.answers) || s.answers[s.current] == nil {
		return Answer{}, false
	}
	return *s.answers[s.current], true
}

// Answer submits option for the current question. An answered question
// cannot be answered again.
func (s *Session) Answer(option int) (Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseInProgress {
		return Answer{}, ErrSessionFinished
	}
	if s.answers[s.current] != nil {
		return Answer{}, ErrAlreadyAnswered
	}
	item := s.items[s.current]
	if option < 0 || option >= len(item.Options) {
		return Answer{}, ErrInvalidOption
	}

	a := &Answer{
		Position:     s.current,
		Selected:     option,
		Correct:      option == item.CorrectIndex,
		QuestionText: item.Question.Text,
		SelectedText: item.Options[option],
		CorrectText:  item.Options[item.CorrectIndex],
		Difficulty:   item.Question.Difficulty,
	}
	s.answers[s.current] = a
	if a.Correct {
		s.correct++
	} else {
		s.incorrect++
	}
	return *a, nil
}

// Next advances past an answered question. Advancing past the last
// question finishes the session.
func (s *Session) Next(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseInProgress {
		return ErrSessionFinished
	}
	if s.answers[s.current] == nil {
		return ErrNotAnswered
	}
	if s.current == len(s.items)-1 {
		s.phase = PhaseFinished
		s.finishedAt = now
		return nil
	}
	s.current++
	return nil
}

// Abandon discards an in-progress session. Abandoned sessions yield no
// result.
func (s *Session) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseInProgress {
		s.phase = PhaseAbandoned
	}
}

// Answers returns the answer log in presentation order.
func (s *Session) Answers() []Answer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answerLog()
}

func (s *Session) answerLog() []Answer {
	out := make([]Answer, 0, len(s.answers))
	for _, a := range s.answers {
		if a != nil {
			out = append(out, *a)
		}
	}
	return out
}

// Result summarizes a finished session.
type Result struct {
	Score   int
	Total   int
	Passed  bool
	Answers []Answer
	Tally   progress.Tally
	Attempt progress.Attempt
}

// Result scores a finished session.
func (s *Session) Result() (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseFinished {
		return Result{}, ErrNotFinished
	}

	tally := progress.NewTally()
	var wrong []progress.IncorrectAnswer
	answers := s.answerLog()
	for _, a := range answers {
		tally.Add(a.Difficulty, a.Correct)
		if !a.Correct {
			wrong = append(wrong, progress.IncorrectAnswer{
				QuestionText: a.QuestionText,
				ChosenText:   a.SelectedText,
				CorrectText:  a.CorrectText,
			})
		}
	}

	passed := Passed(s.correct)
	return Result{
		Score:   s.correct,
		Total:   len(s.items),
		Passed:  passed,
		Answers: answers,
		Tally:   tally,
		Attempt: progress.Attempt{
			ID:               s.ID,
			Date:             s.finishedAt.UTC(),
			Score:            s.correct,
			Passed:           passed,
			IncorrectAnswers: wrong,
		},
	}, nil
}

// Passed reports whether score meets the pass threshold.
func Passed(score int) bool {
	return score >= PassThreshold
}
