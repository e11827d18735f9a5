// Package progress is the per-user source of truth for topic completion,
// quiz attempt history and quiz analytics. Every mutation is written through
// to persistent storage before it returns.
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/studyplan/internal/store"
)

// Store holds one user's progress in memory, backed by a namespaced KV.
type Store struct {
	mu         sync.RWMutex
	kv         store.KV
	log        *zap.Logger
	now        func() time.Time
	completion map[string]bool
	attempts   map[string][]Attempt
	analytics  Analytics
	observers  []func(Change)
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open hydrates a Store from kv. Missing keys start empty.
func Open(ctx context.Context, kv store.KV, opts ...Option) (*Store, error) {
	s := &Store{
		kv:         kv,
		log:        zap.NewNop(),
		now:        time.Now,
		completion: make(map[string]bool),
		attempts:   make(map[string][]Attempt),
		analytics:  newAnalytics(),
	}
	for _, o := range opts {
		o(s)
	}

	if err := s.load(ctx, KeyCompletion, &s.completion); err != nil {
		return nil, err
	}
	if err := s.load(ctx, KeyAttempts, &s.attempts); err != nil {
		return nil, err
	}
	if err := s.load(ctx, KeyAnalytics, &s.analytics); err != nil {
		return nil, err
	}
	s.completion = normalizeCompletion(s.completion)
	if s.attempts == nil {
		s.attempts = make(map[string][]Attempt)
	}
	s.analytics = s.analytics.clone()
	return s, nil
}

func (s *Store) load(ctx context.Context, key string, out any) error {
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (s *Store) save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}

// OnChange registers fn to be called after every completion change.
// Observers run synchronously, after the change is persisted, without the
// store lock held.
func (s *Store) OnChange(fn func(Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *Store) notify(c Change) {
	s.mu.RLock()
	obs := slices.Clone(s.observers)
	s.mu.RUnlock()
	for _, fn := range obs {
		fn(c)
	}
}

// IsComplete reports whether topicID is flagged complete.
func (s *Store) IsComplete(topicID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.completion[topicID]
}

// CompletedCount returns the number of completed topics.
func (s *Store) CompletedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.completion)
}

// Completion returns a copy of the completion record.
func (s *Store) Completion() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneCompletion(s.completion)
}

// SetComplete sets the completion flag for topicID. It reports whether the
// stored state changed; setting the current value is a no-op.
func (s *Store) SetComplete(ctx context.Context, topicID string, done bool) (bool, error) {
	return s.setComplete(ctx, topicID, done, SourceManual)
}

func (s *Store) setComplete(ctx context.Context, topicID string, done bool, src Source) (bool, error) {
	s.mu.Lock()
	if s.completion[topicID] == done {
		s.mu.Unlock()
		return false, nil
	}
	next := cloneCompletion(s.completion)
	if done {
		next[topicID] = true
	} else {
		delete(next, topicID)
	}
	if err := s.save(ctx, KeyCompletion, next); err != nil {
		s.mu.Unlock()
		return false, err
	}
	s.completion = next
	count := len(next)
	s.mu.Unlock()

	s.log.Debug("completion changed",
		zap.String("topic", topicID),
		zap.Bool("completed", done),
		zap.String("source", string(src)))
	s.notify(Change{Source: src, TopicID: topicID, Completed: done, Count: count})
	return true, nil
}

// Toggle flips the completion flag for topicID and returns the new value.
func (s *Store) Toggle(ctx context.Context, topicID string) (bool, error) {
	done := !s.IsComplete(topicID)
	if _, err := s.SetComplete(ctx, topicID, done); err != nil {
		return !done, err
	}
	return done, nil
}

// Reset clears completion, attempt history and analytics.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	for _, key := range []string{KeyCompletion, KeyAttempts, KeyAnalytics} {
		if err := s.kv.Delete(ctx, key); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("reset %s: %w", key, err)
		}
	}
	s.completion = make(map[string]bool)
	s.attempts = make(map[string][]Attempt)
	s.analytics = newAnalytics()
	s.mu.Unlock()

	s.log.Info("progress reset")
	s.notify(Change{Source: SourceReset})
	return nil
}

// RecordAttempt appends a to topicID's attempt history.
func (s *Store) RecordAttempt(ctx context.Context, topicID string, a Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := cloneAttempts(s.attempts)
	next[topicID] = append(next[topicID], a)
	if err := s.save(ctx, KeyAttempts, next); err != nil {
		return err
	}
	s.attempts = next
	return nil
}

// RecordQuiz stores the outcome of a finished quiz: it appends the attempt,
// folds t into the analytics and, when the attempt passed, marks topicID
// complete. It reports whether the topic became complete because of this
// quiz; passing an already-completed topic only adds history.
func (s *Store) RecordQuiz(ctx context.Context, topicID string, a Attempt, t Tally) (bool, error) {
	if err := s.RecordAttempt(ctx, topicID, a); err != nil {
		return false, err
	}

	s.mu.Lock()
	next := s.analytics.with(t)
	if err := s.save(ctx, KeyAnalytics, next); err != nil {
		s.mu.Unlock()
		return false, err
	}
	s.analytics = next
	s.mu.Unlock()

	if !a.Passed {
		return false, nil
	}
	return s.setComplete(ctx, topicID, true, SourceQuiz)
}

// Attempts returns topicID's attempt history, oldest first.
func (s *Store) Attempts(topicID string) []Attempt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Attempt(nil), s.attempts[topicID]...)
}

// AllAttempts returns a copy of every topic's attempt history.
func (s *Store) AllAttempts() map[string][]Attempt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAttempts(s.attempts)
}

// BestScore returns the highest score recorded for topicID.
func (s *Store) BestScore(topicID string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	best, ok := 0, false
	for _, a := range s.attempts[topicID] {
		if !ok || a.Score > best {
			best, ok = a.Score, true
		}
	}
	return best, ok
}

// Analytics returns a copy of the analytics counters.
func (s *Store) Analytics() Analytics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.analytics.clone()
}

// Snapshot returns the portable state used for remote sync.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Completion:   cloneCompletion(s.completion),
		QuizAttempts: cloneAttempts(s.attempts),
		LastUpdated:  s.now().UTC(),
	}
}

// Adopt replaces both the completion record and the attempt history with
// snap's. A nil attempt map in snap clears local history.
func (s *Store) Adopt(ctx context.Context, snap Snapshot) error {
	attempts := snap.QuizAttempts
	if attempts == nil {
		attempts = make(map[string][]Attempt)
	}
	return s.replace(ctx, snap.Completion, attempts, nil, SourceSync)
}

func (s *Store) replace(ctx context.Context, completion map[string]bool, attempts map[string][]Attempt, analytics *Analytics, src Source) error {
	nextCompletion := normalizeCompletion(completion)

	s.mu.Lock()
	if err := s.save(ctx, KeyCompletion, nextCompletion); err != nil {
		s.mu.Unlock()
		return err
	}
	s.completion = nextCompletion

	if attempts != nil {
		next := cloneAttempts(attempts)
		if err := s.save(ctx, KeyAttempts, next); err != nil {
			s.mu.Unlock()
			return err
		}
		s.attempts = next
	}
	if analytics != nil {
		next := analytics.clone()
		if err := s.save(ctx, KeyAnalytics, next); err != nil {
			s.mu.Unlock()
			return err
		}
		s.analytics = next
	}
	count := len(s.completion)
	s.mu.Unlock()

	s.log.Info("progress replaced", zap.String("source", string(src)), zap.Int("completed", count))
	s.notify(Change{Source: src, Count: count})
	return nil
}
