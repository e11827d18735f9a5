package tracker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/studyplan/internal/curriculum"
	"github.com/abhisek/studyplan/internal/quiz"
)

// Outcome is the recorded result of a finished quiz.
type Outcome struct {
	Topic          curriculum.Entry
	Result         quiz.Result
	NewlyCompleted bool
}

// StartQuiz begins a quiz for topicID, replacing any quiz in progress.
func (t *Tracker) StartQuiz(topicID string) (*quiz.Session, error) {
	ws, err := t.Active()
	if err != nil {
		return nil, err
	}
	if !ws.Curriculum.HasTopic(topicID) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTopic, topicID)
	}

	s, err := ws.engine.Start(topicID)
	if err != nil {
		t.log.Warn("quiz not started",
			zap.String("user", ws.User.ID),
			zap.String("topic", topicID),
			zap.Error(err))
		return nil, err
	}

	t.mu.Lock()
	t.quiz = s
	t.mu.Unlock()

	t.log.Info("quiz started",
		zap.String("user", ws.User.ID),
		zap.String("topic", topicID),
		zap.String("session", s.ID),
		zap.Bool("default_pool", s.UsedDefaultPool))
	return s, nil
}

// CurrentQuiz returns the quiz in progress.
func (t *Tracker) CurrentQuiz() (*quiz.Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.quiz == nil {
		return nil, quiz.ErrNoSession
	}
	return t.quiz, nil
}

// Answer submits option for the current question.
func (t *Tracker) Answer(option int) (quiz.Answer, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.quiz == nil {
		return quiz.Answer{}, quiz.ErrNoSession
	}
	return t.quiz.Answer(option)
}

// Next advances past the answered question. After the last question it
// records the attempt, marks the topic complete on a pass and returns the
// Outcome; otherwise it returns nil.
func (t *Tracker) Next(ctx context.Context) (*Outcome, error) {
	ws, err := t.Active()
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	s := t.quiz
	if s == nil {
		t.mu.Unlock()
		return nil, quiz.ErrNoSession
	}
	if err := s.Next(t.opts.Clock()); err != nil {
		t.mu.Unlock()
		return nil, err
	}
	if s.Phase() != quiz.PhaseFinished {
		t.mu.Unlock()
		return nil, nil
	}
	t.quiz = nil
	t.mu.Unlock()

	res, err := s.Result()
	if err != nil {
		return nil, err
	}
	newly, err := ws.Progress.RecordQuiz(ctx, s.TopicID, res.Attempt, res.Tally)
	if err != nil {
		return nil, fmt.Errorf("record quiz: %w", err)
	}

	entry, _ := ws.Curriculum.Topic(s.TopicID)
	t.log.Info("quiz finished",
		zap.String("user", ws.User.ID),
		zap.String("topic", s.TopicID),
		zap.Int("score", res.Score),
		zap.Bool("passed", res.Passed),
		zap.Bool("newly_completed", newly))
	if t.opts.Metrics != nil {
		t.opts.Metrics.QuizFinished(res.Passed)
	}
	if newly && t.opts.Notifier != nil {
		t.opts.Notifier.TopicCompleted(Celebration{User: ws.User, Topic: entry, Score: res.Score})
	}
	return &Outcome{Topic: entry, Result: res, NewlyCompleted: newly}, nil
}

// AbandonQuiz discards the quiz in progress without recording anything.
func (t *Tracker) AbandonQuiz() {
	t.mu.Lock()
	s := t.quiz
	t.quiz = nil
	t.mu.Unlock()
	if s != nil {
		s.Abandon()
		t.log.Info("quiz abandoned", zap.String("topic", s.TopicID), zap.Int("answered", s.CorrectCount()+s.IncorrectCount()))
	}
}
