package tracker_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/studyplan/internal/curriculum"
	"github.com/abhisek/studyplan/internal/progress"
	"github.com/abhisek/studyplan/internal/quiz"
	"github.com/abhisek/studyplan/internal/roster"
	"github.com/abhisek/studyplan/internal/syncer"
	"github.com/abhisek/studyplan/internal/tracker"
	"github.com/abhisek/studyplan/internal/tracker/trackertest"
)

type manualTimer struct {
	mu      sync.Mutex
	pending func()
}

func (m *manualTimer) Schedule(_ time.Duration, fn func()) {
	m.mu.Lock()
	m.pending = fn
	m.mu.Unlock()
}

func (m *manualTimer) Cancel() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	had := m.pending != nil
	m.pending = nil
	return had
}

func (m *manualTimer) isPending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending != nil
}

type memRemote struct {
	mu   sync.Mutex
	docs map[string]progress.Snapshot
	puts int
}

func (r *memRemote) Create(_ context.Context, doc progress.Snapshot) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs["h1"] = doc
	return "h1", nil
}

func (r *memRemote) Get(_ context.Context, h string) (progress.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[h]
	if !ok {
		return progress.Snapshot{}, errors.New("missing")
	}
	return d, nil
}

func (r *memRemote) Put(_ context.Context, h string, doc progress.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.puts++
	r.docs[h] = doc
	return nil
}

// playQuiz answers every question, getting the first `correct` of them right.
func playQuiz(t *testing.T, tr *tracker.Tracker, topicID string, correct int) *tracker.Outcome {
	t.Helper()
	s, err := tr.StartQuiz(topicID)
	require.NoError(t, err)

	for i := 0; i < s.Len(); i++ {
		item, err := s.Current()
		require.NoError(t, err)
		choice := item.CorrectIndex
		if i >= correct {
			choice = (item.CorrectIndex + 1) % len(item.Options)
		}
		_, err = tr.Answer(choice)
		require.NoError(t, err)

		out, err := tr.Next(t.Context())
		require.NoError(t, err)
		if i < s.Len()-1 {
			require.Nil(t, out)
		} else {
			require.NotNil(t, out)
			return out
		}
	}
	t.Fatal("quiz did not finish")
	return nil
}

func TestNoActiveUser(t *testing.T) {
	env := trackertest.New(t, nil)

	_, err := env.Tracker.Summary()
	assert.ErrorIs(t, err, tracker.ErrNoActiveUser)
	_, err = env.Tracker.StartQuiz("m1")
	assert.ErrorIs(t, err, tracker.ErrNoActiveUser)
	_, err = env.Tracker.Toggle(t.Context(), "m1")
	assert.ErrorIs(t, err, tracker.ErrNoActiveUser)

	ok, err := env.Tracker.Restore(t.Context())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSelectPersistsAndRestores(t *testing.T) {
	env := trackertest.New(t, nil)
	require.NoError(t, env.Tracker.Select(t.Context(), "bob"))

	id, err := env.Store.CurrentUser(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "bob", id)

	again := tracker.New(tracker.Options{Store: env.Store, Roster: env.Roster})
	ok, err := again.Restore(t.Context())
	require.NoError(t, err)
	require.True(t, ok)
	ws, err := again.Active()
	require.NoError(t, err)
	assert.Equal(t, "bob", ws.User.ID)
	assert.Equal(t, "Fixture Plan", ws.Curriculum.Title())
}

func TestSelectUnknownUser(t *testing.T) {
	env := trackertest.New(t, nil)
	err := env.Tracker.Select(t.Context(), "mallory")
	assert.ErrorIs(t, err, roster.ErrUnknownUser)
}

func TestUsersAreIsolated(t *testing.T) {
	env := trackertest.New(t, nil)
	ctx := t.Context()

	require.NoError(t, env.Tracker.Select(ctx, "alice"))
	_, err := env.Tracker.Toggle(ctx, "m1")
	require.NoError(t, err)

	require.NoError(t, env.Tracker.Select(ctx, "bob"))
	view, err := env.Tracker.Topic("m1")
	require.NoError(t, err)
	assert.False(t, view.Completed)

	require.NoError(t, env.Tracker.Select(ctx, "alice"))
	view, err = env.Tracker.Topic("m1")
	require.NoError(t, err)
	assert.True(t, view.Completed)
}

func TestPassingQuizCompletesTopicOnce(t *testing.T) {
	env := trackertest.New(t, nil)
	require.NoError(t, env.Tracker.Select(t.Context(), "alice"))

	out := playQuiz(t, env.Tracker, "m1", 8)
	assert.True(t, out.Result.Passed)
	assert.Equal(t, 8, out.Result.Score)
	assert.True(t, out.NewlyCompleted)
	assert.Equal(t, "Linear equations", out.Topic.Topic.Title)

	celebrations := env.Celebrations()
	require.Len(t, celebrations, 1)
	assert.Equal(t, "m1", celebrations[0].Topic.Topic.ID)
	assert.Equal(t, 8, celebrations[0].Score)

	out = playQuiz(t, env.Tracker, "m1", 10)
	assert.True(t, out.Result.Passed)
	assert.False(t, out.NewlyCompleted)
	assert.Len(t, env.Celebrations(), 1)

	view, err := env.Tracker.Topic("m1")
	require.NoError(t, err)
	assert.True(t, view.Completed)
	assert.Equal(t, 2, view.Attempts)
	assert.Equal(t, 10, view.BestScore)

	a, err := env.Tracker.Analytics()
	require.NoError(t, err)
	assert.Equal(t, 2, a.QuizzesTaken)
	assert.Equal(t, 20, a.QuestionsAnswered)
}

func TestFailingQuizRecordsAttemptOnly(t *testing.T) {
	env := trackertest.New(t, nil)
	require.NoError(t, env.Tracker.Select(t.Context(), "alice"))

	out := playQuiz(t, env.Tracker, "s1", 7)
	assert.False(t, out.Result.Passed)
	assert.False(t, out.NewlyCompleted)
	assert.Len(t, out.Result.Attempt.IncorrectAnswers, 3)

	view, err := env.Tracker.Topic("s1")
	require.NoError(t, err)
	assert.False(t, view.Completed)
	assert.Equal(t, 1, view.Attempts)
	assert.Empty(t, env.Celebrations())
}

func TestSmallTopicPoolFallsBackToDefault(t *testing.T) {
	env := trackertest.New(t, nil)
	require.NoError(t, env.Tracker.Select(t.Context(), "alice"))

	s, err := env.Tracker.StartQuiz("m2")
	require.NoError(t, err)
	assert.True(t, s.UsedDefaultPool)
	assert.Equal(t, quiz.SessionSize, s.Len())
}

func TestAbandonQuizLeavesNoTrace(t *testing.T) {
	env := trackertest.New(t, nil)
	require.NoError(t, env.Tracker.Select(t.Context(), "alice"))

	s, err := env.Tracker.StartQuiz("m1")
	require.NoError(t, err)
	item, err := s.Current()
	require.NoError(t, err)
	_, err = env.Tracker.Answer(item.CorrectIndex)
	require.NoError(t, err)

	env.Tracker.AbandonQuiz()
	assert.Equal(t, quiz.PhaseAbandoned, s.Phase())

	_, err = env.Tracker.CurrentQuiz()
	assert.ErrorIs(t, err, quiz.ErrNoSession)
	_, err = env.Tracker.Next(t.Context())
	assert.ErrorIs(t, err, quiz.ErrNoSession)

	attempts, err := env.Tracker.Attempts("m1")
	require.NoError(t, err)
	assert.Empty(t, attempts)
}

func TestQuizUnknownTopic(t *testing.T) {
	env := trackertest.New(t, nil)
	require.NoError(t, env.Tracker.Select(t.Context(), "alice"))
	_, err := env.Tracker.StartQuiz("nope")
	assert.ErrorIs(t, err, tracker.ErrUnknownTopic)
}

func TestToggleRespectsPolicy(t *testing.T) {
	env := trackertest.New(t, func(o *tracker.Options) { o.AllowManualToggle = false })
	require.NoError(t, env.Tracker.Select(t.Context(), "alice"))

	_, err := env.Tracker.Toggle(t.Context(), "m1")
	assert.ErrorIs(t, err, tracker.ErrManualToggleDisabled)
}

func TestTopicsAndSummary(t *testing.T) {
	env := trackertest.New(t, nil)
	ctx := t.Context()
	require.NoError(t, env.Tracker.Select(ctx, "alice"))

	day, err := env.Tracker.CurrentDay()
	require.NoError(t, err)
	assert.Equal(t, 2, day)

	for _, id := range []string{"m1", "s1", "m2"} {
		_, err := env.Tracker.Toggle(ctx, id)
		require.NoError(t, err)
	}

	today, err := env.Tracker.Topics(curriculum.Query{Filter: curriculum.FilterToday})
	require.NoError(t, err)
	require.Len(t, today, 1)
	assert.Equal(t, "m2", today[0].Topic.ID)

	pending, err := env.Tracker.Topics(curriculum.Query{Filter: curriculum.FilterPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "s2", pending[0].Topic.ID)

	sum, err := env.Tracker.Summary()
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Overall.Completed)
	assert.Equal(t, 75, sum.Overall.Percentage)
	assert.Equal(t, 2, sum.Streak)
	assert.Equal(t, 3, sum.DaysLeft)

	subjects, err := env.Tracker.Subjects()
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, 100, subjects[0].Percentage)

	grid, err := env.Tracker.Grid()
	require.NoError(t, err)
	assert.Len(t, grid, 5)
	assert.True(t, grid[1].Current)
}

func TestExportImportRoundTrip(t *testing.T) {
	env := trackertest.New(t, nil)
	ctx := t.Context()
	require.NoError(t, env.Tracker.Select(ctx, "alice"))
	playQuiz(t, env.Tracker, "m1", 9)

	e, err := env.Tracker.Export()
	require.NoError(t, err)
	raw, err := json.Marshal(e)
	require.NoError(t, err)

	require.NoError(t, env.Tracker.Reset(ctx))
	view, err := env.Tracker.Topic("m1")
	require.NoError(t, err)
	assert.False(t, view.Completed)

	_, err = env.Tracker.Import(ctx, raw)
	require.NoError(t, err)
	view, err = env.Tracker.Topic("m1")
	require.NoError(t, err)
	assert.True(t, view.Completed)
	assert.Equal(t, 1, view.Attempts)
}

func TestImportRejectsGarbage(t *testing.T) {
	env := trackertest.New(t, nil)
	ctx := t.Context()
	require.NoError(t, env.Tracker.Select(ctx, "alice"))
	_, err := env.Tracker.Toggle(ctx, "m1")
	require.NoError(t, err)

	_, err = env.Tracker.Import(ctx, []byte(`{"completion": "nope"}`))
	assert.ErrorIs(t, err, progress.ErrInvalidImport)

	view, err := env.Tracker.Topic("m1")
	require.NoError(t, err)
	assert.True(t, view.Completed)
}

func TestMutationsSchedulePush(t *testing.T) {
	timer := &manualTimer{}
	rem := &memRemote{docs: make(map[string]progress.Snapshot)}
	env := trackertest.New(t, func(o *tracker.Options) {
		o.Remote = rem
		o.Timer = func() syncer.Timer { return timer }
	})
	ctx := t.Context()
	require.NoError(t, env.Tracker.Select(ctx, "alice"))

	ws, err := env.Tracker.Active()
	require.NoError(t, err)
	_, err = ws.Sync.CreateRemote(ctx)
	require.NoError(t, err)

	_, err = env.Tracker.Toggle(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, timer.isPending())
	assert.Equal(t, 0, rem.puts)

	env.Tracker.Close(ctx)
	assert.False(t, timer.isPending())
	assert.Equal(t, 1, rem.puts)
	assert.True(t, rem.docs["h1"].Completion["m1"])
}

func TestSelectAdoptsNewerRemote(t *testing.T) {
	rem := &memRemote{docs: make(map[string]progress.Snapshot)}
	env := trackertest.New(t, func(o *tracker.Options) {
		o.Remote = rem
		o.Timer = func() syncer.Timer { return &manualTimer{} }
	})
	ctx := t.Context()
	require.NoError(t, env.Tracker.Select(ctx, "alice"))
	ws, err := env.Tracker.Active()
	require.NoError(t, err)
	_, err = ws.Sync.CreateRemote(ctx)
	require.NoError(t, err)

	rem.docs["h1"] = progress.Snapshot{
		Completion:  map[string]bool{"s2": true},
		LastUpdated: env.Now().Add(time.Minute),
	}
	require.NoError(t, env.Tracker.Select(ctx, "alice"))

	view, err := env.Tracker.Topic("s2")
	require.NoError(t, err)
	assert.True(t, view.Completed)
}

func TestExportTo(t *testing.T) {
	env := trackertest.New(t, nil)
	require.NoError(t, env.Tracker.Select(t.Context(), "alice"))
	_, err := env.Tracker.Toggle(t.Context(), "m1")
	require.NoError(t, err)

	path, err := env.Tracker.ExportTo(env.Dir)
	require.NoError(t, err)
	assert.Equal(t, progress.ExportFileName(env.Now()), filepath.Base(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	e, err := progress.ParseImport(raw)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"m1": true}, e.Completion)
	assert.Equal(t, progress.FormatVersion, e.FormatVersion)
}

func TestTopicViewReportsQuestionPools(t *testing.T) {
	env := trackertest.New(t, nil)
	require.NoError(t, env.Tracker.Select(t.Context(), "alice"))

	own, err := env.Tracker.Topic("m1")
	require.NoError(t, err)
	assert.Equal(t, 13, own.OwnQuestions)
	assert.Equal(t, 10, own.DefaultQuestions)

	short, err := env.Tracker.Topic("m2")
	require.NoError(t, err)
	assert.Equal(t, 3, short.OwnQuestions)
}
