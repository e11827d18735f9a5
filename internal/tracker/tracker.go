// Package tracker holds the active learner's context and coordinates the
// curriculum, progress, quiz and sync components on its behalf. It is the
// single writer of a user's progress.
package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/studyplan/internal/curriculum"
	"github.com/abhisek/studyplan/internal/metrics"
	"github.com/abhisek/studyplan/internal/progress"
	"github.com/abhisek/studyplan/internal/questionbank"
	"github.com/abhisek/studyplan/internal/quiz"
	"github.com/abhisek/studyplan/internal/remote"
	"github.com/abhisek/studyplan/internal/roster"
	"github.com/abhisek/studyplan/internal/stats"
	"github.com/abhisek/studyplan/internal/store"
	"github.com/abhisek/studyplan/internal/syncer"
)

var (
	ErrNoActiveUser         = errors.New("no active user selected")
	ErrManualToggleDisabled = errors.New("manual completion toggle is disabled; pass the quiz instead")
	ErrUnknownTopic         = errors.New("unknown topic")
)

// Celebration describes a topic completed for the first time by a quiz.
type Celebration struct {
	User  roster.User
	Topic curriculum.Entry
	Score int
}

// Notifier is told about first-time quiz completions.
type Notifier interface {
	TopicCompleted(c Celebration)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Celebration)

func (f NotifierFunc) TopicCompleted(c Celebration) { f(c) }

// Options wires a Tracker.
type Options struct {
	Store  *store.Store
	Roster *roster.Roster

	// Remote is the sync backend. Nil keeps every user local-only.
	Remote remote.Client

	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Notifier Notifier

	// AllowManualToggle permits completion changes outside a quiz.
	AllowManualToggle bool

	// SyncDebounce is the quiet interval before an automatic push.
	SyncDebounce time.Duration

	// Clock, Rand and Timer are injectable for tests.
	Clock func() time.Time
	Rand  *rand.Rand
	Timer func() syncer.Timer
}

// Workspace is everything loaded for the active user.
type Workspace struct {
	User       roster.User
	Curriculum *curriculum.Index
	Questions  *questionbank.Bank
	Progress   *progress.Store
	Sync       *syncer.Reconciler

	engine *quiz.Engine
}

// Tracker owns the active workspace and the in-progress quiz.
type Tracker struct {
	opts Options
	log  *zap.Logger

	mu     sync.Mutex
	active *Workspace
	quiz   *quiz.Session
}

// New returns a Tracker with no active user.
func New(opts Options) *Tracker {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.SyncDebounce == 0 {
		opts.SyncDebounce = syncer.DefaultDebounce
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{opts: opts, log: log}
}

// Users returns the roster.
func (t *Tracker) Users() []roster.User {
	return t.opts.Roster.Users()
}

// Restore activates the persisted current user, if any. It reports whether
// a user was restored; a stale id that is no longer in the roster is ignored.
func (t *Tracker) Restore(ctx context.Context) (bool, error) {
	id, err := t.opts.Store.CurrentUser(ctx)
	if err != nil {
		return false, err
	}
	if id == "" {
		return false, nil
	}
	if _, err := t.opts.Roster.Get(id); err != nil {
		t.log.Warn("persisted user not in roster", zap.String("user", id))
		return false, nil
	}
	return true, t.Select(ctx, id)
}

// Select loads userID's content and progress, makes it the active user,
// persists the choice and reconciles with the remote copy.
func (t *Tracker) Select(ctx context.Context, userID string) error {
	user, err := t.opts.Roster.Get(userID)
	if err != nil {
		return err
	}

	ws, err := t.load(ctx, user)
	if err != nil {
		return fmt.Errorf("load user %s: %w", userID, err)
	}
	if err := t.opts.Store.SetCurrentUser(ctx, userID); err != nil {
		ws.Sync.Close()
		return err
	}

	t.mu.Lock()
	prev := t.active
	t.active = ws
	t.quiz = nil
	t.mu.Unlock()
	if prev != nil {
		prev.Sync.Flush(ctx)
		prev.Sync.Close()
	}

	t.log.Info("user selected", zap.String("user", userID))
	ws.Sync.Reconcile(ctx)
	t.recordCompletion(ws)
	return nil
}

func (t *Tracker) load(ctx context.Context, user roster.User) (*Workspace, error) {
	log := t.log.With(zap.String("user", user.ID))
	ws := &Workspace{User: user}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ix, err := curriculum.Load(user.CurriculumFile)
		if err != nil {
			return err
		}
		if user.TotalDays > 0 {
			ix = ix.WithTotalDays(user.TotalDays)
		}
		ws.Curriculum = ix
		return nil
	})
	g.Go(func() error {
		bank, err := questionbank.Load(user.QuestionFile)
		if err != nil {
			return err
		}
		ws.Questions = bank
		return nil
	})
	g.Go(func() error {
		p, err := progress.Open(gctx, t.opts.Store.Namespace(user.ID),
			progress.WithLogger(log),
			progress.WithClock(t.opts.Clock))
		if err != nil {
			return err
		}
		ws.Progress = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	syncOpts := []syncer.Option{
		syncer.WithLogger(log),
		syncer.WithClock(t.opts.Clock),
		syncer.WithDebounce(t.opts.SyncDebounce),
	}
	if t.opts.Metrics != nil {
		syncOpts = append(syncOpts, syncer.WithRecorder(t.opts.Metrics))
	}
	if t.opts.Timer != nil {
		syncOpts = append(syncOpts, syncer.WithTimer(t.opts.Timer()))
	}
	rec, err := syncer.New(ctx, t.opts.Store.Namespace(user.ID), ws.Progress, t.opts.Remote, syncOpts...)
	if err != nil {
		return nil, err
	}
	ws.Sync = rec

	engineOpts := []quiz.Option{quiz.WithClock(t.opts.Clock)}
	if t.opts.Rand != nil {
		engineOpts = append(engineOpts, quiz.WithRand(t.opts.Rand))
	}
	ws.engine = quiz.NewEngine(ws.Questions, engineOpts...)

	ws.Progress.OnChange(func(c progress.Change) {
		if t.opts.Metrics != nil {
			t.opts.Metrics.ProgressChanged(string(c.Source))
		}
		t.recordCompletion(ws)
		// Adopted remote state is already in sync.
		if c.Source != progress.SourceSync {
			ws.Sync.RequestPush()
		}
	})
	return ws, nil
}

func (t *Tracker) recordCompletion(ws *Workspace) {
	if t.opts.Metrics == nil {
		return
	}
	o := stats.Overall(ws.Curriculum, ws.Progress)
	t.opts.Metrics.SetCompletion(ws.User.ID, o.Percentage)
}

// Active returns the active workspace.
func (t *Tracker) Active() (*Workspace, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return nil, ErrNoActiveUser
	}
	return t.active, nil
}

// Close runs any pending push and stops the sync timer.
func (t *Tracker) Close(ctx context.Context) {
	t.mu.Lock()
	ws := t.active
	t.mu.Unlock()
	if ws != nil {
		ws.Sync.Flush(ctx)
		ws.Sync.Close()
	}
}

// Now returns the tracker's clock reading.
func (t *Tracker) Now() time.Time {
	return t.opts.Clock()
}

// AllowManualToggle reports the manual toggle policy.
func (t *Tracker) AllowManualToggle() bool {
	return t.opts.AllowManualToggle
}

// Toggle flips a topic's completion outside a quiz, when policy allows.
func (t *Tracker) Toggle(ctx context.Context, topicID string) (bool, error) {
	if !t.opts.AllowManualToggle {
		return false, ErrManualToggleDisabled
	}
	ws, err := t.Active()
	if err != nil {
		return false, err
	}
	if !ws.Curriculum.HasTopic(topicID) {
		return false, fmt.Errorf("%w: %s", ErrUnknownTopic, topicID)
	}
	return ws.Progress.Toggle(ctx, topicID)
}

// Reset clears all of the active user's progress.
func (t *Tracker) Reset(ctx context.Context) error {
	ws, err := t.Active()
	if err != nil {
		return err
	}
	t.AbandonQuiz()
	return ws.Progress.Reset(ctx)
}

// Export returns a backup of the active user's progress.
func (t *Tracker) Export() (progress.Export, error) {
	ws, err := t.Active()
	if err != nil {
		return progress.Export{}, err
	}
	return ws.Progress.Export(), nil
}

// Import validates raw and replaces the active user's progress with it.
// Nothing is changed when validation fails.
func (t *Tracker) Import(ctx context.Context, raw []byte) (progress.Export, error) {
	ws, err := t.Active()
	if err != nil {
		return progress.Export{}, err
	}
	e, err := progress.ParseImport(raw)
	if err != nil {
		t.log.Warn("import rejected", zap.String("user", ws.User.ID), zap.Error(err))
		return progress.Export{}, err
	}
	if err := ws.Progress.Import(ctx, e); err != nil {
		return progress.Export{}, err
	}
	return e, nil
}

// ExportTo writes a backup of the active user's progress into dir using the
// conventional file name and returns the written path.
func (t *Tracker) ExportTo(dir string) (string, error) {
	e, err := t.Export()
	if err != nil {
		return "", err
	}
	raw, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode export: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, progress.ExportFileName(t.opts.Clock()))
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}
