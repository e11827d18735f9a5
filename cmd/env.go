package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/studyplan/internal/config"
	"github.com/abhisek/studyplan/internal/logging"
	"github.com/abhisek/studyplan/internal/metrics"
	"github.com/abhisek/studyplan/internal/remote"
	"github.com/abhisek/studyplan/internal/roster"
	"github.com/abhisek/studyplan/internal/store"
	"github.com/abhisek/studyplan/internal/tracker"
)

// errNoUser is returned by commands that need a learner when none is set.
var errNoUser = errors.New("no active user: run `studyplan use <id>` or pass --user")

// runtime is everything a command needs, built from config.
type runtime struct {
	cfg     *config.Config
	log     *zap.Logger
	store   *store.Store
	metrics *metrics.Metrics
	tracker *tracker.Tracker
	remote  remote.Client

	closers []func()
}

type setupOptions struct {
	// tui keeps the console log sink off while Bubble Tea owns the terminal.
	tui bool

	// console forces the stderr sink on.
	console bool
}

// setup loads config, opens the store and builds the tracker. Callers must
// call Close.
func setup(cmd *cobra.Command, so setupOptions) (*runtime, error) {
	configFile, _ := cmd.Flags().GetString("config")
	db, _ := cmd.Flags().GetString("db")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load(config.Options{ConfigFile: configFile, DB: db})
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg}
	log, flush, err := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
		Console: !so.tui && (verbose || so.console),
		Stderr:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}
	rt.log = log
	rt.closers = append(rt.closers, flush)

	if err := store.EnsureDir(cfg.DB); err != nil {
		rt.Close()
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	st, err := store.Open(cfg.DB)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	rt.store = st
	rt.closers = append(rt.closers, func() { st.Close() })

	r, err := roster.Load(cfg.Content.Users)
	if err != nil {
		rt.Close()
		return nil, err
	}

	client, closeRemote := buildRemote(cmd.Context(), cfg, log)
	rt.closers = append(rt.closers, closeRemote)
	rt.remote = client

	rt.metrics = metrics.New()
	rt.tracker = tracker.New(tracker.Options{
		Store:             st,
		Roster:            r,
		Remote:            client,
		Logger:            log,
		Metrics:           rt.metrics,
		AllowManualToggle: cfg.Quiz.AllowManualToggle,
		SyncDebounce:      cfg.Sync.Debounce,
		Notifier: tracker.NotifierFunc(func(c tracker.Celebration) {
			log.Info("topic completed",
				zap.String("user", c.User.ID),
				zap.String("topic", c.Topic.Topic.ID),
				zap.Int("score", c.Score))
		}),
	})
	log.Debug("runtime ready",
		zap.String("db", cfg.DB),
		zap.String("config", cfg.ConfigFile),
		zap.String("sync_backend", cfg.Sync.Backend))
	return rt, nil
}

// buildRemote returns the configured sync backend, or nil for local-only.
// An unreachable Redis is logged and treated as local-only.
func buildRemote(ctx context.Context, cfg *config.Config, log *zap.Logger) (remote.Client, func()) {
	noop := func() {}
	switch cfg.Sync.Backend {
	case config.BackendHTTP:
		retry := remote.DefaultRetryConfig()
		retry.MaxAttempts = cfg.Sync.MaxRetries + 1
		return remote.NewHTTPClient(remote.HTTPConfig{
			BaseURL:       cfg.Sync.BaseURL,
			AccessKey:     cfg.Sync.AccessKey,
			MasterKey:     cfg.Sync.MasterKey,
			Timeout:       cfg.Sync.Timeout,
			RatePerSecond: cfg.Sync.RatePerSecond,
			Retry:         retry,
		}, log), noop
	case config.BackendRedis:
		ctx, cancel := context.WithTimeout(ctx, cfg.Sync.Timeout)
		defer cancel()
		c, err := remote.NewRedisClient(ctx, cfg.Sync.RedisURL)
		if err != nil {
			log.Warn("redis sync backend unavailable; continuing local-only", zap.Error(err))
			return nil, noop
		}
		return c, func() { c.Close() }
	default:
		return nil, noop
	}
}

// activate makes a learner active: the --user flag when given, otherwise
// the persisted current user.
func (rt *runtime) activate(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if id, _ := cmd.Flags().GetString("user"); id != "" {
		return rt.tracker.Select(ctx, id)
	}
	ok, err := rt.tracker.Restore(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errNoUser
	}
	return nil
}

// Close flushes pending sync work and releases resources in reverse order.
func (rt *runtime) Close() {
	if rt.tracker != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		rt.tracker.Close(ctx)
		cancel()
	}
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}

// withUser runs fn with an active learner.
func withUser(cmd *cobra.Command, fn func(rt *runtime) error) error {
	rt, err := setup(cmd, setupOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.activate(cmd); err != nil {
		return err
	}
	return fn(rt)
}
