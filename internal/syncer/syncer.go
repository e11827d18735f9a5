// Package syncer reconciles a user's local progress with a remote copy.
// Sync is best effort: failures only change the reported Status.
package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/studyplan/internal/progress"
	"github.com/abhisek/studyplan/internal/remote"
	"github.com/abhisek/studyplan/internal/store"
)

// KeyConfig is the storage key of the sync configuration in a user's namespace.
const KeyConfig = "sync_config"

// DefaultDebounce is the quiet interval before an automatic push.
const DefaultDebounce = 2 * time.Second

// Status is the user-visible sync indicator.
type Status string

const (
	StatusLocal   Status = "local"
	StatusSyncing Status = "syncing"
	StatusSynced  Status = "synced"
	StatusError   Status = "error"
)

// Config is the persisted per-user sync configuration.
type Config struct {
	RemoteHandle string     `json:"remoteHandle,omitempty"`
	LastSync     *time.Time `json:"lastSync,omitempty"`
	AutoSync     bool       `json:"autoSync"`
}

// Local is the progress state the reconciler reads and overwrites.
type Local interface {
	Snapshot() progress.Snapshot
	CompletedCount() int
	Adopt(ctx context.Context, snap progress.Snapshot) error
}

// Recorder observes sync outcomes.
type Recorder interface {
	SyncFinished(op string, err error, elapsed time.Duration)
}

// Reconciler owns the sync configuration, status and debounce timer for
// one user.
type Reconciler struct {
	kv       store.KV
	local    Local
	client   remote.Client
	timer    Timer
	debounce time.Duration
	now      func() time.Time
	log      *zap.Logger
	recorder Recorder
	onStatus func(Status)

	// cfgMu serializes config read-modify-write cycles across the KV write.
	cfgMu sync.Mutex

	mu      sync.Mutex
	cfg     Config
	status  Status
	lastErr error
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithTimer replaces the debounce timer.
func WithTimer(t Timer) Option { return func(r *Reconciler) { r.timer = t } }

// WithDebounce sets the quiet interval before an automatic push.
func WithDebounce(d time.Duration) Option { return func(r *Reconciler) { r.debounce = d } }

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option { return func(r *Reconciler) { r.now = now } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.log = l
		}
	}
}

// WithRecorder reports every remote call to rec.
func WithRecorder(rec Recorder) Option { return func(r *Reconciler) { r.recorder = rec } }

// WithStatusListener calls fn on every status transition.
func WithStatusListener(fn func(Status)) Option { return func(r *Reconciler) { r.onStatus = fn } }

// New loads the sync configuration from kv. A nil client keeps the user in
// local-only mode regardless of configuration.
func New(ctx context.Context, kv store.KV, local Local, client remote.Client, opts ...Option) (*Reconciler, error) {
	r := &Reconciler{
		kv:       kv,
		local:    local,
		client:   client,
		debounce: DefaultDebounce,
		now:      time.Now,
		log:      zap.NewNop(),
		status:   StatusLocal,
		cfg:      Config{AutoSync: true},
	}
	for _, o := range opts {
		o(r)
	}
	if r.timer == nil {
		r.timer = NewTimer()
	}

	raw, err := kv.Get(ctx, KeyConfig)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("load sync config: %w", err)
	default:
		if err := json.Unmarshal([]byte(raw), &r.cfg); err != nil {
			return nil, fmt.Errorf("decode sync config: %w", err)
		}
	}
	return r, nil
}

// Config returns the current sync configuration.
func (r *Reconciler) Config() Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfg
}

// Status returns the current sync indicator.
func (r *Reconciler) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// LastError returns the error behind the most recent StatusError.
func (r *Reconciler) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// HasBackend reports whether a remote client is wired at all.
func (r *Reconciler) HasBackend() bool {
	return r.client != nil
}

// Configured reports whether a remote handle and client are both present.
func (r *Reconciler) Configured() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.configuredLocked()
}

func (r *Reconciler) configuredLocked() bool {
	return r.client != nil && r.cfg.RemoteHandle != ""
}

func (r *Reconciler) setStatus(s Status, err error) {
	r.mu.Lock()
	r.status = s
	r.lastErr = err
	fn := r.onStatus
	r.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

func (r *Reconciler) saveConfig(ctx context.Context, cfg Config) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode sync config: %w", err)
	}
	if err := r.kv.Set(ctx, KeyConfig, string(raw)); err != nil {
		return fmt.Errorf("persist sync config: %w", err)
	}
	r.mu.Lock()
	r.cfg = cfg
	r.mu.Unlock()
	return nil
}

// updateConfig applies fn to the current config and persists the result.
// When fn returns false nothing is written.
func (r *Reconciler) updateConfig(ctx context.Context, fn func(*Config) bool) (bool, error) {
	r.cfgMu.Lock()
	defer r.cfgMu.Unlock()
	cfg := r.Config()
	if !fn(&cfg) {
		return false, nil
	}
	if err := r.saveConfig(ctx, cfg); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Reconciler) record(op string, start time.Time, err error) {
	if r.recorder != nil {
		r.recorder.SyncFinished(op, err, time.Since(start))
	}
	if err != nil {
		r.log.Warn("sync failed", zap.String("op", op), zap.Error(err))
	} else {
		r.log.Debug("sync ok", zap.String("op", op), zap.Duration("elapsed", time.Since(start)))
	}
}

// Pull fetches the remote snapshot. It returns nil without error when sync
// is not configured. Failures set StatusError and are returned for display
// only; local state is never touched.
func (r *Reconciler) Pull(ctx context.Context) (*progress.Snapshot, error) {
	r.mu.Lock()
	if !r.configuredLocked() {
		r.mu.Unlock()
		return nil, nil
	}
	handle := r.cfg.RemoteHandle
	r.mu.Unlock()

	r.setStatus(StatusSyncing, nil)
	start := time.Now()
	snap, err := r.client.Get(ctx, handle)
	r.record("pull", start, err)
	if err != nil {
		r.setStatus(StatusError, err)
		return nil, err
	}
	r.setStatus(StatusSynced, nil)
	return &snap, nil
}

// Push overwrites the remote document with the full local state and stamps
// the last sync time on success. A push whose handle was replaced or
// dropped while in flight leaves the new config alone and reports false.
func (r *Reconciler) Push(ctx context.Context) bool {
	r.mu.Lock()
	if !r.configuredLocked() {
		r.mu.Unlock()
		return false
	}
	handle := r.cfg.RemoteHandle
	r.mu.Unlock()

	r.setStatus(StatusSyncing, nil)
	start := time.Now()
	err := r.client.Put(ctx, handle, r.local.Snapshot())
	r.record("push", start, err)
	if err != nil {
		r.setStatus(StatusError, err)
		return false
	}

	now := r.now().UTC()
	stamped, err := r.updateConfig(ctx, func(c *Config) bool {
		if c.RemoteHandle != handle {
			return false
		}
		c.LastSync = &now
		return true
	})
	if err != nil {
		r.setStatus(StatusError, err)
		return false
	}
	if !stamped {
		r.log.Debug("push superseded by a remote change", zap.String("handle", handle))
		return false
	}
	r.setStatus(StatusSynced, nil)
	return true
}

// ShouldAdopt reports whether a remote snapshot replaces local state: when
// it has strictly more completed topics, or was updated strictly after the
// last successful sync (a missing sync time counts as the Unix epoch).
func ShouldAdopt(localCompleted int, lastSync *time.Time, remoteSnap progress.Snapshot) bool {
	if remoteSnap.CompletedCount() > localCompleted {
		return true
	}
	since := time.Unix(0, 0)
	if lastSync != nil {
		since = *lastSync
	}
	return remoteSnap.LastUpdated.After(since)
}

// Reconcile pulls the remote snapshot and adopts it wholesale when
// ShouldAdopt says so. It reports whether local state was replaced.
func (r *Reconciler) Reconcile(ctx context.Context) bool {
	snap, err := r.Pull(ctx)
	if err != nil || snap == nil {
		return false
	}

	cfg := r.Config()
	if !ShouldAdopt(r.local.CompletedCount(), cfg.LastSync, *snap) {
		return false
	}
	if err := r.local.Adopt(ctx, *snap); err != nil {
		r.log.Error("adopt remote snapshot", zap.Error(err))
		r.setStatus(StatusError, err)
		return false
	}
	r.log.Info("adopted remote progress", zap.Int("completed", snap.CompletedCount()))
	return true
}

// RequestPush schedules a push after the debounce interval when sync and
// auto-sync are enabled. A later request cancels and replaces a pending one.
func (r *Reconciler) RequestPush() {
	r.mu.Lock()
	enabled := r.configuredLocked() && r.cfg.AutoSync
	r.mu.Unlock()
	if !enabled {
		return
	}
	r.timer.Schedule(r.debounce, func() {
		r.Push(context.Background())
	})
}

// Flush runs a pending debounced push immediately.
func (r *Reconciler) Flush(ctx context.Context) {
	if r.timer.Cancel() {
		r.Push(ctx)
	}
}

// Close cancels any pending push.
func (r *Reconciler) Close() {
	r.timer.Cancel()
}

// Connect points sync at an existing remote document and reconciles with it.
func (r *Reconciler) Connect(ctx context.Context, handle string) error {
	if handle == "" {
		return errors.New("remote handle is empty")
	}
	if r.client == nil {
		return errors.New("no remote backend configured")
	}
	if _, err := r.updateConfig(ctx, func(c *Config) bool {
		c.RemoteHandle = handle
		c.LastSync = nil
		return true
	}); err != nil {
		return err
	}
	r.Reconcile(ctx)
	return nil
}

// CreateRemote stores the local state as a new remote document and
// connects to it.
func (r *Reconciler) CreateRemote(ctx context.Context) (string, error) {
	if r.client == nil {
		return "", errors.New("no remote backend configured")
	}
	r.setStatus(StatusSyncing, nil)
	start := time.Now()
	handle, err := r.client.Create(ctx, r.local.Snapshot())
	r.record("create", start, err)
	if err != nil {
		r.setStatus(StatusError, err)
		return "", err
	}

	now := r.now().UTC()
	if _, err := r.updateConfig(ctx, func(c *Config) bool {
		c.RemoteHandle = handle
		c.LastSync = &now
		return true
	}); err != nil {
		r.setStatus(StatusError, err)
		return "", err
	}
	r.setStatus(StatusSynced, nil)
	return handle, nil
}

// Disconnect forgets the remote document and returns to local-only mode.
func (r *Reconciler) Disconnect(ctx context.Context) error {
	r.timer.Cancel()
	if _, err := r.updateConfig(ctx, func(c *Config) bool {
		c.RemoteHandle = ""
		c.LastSync = nil
		return true
	}); err != nil {
		return err
	}
	r.setStatus(StatusLocal, nil)
	return nil
}

// SetAutoSync enables or disables debounced automatic pushes.
func (r *Reconciler) SetAutoSync(ctx context.Context, on bool) error {
	if !on {
		r.timer.Cancel()
	}
	_, err := r.updateConfig(ctx, func(c *Config) bool {
		c.AutoSync = on
		return true
	})
	return err
}
