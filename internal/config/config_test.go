package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	t.Chdir(dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load(Options{})
	require.NoError(t, err)

	dataDir := filepath.Join(home, "studyplan")
	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dataDir, "studyplan.db"), cfg.DB)
	assert.Equal(t, filepath.Join("data", "users.json"), cfg.Content.Users)
	assert.True(t, cfg.Quiz.AllowManualToggle)
	assert.Equal(t, BackendHTTP, cfg.Sync.Backend)
	assert.Equal(t, "https://api.jsonbin.io", cfg.Sync.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Sync.Timeout)
	assert.Equal(t, 2*time.Second, cfg.Sync.Debounce)
	assert.Equal(t, 2.0, cfg.Sync.RatePerSecond)
	assert.Equal(t, 2, cfg.Sync.MaxRetries)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, filepath.Join(dataDir, "logs", "studyplan.log"), cfg.Log.File)
	assert.Equal(t, "127.0.0.1:8088", cfg.Serve.Addr)
	assert.Empty(t, cfg.ConfigFile)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("STUDYPLAN_SYNC_BACKEND", "redis")
	t.Setenv("STUDYPLAN_SYNC_DEBOUNCE", "500ms")
	t.Setenv("STUDYPLAN_QUIZ_ALLOW_MANUAL_TOGGLE", "false")
	t.Setenv("STUDYPLAN_DB", "/tmp/other.db")

	cfg, err := Load(Options{})
	require.NoError(t, err)
	assert.Equal(t, BackendRedis, cfg.Sync.Backend)
	assert.Equal(t, 500*time.Millisecond, cfg.Sync.Debounce)
	assert.False(t, cfg.Quiz.AllowManualToggle)
	assert.Equal(t, "/tmp/other.db", cfg.DB)
}

func TestLoadFlagBeatsEnv(t *testing.T) {
	isolate(t)
	t.Setenv("STUDYPLAN_DB", "/tmp/env.db")

	cfg, err := Load(Options{DB: "/tmp/flag.db"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/flag.db", cfg.DB)
}

func TestLoadConfigFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sync:
  backend: none
  timeout: 3s
log:
  level: debug
content:
  users: roster.yaml
`), 0o644))

	cfg, err := Load(Options{ConfigFile: path})
	require.NoError(t, err)
	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, BackendNone, cfg.Sync.Backend)
	assert.False(t, cfg.SyncEnabled())
	assert.Equal(t, 3*time.Second, cfg.Sync.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "roster.yaml", cfg.Content.Users)
}

func TestLoadDiscoversFileInWorkingDir(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "studyplan.yaml"),
		[]byte("serve:\n  addr: 0.0.0.0:9000\n"), 0o644))

	cfg, err := Load(Options{})
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Serve.Addr)
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("STUDYPLAN_SYNC_ACCESS_KEY=from-dotenv\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("STUDYPLAN_SYNC_ACCESS_KEY") })

	cfg, err := Load(Options{EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Sync.AccessKey)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := Load(Options{ConfigFile: "does-not-exist.yaml"})
	assert.Error(t, err)
}

func TestValidateAggregates(t *testing.T) {
	cfg := &Config{
		DB:      "x.db",
		Content: ContentConfig{Users: "users.json"},
		Sync:    SyncConfig{Backend: "carrier-pigeon", Timeout: 0, MaxRetries: -1},
		Log:     LogConfig{Level: "loud"},
		Serve:   ServeConfig{Addr: ":1"},
	}
	err := cfg.Validate()
	require.Error(t, err)

	msg := err.Error()
	for _, want := range []string{"sync.backend", "sync.timeout", "sync.max_retries", "log.level"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Validate() error missing %q:\n%s", want, msg)
		}
	}
}
