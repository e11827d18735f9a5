package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "studyplan.log")

	logger, cleanup, err := New(Options{Level: "info", File: path})
	require.NoError(t, err)
	logger.Info("quiz finished", zap.String("topic", "t1"), zap.Int("score", 9))
	logger.Debug("hidden")
	cleanup()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "quiz finished", entry["msg"])
	assert.Equal(t, "t1", entry["topic"])
	assert.EqualValues(t, 9, entry["score"])
	assert.Contains(t, entry["caller"], "logging_test.go")
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := New(Options{Level: "debug", Console: true, Stderr: &buf})
	require.NoError(t, err)
	logger.Debug("sync ok", zap.String("op", "push"))
	cleanup()

	out := buf.String()
	assert.Contains(t, out, "DEBUG")
	assert.Contains(t, out, "sync ok")
	assert.Contains(t, out, `"op": "push"`)
}

func TestNewNoSinks(t *testing.T) {
	logger, cleanup, err := New(Options{})
	require.NoError(t, err)
	defer cleanup()
	assert.False(t, logger.Core().Enabled(zap.ErrorLevel))
}

func TestNewBadLevel(t *testing.T) {
	if _, _, err := New(Options{Level: "chatty"}); err == nil {
		t.Fatal("New() with unknown level should fail")
	}
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := zap.NewExample()
	assert.Same(t, l, OrNop(l))
}
