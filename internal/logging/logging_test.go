package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer

	logger, err := New(Options{Level: "warn", Console: &buf})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("tag push failed")
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "tag push failed")
	assert.Contains(t, out, "run_id")
}

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "release.log")

	logger, err := New(Options{Level: "debug", File: path, MaxSize: 1, Console: &bytes.Buffer{}})
	require.NoError(t, err)

	logger.Debug("snapshot taken")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "snapshot taken", entry["msg"])
	assert.Equal(t, "debug", entry["level"])
	assert.NotEmpty(t, entry["run_id"])
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := New(Options{Level: "chatty"})
	assert.Error(t, err)
}
