package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metro/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewHandler_JSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(config.LogConfig{Level: "warn", Format: "json"}, &buf))

	logger.Info("dropped")
	logger.Warn("kept", "ticket_id", "t1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "t1", entry["ticket_id"])
}

func TestNewHandler_WritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metro.log")
	var buf bytes.Buffer
	logger := slog.New(NewHandler(config.LogConfig{Level: "info", Format: "text", FilePath: path, MaxSizeMB: 1}, &buf))

	logger.Info("ticket purchased")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ticket purchased")
	assert.Contains(t, buf.String(), "ticket purchased")
}
