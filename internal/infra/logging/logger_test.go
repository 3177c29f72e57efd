package logging

import (
	"bytes"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/kanban-sync/internal/domain"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo}, // default
		{"", slog.LevelInfo},        // default
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestLogger_WritesFormattedLine(t *testing.T) {
	boardDir := t.TempDir()
	logger := New(boardDir, slog.LevelInfo)
	logger.now = func() time.Time { return time.Date(2025, 12, 30, 9, 32, 51, 0, time.UTC) }
	defer func() { _ = logger.Close() }()

	logger.Info("sync", "flushed 3 messages")

	content, err := os.ReadFile(domain.LogPath(boardDir))
	require.NoError(t, err)
	assert.Equal(t, "[2025-12-30 09:32:51] [INFO] [sync] flushed 3 messages\n", string(content))
}

func TestLogger_LevelFiltering(t *testing.T) {
	boardDir := t.TempDir()
	logger := New(boardDir, slog.LevelWarn)
	defer func() { _ = logger.Close() }()

	logger.Debug("drag", "debug message")
	logger.Info("drag", "info message")
	logger.Warn("drag", "warn message")
	logger.Error("drag", "error message")

	content, err := os.ReadFile(domain.LogPath(boardDir))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[WARN] [drag] warn message")
	assert.Contains(t, lines[1], "[ERROR] [drag] error message")
}

func TestLogger_Disabled(t *testing.T) {
	logger := New("", slog.LevelDebug)

	logger.Error("sync", "dropped")

	assert.NoError(t, logger.Close())
}

func TestLogger_ReopensAfterClose(t *testing.T) {
	boardDir := t.TempDir()
	logger := New(boardDir, slog.LevelInfo)

	logger.Info("a", "first")
	require.NoError(t, logger.Close())
	logger.Info("a", "second")
	require.NoError(t, logger.Close())

	content, err := os.ReadFile(domain.LogPath(boardDir))
	require.NoError(t, err)
	assert.Contains(t, string(content), "first")
	assert.Contains(t, string(content), "second")
}

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(NewText(&buf, slog.LevelInfo))

	logger.Debug("hub", "hidden")
	logger.Warn("hub", "client lagging")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, `msg="client lagging"`)
	assert.Contains(t, out, "category=hub")
}
