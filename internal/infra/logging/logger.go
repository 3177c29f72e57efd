// Package logging provides the loggers behind domain.Logger.
//
// The board client owns the terminal, so it logs to .kanban/logs/kanban.log.
// Server and admin commands log through log/slog on stderr.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/runoshun/kanban-sync/internal/domain"
)

// Ensure both loggers implement domain.Logger.
var (
	_ domain.Logger = (*Logger)(nil)
	_ domain.Logger = (*SlogLogger)(nil)
)

// Logger appends formatted lines to the board log file.
// Fields are ordered to minimize memory padding.
type Logger struct {
	file     *os.File
	now      func() time.Time
	boardDir string
	mu       sync.Mutex
	level    slog.Level
}

// New creates a Logger writing below boardDir.
// If boardDir is empty, logging is disabled.
func New(boardDir string, level slog.Level) *Logger {
	return &Logger{
		boardDir: boardDir,
		level:    level,
		now:      time.Now,
	}
}

// ParseLevel parses a log level string into slog.Level.
// Unknown values fall back to info.
func ParseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *Logger) ensureFile() (*os.File, error) {
	if l.file != nil {
		return l.file, nil
	}

	path := domain.LogPath(l.boardDir)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create logs directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) //nolint:gosec // Log file readable by owner and group
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	l.file = f
	return f, nil
}

// Close closes the log file if it was opened.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// formatLog renders one line.
// Format: [2025-12-30 09:32:51] [INFO] [sync] message
func formatLog(t time.Time, level slog.Level, category, msg string) string {
	return fmt.Sprintf("[%s] [%s] [%s] %s\n",
		t.Format("2006-01-02 15:04:05"),
		levelToString(level),
		category,
		msg,
	)
}

func levelToString(level slog.Level) string {
	switch level {
	case slog.LevelDebug:
		return "DEBUG"
	case slog.LevelWarn:
		return "WARN"
	case slog.LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func (l *Logger) log(level slog.Level, category, msg string) {
	if l.boardDir == "" || level < l.level {
		return
	}

	entry := formatLog(l.now(), level, category, msg)

	l.mu.Lock()
	defer l.mu.Unlock()
	if f, err := l.ensureFile(); err == nil {
		_, _ = io.WriteString(f, entry)
	}
}

// Debug logs a debug message.
func (l *Logger) Debug(category, msg string) { l.log(slog.LevelDebug, category, msg) }

// Info logs an info message.
func (l *Logger) Info(category, msg string) { l.log(slog.LevelInfo, category, msg) }

// Warn logs a warning message.
func (l *Logger) Warn(category, msg string) { l.log(slog.LevelWarn, category, msg) }

// Error logs an error message.
func (l *Logger) Error(category, msg string) { l.log(slog.LevelError, category, msg) }

// SlogLogger adapts a *slog.Logger to domain.Logger. The category is carried
// as the "category" attribute.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger wraps logger. A nil logger uses slog.Default.
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger}
}

// NewText returns a slog text logger writing to w, or stderr when w is nil.
func NewText(w io.Writer, level slog.Level) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Debug logs a debug message.
func (s *SlogLogger) Debug(category, msg string) { s.logger.Debug(msg, "category", category) }

// Info logs an info message.
func (s *SlogLogger) Info(category, msg string) { s.logger.Info(msg, "category", category) }

// Warn logs a warning message.
func (s *SlogLogger) Warn(category, msg string) { s.logger.Warn(msg, "category", category) }

// Error logs an error message.
func (s *SlogLogger) Error(category, msg string) { s.logger.Error(msg, "category", category) }
