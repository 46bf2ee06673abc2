// Package logging provides file-based logging for planloop. It outputs to
// both a global log file (<root>/.logs/planloop.log) and per-plan log files
// (<root>/.logs/<plan>.log).
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/planloop/planloop/internal/domain"
)

// Ensure Logger implements domain.Logger.
var _ domain.Logger = (*Logger)(nil)

// logsDirName is the log directory under the plans root.
const logsDirName = ".logs"

// Logger writes leveled, plan-scoped log lines to files.
// Fields are ordered to minimize memory padding.
type Logger struct {
	globalFile *os.File
	planFiles  map[string]*os.File
	root       string
	mu         sync.Mutex
	level      slog.Level
}

// New creates a Logger writing under the plans root. If root is empty,
// logging is disabled (a no-op logger).
func New(root string, level slog.Level) *Logger {
	return &Logger{
		root:      root,
		level:     level,
		planFiles: make(map[string]*os.File),
	}
}

// ParseLevel parses a log level string into slog.Level.
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

func (l *Logger) ensureLogsDir() error {
	return os.MkdirAll(filepath.Join(l.root, logsDirName), 0o750)
}

func (l *Logger) ensureGlobalFile() (*os.File, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.globalFile != nil {
		return l.globalFile, nil
	}
	if err := l.ensureLogsDir(); err != nil {
		return nil, fmt.Errorf("create logs directory: %w", err)
	}
	path := filepath.Join(l.root, logsDirName, "planloop.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) //nolint:gosec // Log file readable by owner and group
	if err != nil {
		return nil, fmt.Errorf("open global log file: %w", err)
	}
	l.globalFile = f
	return f, nil
}

func (l *Logger) ensurePlanFile(plan string) (*os.File, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if f, ok := l.planFiles[plan]; ok {
		return f, nil
	}
	if err := l.ensureLogsDir(); err != nil {
		return nil, fmt.Errorf("create logs directory: %w", err)
	}
	path := filepath.Join(l.root, logsDirName, plan+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) //nolint:gosec // Log file readable by owner and group
	if err != nil {
		return nil, fmt.Errorf("open plan log file: %w", err)
	}
	l.planFiles[plan] = f
	return f, nil
}

// Close closes all open log files.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var lastErr error
	if l.globalFile != nil {
		if err := l.globalFile.Close(); err != nil {
			lastErr = err
		}
		l.globalFile = nil
	}
	for plan, f := range l.planFiles {
		if err := f.Close(); err != nil {
			lastErr = err
		}
		delete(l.planFiles, plan)
	}
	return lastErr
}

// formatLog formats a log entry.
// Format: [2025-12-30 09:32:51] [INFO] [plan|global] [category] message
func formatLog(t time.Time, level slog.Level, plan, category, msg string) string {
	scope := "global"
	if plan != "" {
		scope = plan
	}
	return fmt.Sprintf("[%s] [%s] [%s] [%s] %s\n",
		t.Format("2006-01-02 15:04:05"),
		levelToString(level),
		scope,
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

// log writes an entry to the global log and, when plan is non-empty, the
// plan's own log file.
func (l *Logger) log(level slog.Level, plan, category, msg string) {
	if l.root == "" {
		return // Logging disabled
	}
	if level < l.level {
		return
	}

	entry := formatLog(time.Now(), level, plan, category, msg)
	if gf, err := l.ensureGlobalFile(); err == nil {
		_, _ = io.WriteString(gf, entry)
	}
	if plan != "" {
		if pf, err := l.ensurePlanFile(plan); err == nil {
			_, _ = io.WriteString(pf, entry)
		}
	}
}

// Debug logs a debug message.
func (l *Logger) Debug(plan, category, msg string) {
	l.log(slog.LevelDebug, plan, category, msg)
}

// Info logs an info message.
func (l *Logger) Info(plan, category, msg string) {
	l.log(slog.LevelInfo, plan, category, msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(plan, category, msg string) {
	l.log(slog.LevelWarn, plan, category, msg)
}

// Error logs an error message.
func (l *Logger) Error(plan, category, msg string) {
	l.log(slog.LevelError, plan, category, msg)
}
