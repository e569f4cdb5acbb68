// Package logging writes categorized log lines to <stateDir>/logs/boardsync.log.
package logging

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/runoshun/boardsync/internal/domain"
)

// Ensure Logger implements domain.Logger interface.
var _ domain.Logger = (*Logger)(nil)

const categoryField = "category"

// Logger wraps a logrus.Logger whose output file is opened on first write.
// Fields are ordered to minimize memory padding.
type Logger struct {
	base     *logrus.Logger
	file     *os.File
	stateDir string
	mu       sync.Mutex
}

// New creates a Logger writing below stateDir.
// If stateDir is empty, logging is disabled.
func New(stateDir string, level logrus.Level) *Logger {
	l := &Logger{stateDir: stateDir}
	l.base = &logrus.Logger{
		Out:       l,
		Formatter: lineFormatter{},
		Hooks:     make(logrus.LevelHooks),
		Level:     level,
		ExitFunc:  os.Exit,
	}
	return l
}

// ParseLevel parses a log level string. Unknown values map to info.
func ParseLevel(levelStr string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Path returns the log file path, or "" when logging is disabled.
func (l *Logger) Path() string {
	if l.stateDir == "" {
		return ""
	}
	return filepath.Join(l.stateDir, "logs", domain.LogFileName)
}

// Write implements io.Writer for the underlying logrus.Logger.
func (l *Logger) Write(p []byte) (int, error) {
	f, err := l.ensureFile()
	if err != nil {
		return 0, err
	}
	return f.Write(p)
}

func (l *Logger) ensureFile() (*os.File, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return l.file, nil
	}

	path := l.Path()
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

func (l *Logger) log(level logrus.Level, category, msg string) {
	if l.stateDir == "" {
		return // Logging disabled
	}
	l.base.WithField(categoryField, category).Log(level, msg)
}

// Debug logs a debug message.
func (l *Logger) Debug(category, msg string) {
	l.log(logrus.DebugLevel, category, msg)
}

// Info logs an info message.
func (l *Logger) Info(category, msg string) {
	l.log(logrus.InfoLevel, category, msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(category, msg string) {
	l.log(logrus.WarnLevel, category, msg)
}

// Error logs an error message.
func (l *Logger) Error(category, msg string) {
	l.log(logrus.ErrorLevel, category, msg)
}

// lineFormatter renders entries as:
// [2025-12-30 09:32:51] [INFO] [category] message
type lineFormatter struct{}

func (lineFormatter) Format(e *logrus.Entry) ([]byte, error) {
	category, _ := e.Data[categoryField].(string)
	if category == "" {
		category = "general"
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, "[%s] [%s] [%s] %s\n",
		e.Time.Format("2006-01-02 15:04:05"),
		levelToString(e.Level),
		category,
		e.Message,
	)
	return b.Bytes(), nil
}

func levelToString(level logrus.Level) string {
	switch level {
	case logrus.DebugLevel, logrus.TraceLevel:
		return "DEBUG"
	case logrus.WarnLevel:
		return "WARN"
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return "ERROR"
	default:
		return "INFO"
	}
}
