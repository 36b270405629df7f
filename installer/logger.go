package installer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger provides leveled logging to a file with an in-memory copy of every
// line. It is safe for concurrent use, and all methods are no-ops on a nil
// Logger.
type Logger struct {
	entry  *log.Entry
	memory *memoryHook
	closer io.Closer
	path   string
}

// NewLogger creates a Logger that writes to a timestamped file in the temp
// directory: {prefix}-{timestamp}.log
//
// Example:
//
//	logger, err := installer.NewLogger("setupflow")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//	logger.Info("Starting installation")
func NewLogger(prefix string) (*Logger, error) {
	timestamp := time.Now().Format("20060102-150405")
	logPath := filepath.Join(os.TempDir(), fmt.Sprintf("%s-%s.log", prefix, timestamp))

	f, err := os.Create(logPath)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	l := newLogger(f, f, logPath)
	l.Info("=== %s Log ===", prefix)
	l.Info("Started: %s", time.Now().Format(time.RFC3339))
	l.Info("Log file: %s", logPath)
	return l, nil
}

// NewLoggerToFile creates a Logger appending to logPath. The file is rotated
// once it grows past a few megabytes.
func NewLoggerToFile(logPath string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	rotating := &lumberjack.Logger{
		Filename:   filepath.ToSlash(logPath),
		MaxSize:    5, // MB
		MaxBackups: 3,
		MaxAge:     30, // days
		Compress:   true,
	}
	return newLogger(rotating, rotating, logPath), nil
}

// NewWriterLogger creates a Logger writing to w without a backing file.
func NewWriterLogger(w io.Writer) *Logger {
	return newLogger(w, nil, "")
}

func newLogger(out io.Writer, closer io.Closer, path string) *Logger {
	base := log.New()
	base.SetOutput(out)
	base.SetLevel(log.InfoLevel)
	base.SetFormatter(&log.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})

	memory := &memoryHook{messages: make([]string, 0, 100)}
	base.AddHook(memory)

	return &Logger{
		entry:  log.NewEntry(base),
		memory: memory,
		closer: closer,
		path:   path,
	}
}

// SetLevel parses and applies a logrus level name such as "debug".
func (l *Logger) SetLevel(level string) error {
	if l == nil {
		return nil
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", level, err)
	}
	l.entry.Logger.SetLevel(lvl)
	return nil
}

// WithField returns a Logger that adds key=value to every line.
func (l *Logger) WithField(key string, value any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{
		entry:  l.entry.WithField(key, value),
		memory: l.memory,
		path:   l.path,
	}
}

// Close closes the log file.
func (l *Logger) Close() {
	if l == nil || l.closer == nil {
		return
	}
	l.Info("=== Log ended: %s ===", time.Now().Format(time.RFC3339))
	l.closer.Close()
}

// Path returns the path to the log file.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Content returns the full log content as a string.
func (l *Logger) Content() string {
	if l == nil {
		return ""
	}
	return l.memory.content()
}

// Debug logs a diagnostic message.
func (l *Logger) Debug(format string, args ...any) {
	if l == nil {
		return
	}
	l.entry.Debugf(format, args...)
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...any) {
	if l == nil {
		return
	}
	l.entry.Infof(format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...any) {
	if l == nil {
		return
	}
	l.entry.Warnf(format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) {
	if l == nil {
		return
	}
	l.entry.Errorf(format, args...)
}

// Step logs a major milestone.
func (l *Logger) Step(format string, args ...any) {
	if l == nil {
		return
	}
	l.entry.WithField("step", true).Infof(format, args...)
}

// memoryHook keeps a formatted copy of every line for display in the UI.
type memoryHook struct {
	mu       sync.Mutex
	messages []string
}

func (h *memoryHook) Levels() []log.Level {
	return log.AllLevels
}

func (h *memoryHook) Fire(e *log.Entry) error {
	line := fmt.Sprintf("[%s] %s: %s", e.Time.Format("15:04:05.000"), strings.ToUpper(e.Level.String()), e.Message)
	h.mu.Lock()
	h.messages = append(h.messages, line)
	h.mu.Unlock()
	return nil
}

func (h *memoryHook) content() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return strings.Join(h.messages, "\n")
}
