// Package logging provides structured logging with slog for halfqwerty.
//
// Features:
//   - JSON and text output formats
//   - Log levels (debug, info, warn, error)
//   - Keystroke redaction: typed characters never reach a log file unless
//     explicitly enabled
//   - Size-based log rotation with gzip compression
//   - Panic capture for long-running hosts
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"halfqwerty/internal/config"
)

// Level represents a logging level.
type Level = slog.Level

// Log levels.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Format represents the output format for logs.
type Format int

const (
	// FormatText outputs human-readable text logs.
	FormatText Format = iota
	// FormatJSON outputs JSON-structured logs.
	FormatJSON
)

// Config holds the logging configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level Level

	// Format is the output format (text or JSON).
	Format Format

	// Output specifies where logs are written.
	// Can be "stdout", "stderr", "file", or "both".
	Output string

	// FilePath is the path to the log file when Output includes "file".
	FilePath string

	// MaxSize is the maximum size of a log file in megabytes before rotation.
	MaxSize int64

	// MaxAge is the maximum age of log files in days before deletion.
	MaxAge int

	// MaxBackups is the maximum number of rotated log files to keep.
	MaxBackups int

	// Compress determines if rotated logs should be gzip compressed.
	Compress bool

	// AddSource adds source file and line to log entries.
	AddSource bool

	// LogKeystrokes disables redaction of typed characters.
	LogKeystrokes bool

	// Component is the name of the component using this logger.
	Component string

	// Writer overrides Output; used by tests and embedding hosts.
	Writer io.Writer
}

// DefaultConfig returns a default logging configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:      LevelInfo,
		Format:     FormatText,
		Output:     "stderr",
		FilePath:   config.DefaultConfig().Logging.FilePath,
		MaxSize:    10,
		MaxAge:     30,
		MaxBackups: 3,
		Compress:   true,
		Component:  "halfqwerty",
	}
}

// FromSettings builds a logging Config from the [logging] section of the
// application configuration.
func FromSettings(s config.LoggingConfig, component string) (*Config, error) {
	level, err := ParseLevel(s.Level)
	if err != nil {
		return nil, err
	}
	format := FormatText
	switch strings.ToLower(s.Format) {
	case "json":
		format = FormatJSON
	case "text", "":
	default:
		return nil, fmt.Errorf("unknown log format: %s", s.Format)
	}
	return &Config{
		Level:      level,
		Format:     format,
		Output:     s.Output,
		FilePath:   s.FilePath,
		MaxSize:    int64(s.MaxSizeMB),
		MaxAge:     s.MaxAgeDays,
		MaxBackups: s.MaxBackups,
		Compress:   s.Compress,
		Component:  component,
	}, nil
}

// Logger wraps slog.Logger with additional functionality.
type Logger struct {
	*slog.Logger
	config  *Config
	writers []io.Writer
	rotator *FileRotator
	mu      sync.Mutex
}

// global default logger
var (
	defaultMu     sync.Mutex
	defaultLogger *Logger
)

// Default returns the default global logger.
func Default() *Logger {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultLogger == nil {
		l, err := New(DefaultConfig())
		if err != nil {
			l = &Logger{Logger: slog.Default(), config: DefaultConfig()}
		}
		defaultLogger = l
	}
	return defaultLogger
}

// SetDefault sets the default global logger.
func SetDefault(l *Logger) {
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
	slog.SetDefault(l.Logger)
}

// New creates a new Logger with the given configuration.
func New(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	l := &Logger{
		config: cfg,
	}

	if err := l.setupWriters(); err != nil {
		return nil, fmt.Errorf("setup writers: %w", err)
	}

	var w io.Writer
	if len(l.writers) == 1 {
		w = l.writers[0]
	} else {
		w = io.MultiWriter(l.writers...)
	}

	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if shouldRedact(a.Key, cfg.LogKeystrokes) {
				a.Value = slog.StringValue("[REDACTED]")
			}
			return a
		},
	}

	var handler slog.Handler
	switch cfg.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	if cfg.Component != "" {
		handler = handler.WithAttrs([]slog.Attr{
			slog.String("component", cfg.Component),
		})
	}

	l.Logger = slog.New(handler)
	return l, nil
}

// setupWriters configures the output writers based on config.
func (l *Logger) setupWriters() error {
	if l.config.Writer != nil {
		l.writers = append(l.writers, l.config.Writer)
		return nil
	}

	switch strings.ToLower(l.config.Output) {
	case "stdout":
		l.writers = append(l.writers, os.Stdout)
	case "file":
		rotator, err := NewFileRotator(l.config)
		if err != nil {
			return err
		}
		l.rotator = rotator
		l.writers = append(l.writers, rotator)
	case "both":
		rotator, err := NewFileRotator(l.config)
		if err != nil {
			return err
		}
		l.rotator = rotator
		l.writers = append(l.writers, os.Stderr, rotator)
	default:
		l.writers = append(l.writers, os.Stderr)
	}
	return nil
}

// keystrokeKeys are attribute keys that carry typed text.
var keystrokeKeys = []string{"char", "code", "commit", "text", "keysym", "keyval"}

// secretKeys are always redacted.
var secretKeys = []string{"password", "secret", "token", "credential"}

// shouldRedact checks if an attribute key carries typed text or secrets.
func shouldRedact(key string, logKeystrokes bool) bool {
	keyLower := strings.ToLower(key)
	for _, s := range secretKeys {
		if strings.Contains(keyLower, s) {
			return true
		}
	}
	if logKeystrokes {
		return false
	}
	for _, k := range keystrokeKeys {
		if keyLower == k {
			return true
		}
	}
	return false
}

// WithComponent returns a new logger with a different component name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{
		Logger:  l.Logger.With(slog.String("component", name)),
		config:  l.config,
		writers: l.writers,
		rotator: l.rotator,
	}
}

// Close closes any open log files.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.rotator != nil {
		return l.rotator.Close()
	}
	return nil
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.rotator != nil {
		return l.rotator.Sync()
	}
	return nil
}

// Rotator returns the file rotator, or nil when not logging to a file.
func (l *Logger) Rotator() *FileRotator {
	return l.rotator
}

// ParseLevel parses a string into a log level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %s", s)
	}
}

// LevelString returns the string representation of a log level.
func LevelString(level Level) string {
	switch level {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}
