package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// LogLevel represents different log levels
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a textual level (debug, info, warn, error) into a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "fatal":
		return LevelFatal, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError, LevelFatal:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger interface for structured logging
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...interface{})
	Info(ctx context.Context, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Fatal(ctx context.Context, err error, msg string, fields ...interface{})

	With(fields ...interface{}) Logger
	WithComponent(component string) Logger
}

// KeymapLogger implements Logger on top of log/slog. Fields added with With
// keep their insertion order.
type KeymapLogger struct {
	handler   slog.Handler
	level     LogLevel
	component string
	attrs     []slog.Attr
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level     LogLevel
	Format    string // "json" or "text"
	Output    io.Writer
	AddSource bool
	Component string
}

// DefaultConfig logs at info level, as text, to stderr so that commands
// printing artifacts on stdout stay pipeable.
func DefaultConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:  LevelInfo,
		Format: "text",
		Output: os.Stderr,
	}
}

// NewLogger creates a logger from config; nil selects DefaultConfig.
func NewLogger(config *LoggerConfig) *KeymapLogger {
	if config == nil {
		config = DefaultConfig()
	}
	return &KeymapLogger{
		handler:   newHandler(config),
		level:     config.Level,
		component: config.Component,
	}
}

func newHandler(config *LoggerConfig) slog.Handler {
	out := config.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:     config.Level.slogLevel(),
		AddSource: config.AddSource,
	}
	if config.Format == "json" {
		return slog.NewJSONHandler(out, opts)
	}
	return slog.NewTextHandler(out, opts)
}

// Discard returns a logger that drops everything.
func Discard() *KeymapLogger {
	return NewLogger(&LoggerConfig{Level: LevelFatal, Output: io.Discard})
}

func (l *KeymapLogger) Debug(ctx context.Context, msg string, fields ...interface{}) {
	l.logAt(ctx, LevelDebug, nil, msg, fields)
}

func (l *KeymapLogger) Info(ctx context.Context, msg string, fields ...interface{}) {
	l.logAt(ctx, LevelInfo, nil, msg, fields)
}

func (l *KeymapLogger) Warn(ctx context.Context, err error, msg string, fields ...interface{}) {
	l.logAt(ctx, LevelWarn, err, msg, fields)
}

func (l *KeymapLogger) Error(ctx context.Context, err error, msg string, fields ...interface{}) {
	l.logAt(ctx, LevelError, err, msg, fields)
}

// Fatal logs at error level regardless of the configured level. It does not
// exit; the caller decides how to stop.
func (l *KeymapLogger) Fatal(ctx context.Context, err error, msg string, fields ...interface{}) {
	l.logAt(ctx, LevelFatal, err, msg, fields)
}

// With returns a child logger carrying fields as key/value pairs.
func (l *KeymapLogger) With(fields ...interface{}) Logger {
	child := l.clone()
	child.attrs = appendPairs(child.attrs, fields)
	return child
}

// WithComponent returns a child logger tagged with component.
func (l *KeymapLogger) WithComponent(component string) Logger {
	child := l.clone()
	child.component = component
	return child
}

func (l *KeymapLogger) clone() *KeymapLogger {
	return &KeymapLogger{
		handler:   l.handler,
		level:     l.level,
		component: l.component,
		attrs:     append([]slog.Attr(nil), l.attrs...),
	}
}

func (l *KeymapLogger) logAt(ctx context.Context, level LogLevel, err error, msg string, fields []interface{}) {
	if level < l.level && level != LevelFatal {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	record := slog.NewRecord(time.Now(), level.slogLevel(), msg, 0)
	if l.component != "" {
		record.AddAttrs(slog.String("component", l.component))
	}
	if err != nil {
		record.AddAttrs(slog.String("error", err.Error()))
	}
	record.AddAttrs(l.attrs...)
	record.AddAttrs(appendPairs(nil, fields)...)

	_ = l.handler.Handle(ctx, record)
}

// appendPairs converts alternating key/value fields to attributes. Pairs
// with a non-string key and a trailing unpaired key are dropped.
func appendPairs(attrs []slog.Attr, fields []interface{}) []slog.Attr {
	for i := 0; i+1 < len(fields); i += 2 {
		if key, ok := fields[i].(string); ok {
			attrs = append(attrs, slog.Any(key, fields[i+1]))
		}
	}
	return attrs
}
