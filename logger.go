// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package gnmi

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// MaxLogValueLength caps a single logged value before truncation.
const MaxLogValueLength = 1024

// Logger is the structured logging interface used by every package of
// this module. Key/value pairs follow the slog convention.
//
// Implementations must be safe for concurrent use.
type Logger interface {
	Debug(ctx context.Context, msg string, keysAndValues ...any)
	Info(ctx context.Context, msg string, keysAndValues ...any)
	Warn(ctx context.Context, msg string, keysAndValues ...any)
	Error(ctx context.Context, msg string, keysAndValues ...any)
}

// LogLevel is the minimum severity emitted by DefaultLogger.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
	LogLevelNone
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	case LogLevelNone:
		return "NONE"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", l)
	}
}

// ParseLogLevel maps a case-insensitive level name to a LogLevel.
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LogLevelDebug, nil
	case "INFO", "":
		return LogLevelInfo, nil
	case "WARN", "WARNING":
		return LogLevelWarn, nil
	case "ERROR":
		return LogLevelError, nil
	case "NONE", "OFF":
		return LogLevelNone, nil
	}
	return LogLevelNone, fmt.Errorf("invalid log level: %q (valid values: debug, info, warn, error, none)", s)
}

// SlogLevel converts to the equivalent slog level. LogLevelNone maps
// above slog.LevelError so nothing passes.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	}
	return slog.LevelError + 4
}

// DefaultLogger writes "[LEVEL] msg k=v" lines through the standard log
// package. Values are sanitized against log injection.
type DefaultLogger struct {
	level LogLevel
}

// NewDefaultLogger returns a DefaultLogger emitting level and above.
func NewDefaultLogger(level LogLevel) *DefaultLogger {
	return &DefaultLogger{level: level}
}

func (l *DefaultLogger) Debug(_ context.Context, msg string, keysAndValues ...any) {
	l.log(LogLevelDebug, msg, keysAndValues...)
}

func (l *DefaultLogger) Info(_ context.Context, msg string, keysAndValues ...any) {
	l.log(LogLevelInfo, msg, keysAndValues...)
}

func (l *DefaultLogger) Warn(_ context.Context, msg string, keysAndValues ...any) {
	l.log(LogLevelWarn, msg, keysAndValues...)
}

func (l *DefaultLogger) Error(_ context.Context, msg string, keysAndValues ...any) {
	l.log(LogLevelError, msg, keysAndValues...)
}

func (l *DefaultLogger) log(level LogLevel, msg string, keysAndValues ...any) {
	if level < l.level || l.level == LogLevelNone {
		return
	}
	log.Println(formatLogLine(level, msg, keysAndValues...))
}

func formatLogLine(level LogLevel, msg string, keysAndValues ...any) string {
	var b strings.Builder
	b.Grow(len(msg) + 10 + len(keysAndValues)*25)

	b.WriteString("[")
	b.WriteString(level.String())
	b.WriteString("] ")
	b.WriteString(sanitizeLogValue(msg))

	for i := 0; i < len(keysAndValues); i += 2 {
		b.WriteString(" ")
		b.WriteString(sanitizeLogValue(keysAndValues[i]))
		if i+1 < len(keysAndValues) {
			b.WriteString("=")
			b.WriteString(sanitizeLogValue(keysAndValues[i+1]))
		} else {
			b.WriteString("=<MISSING>")
		}
	}
	return b.String()
}

// sanitizeLogValue renders val on a single line: control characters
// become '.' or ' ', zero-width and bidi override runes are dropped, and
// long values are truncated.
func sanitizeLogValue(val any) string {
	str := fmt.Sprintf("%v", val)
	if len(str) > MaxLogValueLength {
		str = str[:MaxLogValueLength] + "...[TRUNCATED]"
	}

	var b strings.Builder
	b.Grow(len(str))
	for i := 0; i < len(str); {
		r, size := utf8.DecodeRuneInString(str[i:])
		i += size

		switch {
		case r == utf8.RuneError && size <= 1:
			b.WriteByte('.')
		case r == 0x200B, r == 0x200C, r == 0x200D, r == 0xFEFF:
		case r == 0x202E:
			b.WriteByte(' ')
		case r == '\n', r == '\r', r == '\t', r == 0x0C:
			b.WriteByte(' ')
		case r < 32 || r == 127:
			b.WriteByte('.')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NoOpLogger discards everything. It is the default for all components.
type NoOpLogger struct{}

func (*NoOpLogger) Debug(context.Context, string, ...any) {}
func (*NoOpLogger) Info(context.Context, string, ...any)  {}
func (*NoOpLogger) Warn(context.Context, string, ...any)  {}
func (*NoOpLogger) Error(context.Context, string, ...any) {}

// SlogLogger adapts a *slog.Logger.
type SlogLogger struct {
	l *slog.Logger
}

// NewSlogLogger wraps l. A nil l uses slog.Default().
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return &SlogLogger{l: l}
}

func (s *SlogLogger) Debug(ctx context.Context, msg string, keysAndValues ...any) {
	s.l.DebugContext(ctx, msg, keysAndValues...)
}

func (s *SlogLogger) Info(ctx context.Context, msg string, keysAndValues ...any) {
	s.l.InfoContext(ctx, msg, keysAndValues...)
}

func (s *SlogLogger) Warn(ctx context.Context, msg string, keysAndValues ...any) {
	s.l.WarnContext(ctx, msg, keysAndValues...)
}

func (s *SlogLogger) Error(ctx context.Context, msg string, keysAndValues ...any) {
	s.l.ErrorContext(ctx, msg, keysAndValues...)
}

// With returns a logger that adds keysAndValues to every record.
func (s *SlogLogger) With(keysAndValues ...any) *SlogLogger {
	return &SlogLogger{l: s.l.With(keysAndValues...)}
}
