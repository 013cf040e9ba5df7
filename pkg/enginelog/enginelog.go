// Package enginelog is the engine's structured logging surface. Every
// package in this module logs through here rather than bare fmt/log
// calls, so output can be redirected or leveled in one place.
package enginelog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// Level is the engine's own severity enum, mapped onto slog.Level so
// callers never need to import log/slog directly.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var defaultLogger *slog.Logger

// Init configures the package-level logger. format is "text" or "json";
// anything else falls back to "text". Must be called once before any of
// the package-level log functions are used; Debug/Info/Warn/Error are
// no-ops until it is.
func Init(format string, level Level, output io.Writer) {
	opts := &slog.HandlerOptions{Level: level.slogLevel()}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// InitDefault configures text-format logging at LevelInfo to stderr, the
// harness's default when no explicit Init call has been made.
func InitDefault() {
	Init("text", LevelInfo, os.Stderr)
}

func logf(level Level, subsystem string, err error, messageFmt string, args ...any) {
	if defaultLogger == nil {
		return
	}
	if !defaultLogger.Enabled(context.Background(), level.slogLevel()) {
		return
	}

	msg := messageFmt
	if len(args) > 0 {
		msg = fmt.Sprintf(messageFmt, args...)
	}

	attrs := []slog.Attr{slog.String("subsystem", subsystem)}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}

	defaultLogger.LogAttrs(context.Background(), level.slogLevel(), msg, attrs...)
}

// Debug logs a debug-level message tagged with subsystem.
func Debug(subsystem, messageFmt string, args ...any) {
	logf(LevelDebug, subsystem, nil, messageFmt, args...)
}

// Info logs an info-level message tagged with subsystem.
func Info(subsystem, messageFmt string, args ...any) {
	logf(LevelInfo, subsystem, nil, messageFmt, args...)
}

// Warn logs a warn-level message tagged with subsystem.
func Warn(subsystem, messageFmt string, args ...any) {
	logf(LevelWarn, subsystem, nil, messageFmt, args...)
}

// Error logs an error-level message tagged with subsystem and err.
func Error(subsystem string, err error, messageFmt string, args ...any) {
	logf(LevelError, subsystem, err, messageFmt, args...)
}

// StageTimer returns a func that, when called, logs how long has
// elapsed since StageTimer was called, tagged with subsystem and stage.
// Used to log plugin load durations without the call site hand-rolling a
// time.Since.
func StageTimer(subsystem, stage string) func() {
	start := time.Now()
	return func() {
		Debug(subsystem, "%s took %s", stage, time.Since(start))
	}
}
