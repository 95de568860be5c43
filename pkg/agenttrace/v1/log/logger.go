// Package log defines the public logging interface used across agenttrace
// packages. Tracing-infrastructure failures are reported through this
// interface as warnings so the host application is never interrupted.
package log

import (
	"context"
	"log/slog"
)

// Logger is the logging contract agenttrace components depend on. It mirrors
// common slog-style patterns so alternative implementations can be supplied
// at construction time.
type Logger interface {
	// Debugf logs a formatted message at the DEBUG level.
	Debugf(format string, args ...interface{})
	// Infof logs a formatted message at the INFO level.
	Infof(format string, args ...interface{})
	// Warnf logs a formatted message at the WARN level. Diagnostics for
	// recovered infrastructure errors (storage saves, hook panics) are
	// emitted at this level.
	Warnf(format string, args ...interface{})
	// Errorf logs a formatted message at the ERROR level.
	Errorf(format string, args ...interface{})

	// Log logs a message at the given level with key-value attributes.
	Log(level slog.Level, msg string, args ...interface{})
	// LogCtx logs a message at the given level, enriching it with ambient
	// trace and node identifiers when the implementation supports it.
	LogCtx(ctx context.Context, level slog.Level, msg string, args ...interface{})

	// With returns a Logger that includes the given attributes on every entry.
	With(args ...interface{}) Logger
	// IsEnabled reports whether the given level would be emitted.
	IsEnabled(level slog.Level) bool
}
