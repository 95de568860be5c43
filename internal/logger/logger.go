package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/agenttrace-labs/agenttrace/internal/tracectx"
	tracelog "github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/log"
)

const defaultLevel = slog.LevelInfo

// parseLogLevel converts common log level strings (case-insensitive) to
// slog.Level values, falling back to Info for unknown input.
func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return defaultLevel
	}
}

// defaultLogger implements the public tracelog.Logger interface using the
// standard slog library.
type defaultLogger struct {
	*slog.Logger
}

var _ tracelog.Logger = (*defaultLogger)(nil)

// NewLogger creates a Logger with the given level, output format ("text" or
// "json") and writer (defaults to os.Stderr). The handler chain includes a
// TraceHandler that injects ambient trace/node ids into context-aware logs.
func NewLogger(levelStr string, formatStr string, writer io.Writer) tracelog.Logger {
	level := parseLogLevel(levelStr)
	if writer == nil {
		writer = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevelAttribute,
	}

	var baseHandler slog.Handler
	switch strings.ToLower(formatStr) {
	case "json":
		baseHandler = slog.NewJSONHandler(writer, opts)
	case "text":
		fallthrough
	default:
		baseHandler = slog.NewTextHandler(writer, opts)
	}

	return &defaultLogger{
		Logger: slog.New(NewTraceHandler(baseHandler)),
	}
}

// NewDefaultLogger provides a basic text logger writing to stderr.
func NewDefaultLogger(levelStr string) tracelog.Logger {
	return NewLogger(levelStr, "text", os.Stderr)
}

var levelStringMap = map[slog.Level]string{
	slog.LevelDebug: "DEBUG",
	slog.LevelInfo:  "INFO",
	slog.LevelWarn:  "WARN",
	slog.LevelError: "ERROR",
}

// replaceLevelAttribute renders the slog level attribute as an uppercase
// string (e.g. "INFO").
func replaceLevelAttribute(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		level, ok := a.Value.Any().(slog.Level)
		if !ok {
			return a
		}
		levelStr, exists := levelStringMap[level]
		if !exists {
			levelStr = level.String()
		}
		a.Value = slog.StringValue(levelStr)
	}
	return a
}

func (l *defaultLogger) Debugf(format string, args ...interface{}) {
	if l.Logger.Enabled(context.Background(), slog.LevelDebug) {
		l.Logger.Log(context.Background(), slog.LevelDebug, fmt.Sprintf(format, args...))
	}
}

func (l *defaultLogger) Infof(format string, args ...interface{}) {
	if l.Logger.Enabled(context.Background(), slog.LevelInfo) {
		l.Logger.Log(context.Background(), slog.LevelInfo, fmt.Sprintf(format, args...))
	}
}

func (l *defaultLogger) Warnf(format string, args ...interface{}) {
	if l.Logger.Enabled(context.Background(), slog.LevelWarn) {
		l.Logger.Log(context.Background(), slog.LevelWarn, fmt.Sprintf(format, args...))
	}
}

// Errorf logs a formatted message at the ERROR level. If the last argument
// is an error, it is additionally attached as a structured attribute.
func (l *defaultLogger) Errorf(format string, args ...interface{}) {
	if !l.Logger.Enabled(context.Background(), slog.LevelError) {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if len(args) > 0 {
		if err, ok := args[len(args)-1].(error); ok {
			l.Logger.Log(context.Background(), slog.LevelError, msg, slog.String("error", err.Error()))
			return
		}
	}
	l.Logger.Log(context.Background(), slog.LevelError, msg)
}

func (l *defaultLogger) Log(level slog.Level, msg string, args ...interface{}) {
	l.Logger.Log(context.Background(), level, msg, args...)
}

// LogCtx logs with the given context so the TraceHandler can inject ambient
// trace/node identifiers.
func (l *defaultLogger) LogCtx(ctx context.Context, level slog.Level, msg string, args ...interface{}) {
	l.Logger.Log(ctx, level, msg, args...)
}

func (l *defaultLogger) With(args ...interface{}) tracelog.Logger {
	return &defaultLogger{Logger: l.Logger.With(args...)}
}

func (l *defaultLogger) IsEnabled(level slog.Level) bool {
	return l.Logger.Enabled(context.Background(), level)
}

// TraceHandler is a slog.Handler middleware that injects the ambient
// agenttrace trace_id and node_id attributes into log records when the
// logging context carries an active trace.
type TraceHandler struct {
	next slog.Handler
}

// NewTraceHandler creates a TraceHandler wrapping the provided handler.
func NewTraceHandler(next slog.Handler) *TraceHandler {
	return &TraceHandler{next: next}
}

func (h *TraceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *TraceHandler) Handle(ctx context.Context, record slog.Record) error {
	if graph, ok := tracectx.CurrentTrace(ctx); ok {
		record.AddAttrs(slog.String("trace_id", graph.TraceID))
		if nodeID, ok := tracectx.CurrentNodeID(ctx); ok {
			record.AddAttrs(slog.String("node_id", nodeID))
		}
	}
	return h.next.Handle(ctx, record)
}

func (h *TraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewTraceHandler(h.next.WithAttrs(attrs))
}

func (h *TraceHandler) WithGroup(name string) slog.Handler {
	return NewTraceHandler(h.next.WithGroup(name))
}
