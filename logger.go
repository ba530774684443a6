package mdtiff

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with mdtiff-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithArray adds an array name field to the logger.
func (l *Logger) WithArray(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("array", name),
	}
}

// WithDirectory adds a directory index field to the logger.
func (l *Logger) WithDirectory(index int) *Logger {
	return &Logger{
		Logger: l.Logger.With("directory", index),
	}
}

// LogCreate logs dataset creation.
func (l *Logger) LogCreate(ctx context.Context, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "create failed",
			"name", name,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "dataset created",
			"name", name,
		)
	}
}

// LogOpen logs a dataset open.
func (l *Logger) LogOpen(ctx context.Context, name string, directories int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open failed",
			"name", name,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "dataset opened",
			"name", name,
			"directories", directories,
		)
	}
}

// LogDegradedOpen logs an open that fell back to a plain 2D view.
func (l *Logger) LogDegradedOpen(ctx context.Context, name string, cause error) {
	l.WarnContext(ctx, "dimension metadata unusable, opening as plain 2D array",
		"name", name,
		"error", cause,
	)
}

// LogCrystalize logs schema crystalization.
func (l *Logger) LogCrystalize(ctx context.Context, directories int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "crystalize failed",
			"directories", directories,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "schema crystalized",
			"directories", directories,
		)
	}
}

// LogRead logs a strided read.
func (l *Logger) LogRead(ctx context.Context, samples int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "read failed",
			"samples", samples,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "read completed",
			"samples", samples,
		)
	}
}

// LogWrite logs a strided write.
func (l *Logger) LogWrite(ctx context.Context, samples int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "write failed",
			"samples", samples,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "write completed",
			"samples", samples,
		)
	}
}

// LogClose logs a dataset close.
func (l *Logger) LogClose(ctx context.Context, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "close failed",
			"name", name,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "dataset closed",
			"name", name,
		)
	}
}
