package setforge

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with setforge-specific context.
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

// WithJobID adds a job id field to the logger.
func (l *Logger) WithJobID(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("job_id", id),
	}
}

// WithSlot adds a slot field to the logger.
func (l *Logger) WithSlot(slot uint8) *Logger {
	return &Logger{
		Logger: l.Logger.With("slot", slot),
	}
}

// LogReduce logs one reduction pass.
func (l *Logger) LogReduce(ctx context.Context, items, pruned, groups int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "reduce failed",
			"items", items,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "reduce completed",
			"items", items,
			"pruned", pruned,
			"groups", groups,
		)
	}
}

// LogDispatch logs a search dispatch.
func (l *Logger) LogDispatch(ctx context.Context, jobID string, slots int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "dispatch failed",
			"job_id", jobID,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "dispatch started",
			"job_id", jobID,
			"slots", slots,
		)
	}
}

// LogResult logs the settlement of a search job.
func (l *Logger) LogResult(ctx context.Context, jobID string, sets int, elapsed time.Duration, err error) {
	if err != nil {
		l.WarnContext(ctx, "search settled with error",
			"job_id", jobID,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "search completed",
			"job_id", jobID,
			"sets", sets,
			"elapsed", elapsed,
		)
	}
}

// LogHydrate logs a hydration pass.
func (l *Logger) LogHydrate(ctx context.Context, sets int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "hydrate failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "hydrate completed",
			"sets", sets,
		)
	}
}

// LogArchive logs an archive write.
func (l *Logger) LogArchive(ctx context.Context, jobID string, err error) {
	if err != nil {
		l.WarnContext(ctx, "archive write failed",
			"job_id", jobID,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "archive record saved",
			"job_id", jobID,
		)
	}
}
