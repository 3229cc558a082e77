package readadmit

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with readadmit-specific convenience methods.
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

// WithName adds the owning semaphore's name to the logger.
func (l *Logger) WithName(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("semaphore", name),
	}
}

// WithPermit adds a permit description field to the logger.
func (l *Logger) WithPermit(description string) *Logger {
	return &Logger{
		Logger: l.Logger.With("permit", description),
	}
}

// LogLeak logs a permit that was closed while still holding consumed
// resources. The resources have already been reclaimed by the time this is
// called; this is an internal-error signal, not a failure path for the
// caller. Call it on a logger already scoped with [Logger.WithPermit].
func (l *Logger) LogLeak(leaked Resources) {
	l.Error("permit closed with leaked resources",
		"leaked", leaked.String(),
	)
}

// LogCrossSemaphoreUnregister logs an inactive-read handle presented to a
// semaphore other than the one that issued it. Call it on a logger already
// scoped with [Logger.WithPermit].
func (l *Logger) LogCrossSemaphoreUnregister() {
	l.Error("inactive read handle used against wrong semaphore")
}

// LogBroken logs a semaphore transitioning into its terminal broken state.
// Call it on a logger already scoped with [Logger.WithName].
func (l *Logger) LogBroken(err error) {
	l.Error("semaphore broken",
		"error", err,
	)
}

// LogCloseError logs a reader that failed to close during background
// eviction or clearing. The error is not propagated anywhere else. Call it
// on a logger already scoped with [Logger.WithPermit].
func (l *Logger) LogCloseError(err error) {
	l.Warn("reader close failed",
		"error", err,
	)
}

// LogDiagnosticsDump logs a rate-limited diagnostics dump triggered by an
// internal error path (timeout or queue overload). Call it on a logger
// already scoped with [Logger.WithName].
func (l *Logger) LogDiagnosticsDump(dump string) {
	l.Warn("admission diagnostics",
		"dump", dump,
	)
}

// LogNotifyPanic logs a recovered panic from a caller-supplied eviction
// notify handler. The panic is never propagated past this point. Call it on
// a logger already scoped with [Logger.WithPermit].
func (l *Logger) LogNotifyPanic(recovered any) {
	l.Error("notify handler panicked",
		"recovered", recovered,
	)
}

// LogEviction logs a single inactive-read eviction. Call it on a logger
// already scoped with [Logger.WithPermit].
func (l *Logger) LogEviction(ctx context.Context, reason EvictionReason) {
	l.DebugContext(ctx, "inactive read evicted",
		"reason", reason.String(),
	)
}
