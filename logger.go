package numgo

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with numgo-specific context.
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

// WithOp adds an operation name field to the logger.
func (l *Logger) WithOp(op string) *Logger {
	return &Logger{
		Logger: l.Logger.With("op", op),
	}
}

// WithISA adds an instruction set field to the logger.
func (l *Logger) WithISA(isa string) *Logger {
	return &Logger{
		Logger: l.Logger.With("isa", isa),
	}
}

// WithWorkers adds a worker count field to the logger.
func (l *Logger) WithWorkers(workers int) *Logger {
	return &Logger{
		Logger: l.Logger.With("workers", workers),
	}
}

// WithSize adds an element count field to the logger.
func (l *Logger) WithSize(size int) *Logger {
	return &Logger{
		Logger: l.Logger.With("size", size),
	}
}

// LogDetection logs the outcome of CPU capability detection.
func (l *Logger) LogDetection(ctx context.Context, isa string, overridden bool, vendor, brand string) {
	l.InfoContext(ctx, "capability detection completed",
		"isa", isa,
		"overridden", overridden,
		"vendor", vendor,
		"brand", brand,
	)
}

// LogFallback logs a downgrade from the requested instruction set to the
// one actually bound. Callers arrange for this to fire once per router.
func (l *Logger) LogFallback(ctx context.Context, requested, effective string) {
	l.WarnContext(ctx, "acceleration unavailable, using fallback kernels",
		"requested", requested,
		"effective", effective,
	)
}

// LogOp logs an elementwise or reduction operation.
func (l *Logger) LogOp(ctx context.Context, op string, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "operation failed",
			"op", op,
			"size", size,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "operation completed",
			"op", op,
			"size", size,
		)
	}
}

// LogMatMul logs a matrix multiplication.
func (l *Logger) LogMatMul(ctx context.Context, m, k, n int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "matmul failed",
			"m", m,
			"k", k,
			"n", n,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "matmul completed",
			"m", m,
			"k", k,
			"n", n,
		)
	}
}

// LogParallel logs that an operation was routed through the scheduler.
func (l *Logger) LogParallel(ctx context.Context, op string, size, workers int) {
	l.DebugContext(ctx, "operation scheduled",
		"op", op,
		"size", size,
		"workers", workers,
	)
}

// LogSnapshot logs a snapshot save or load.
func (l *Logger) LogSnapshot(ctx context.Context, op, filename string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"op", op,
			"filename", filename,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot completed",
			"op", op,
			"filename", filename,
		)
	}
}

// LogBenchmark logs a benchmark run.
func (l *Logger) LogBenchmark(ctx context.Context, op string, speedup float64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "benchmark failed",
			"op", op,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "benchmark completed",
			"op", op,
			"speedup", speedup,
		)
	}
}
