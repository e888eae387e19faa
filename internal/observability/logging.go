// Package observability provides the run's structured logging and tracing
// plumbing.
package observability

import (
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/grazerhq/grazer/internal/types"
)

// ParseLevel maps a config level string to a slog.Level. Unknown strings
// fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds a slog.Logger writing to w in the configured format
// ("text" or "json") at the configured level.
func NewLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// RunLogger returns a logger scoped to one planning run: every entry carries
// the run id, plus trace correlation when the span is recording.
func RunLogger(logger *slog.Logger, runID types.RunID, span trace.Span) *slog.Logger {
	logger = logger.With(slog.String("run_id", runID.String()))

	if span != nil && span.SpanContext().IsValid() {
		sc := span.SpanContext()
		logger = logger.With(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}

	return logger
}
