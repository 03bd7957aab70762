// Package logging holds the slog helpers shared by the HTTP surface, the
// schedule sources and the command line.
package logging

import (
	"context"
	"io"
	"log/slog"
)

type contextKey struct{}

// NewLogger builds the application logger. Production writes JSON, anything
// else writes human-readable text. Verbose lowers the level to debug.
func NewLogger(w io.Writer, production, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	if production {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger stored in ctx, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// LogHTTPRequest writes one access-log line. 5xx responses log at error,
// 4xx at warn, everything else at info.
func LogHTTPRequest(logger *slog.Logger, method, path string, status int, durationMs float64, attrs ...slog.Attr) {
	if logger == nil {
		return
	}

	level := slog.LevelInfo
	switch {
	case status >= 500:
		level = slog.LevelError
	case status >= 400:
		level = slog.LevelWarn
	}

	all := append([]slog.Attr{
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("duration_ms", durationMs),
	}, attrs...)

	logger.LogAttrs(context.Background(), level, "http request", all...)
}

// LogError logs err under msg at error level.
func LogError(logger *slog.Logger, msg string, err error, attrs ...slog.Attr) {
	if logger == nil || err == nil {
		return
	}
	all := append([]slog.Attr{slog.String("error", err.Error())}, attrs...)
	logger.LogAttrs(context.Background(), slog.LevelError, msg, all...)
}

// SafeCloseWithLogging closes c and logs, rather than returns, a close error.
func SafeCloseWithLogging(c io.Closer, logger *slog.Logger, resource string) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil && logger != nil {
		logger.Warn("failed to close resource",
			slog.String("resource", resource),
			slog.String("error", err.Error()))
	}
}
