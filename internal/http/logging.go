package http

import (
	"context"
	"log/slog"

	"github.com/example/slotpoll/internal/logging"
)

// ContextWithLogger attaches a request scoped logger to the context.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext extracts a logger previously attached to the context.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}

func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	logger := LoggerFromContext(ctx)
	if logger == nil {
		logger = fallback
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := []any{"handler", handlerName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}
