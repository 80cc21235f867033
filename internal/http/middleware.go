package http

import (
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// RequestLogger attaches a request scoped logger to the context and records
// request start and completion with a monotonically increasing request id.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := ContextWithLogger(r.Context(), logger)
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(w, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "duration", time.Since(start))
		})
	}
}
