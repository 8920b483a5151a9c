package middleware

import (
	"log/slog"
	"net/http"

	"github.com/schedr/schedr-api/internal/api/shared"
	"github.com/schedr/schedr-api/internal/platform/logger"
)

// TraceMiddleware assigns every request a trace ID and attaches a
// request-scoped logger carrying it, so all downstream log lines and error
// responses correlate.
type TraceMiddleware struct {
	logger *slog.Logger
}

// NewTraceMiddleware creates a new TraceMiddleware.
func NewTraceMiddleware(log *slog.Logger) func(next http.Handler) http.Handler {
	m := &TraceMiddleware{logger: log}
	return m.Handler
}

// Handler wraps the next handler with trace ID propagation.
func (m *TraceMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.SetTraceID(r.Context())

		requestLogger := m.logger.With(
			slog.String("trace_id", shared.GetTraceID(ctx)),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
		ctx = logger.WithLogger(ctx, requestLogger)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
