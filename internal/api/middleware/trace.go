package middleware

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskly-api/internal/api/shared"
	"github.com/phrazzld/taskly-api/internal/platform/logger"
)

// TraceIDHeader echoes the request's trace ID back to the client.
const TraceIDHeader = "X-Trace-ID"

// NewTraceMiddleware returns middleware that adds a trace ID and a logger
// tagged with it to the request context. A nil base means slog.Default().
func NewTraceMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := shared.SetTraceID(r.Context())
			traceID := shared.GetTraceID(ctx)

			log := base
			if log == nil {
				log = slog.Default()
			}
			log = log.With(slog.String("trace_id", traceID))
			ctx = logger.WithLogger(ctx, log)

			log.Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			w.Header().Set(TraceIDHeader, traceID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
