package middleware

import (
	"log/slog"
	"net/http"

	"github.com/wonjun/stiky/pkg/logger"
)

// RequestLogger stores a logger enriched with correlation_id, subject,
// trace_id and span_id in the request context for logger.FromContext.
//
// Mount it after RequestLogging and Tracing. Routes behind Auth get the
// subject through logger.WithSubject, so mount it again inside those groups.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
