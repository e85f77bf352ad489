package middlewares

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ballotdesk/admind/internal/observability/logger"
)

// WithRequestID genera (o propaga) un X-Request-ID y deja en el contexto
// un logger scoped con los campos del request.
func WithRequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := r.Header.Get("X-Request-ID")
			if rid == "" {
				rid = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", rid)

			ctx := setRequestID(r.Context(), rid)
			log := logger.From(ctx).With(
				logger.RequestID(rid),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
			)
			ctx = logger.ToContext(ctx, log)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
