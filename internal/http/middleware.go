package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/example/lab-scheduler/internal/application"
	"github.com/example/lab-scheduler/internal/logging"
)

// Identity headers set by the upstream lab portal.
const (
	actorIDHeader   = "X-Actor-ID"
	actorRoleHeader = "X-Actor-Role"
	adminRole       = "admin"
)

// ExtractIdentity reads the caller identity from the gateway headers and
// attaches it to the request context. Requests without the headers proceed
// anonymously; the services decide what anonymous callers may do.
func ExtractIdentity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actorID := strings.TrimSpace(r.Header.Get(actorIDHeader))
			if actorID == "" {
				next.ServeHTTP(w, r)
				return
			}

			principal := application.Principal{
				UserID:  actorID,
				IsAdmin: strings.EqualFold(strings.TrimSpace(r.Header.Get(actorRoleHeader)), adminRole),
			}
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

// RequestLogger attaches a request-scoped logger to the context and logs the
// request lifecycle. The request id comes from chi's RequestID middleware.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := base.With(
				"request_id", chimiddleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := logging.ContextWithLogger(r.Context(), logger)
			start := time.Now()
			logger.InfoContext(ctx, "request started")

			wrapped := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(wrapped, r.WithContext(ctx))

			logger.InfoContext(ctx, "request completed",
				"status", wrapped.Status(),
				"bytes", wrapped.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}
