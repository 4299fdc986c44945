package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"vendtune/internal/infrastructure"
	"vendtune/internal/session"
)

// SessionResolver resolves bearer tokens into sessions.
type SessionResolver interface {
	Resolve(token string) (session.Session, bool)
}

// Auth validates the Authorization bearer token and places the resolved
// session in the request context. Requests without a valid session are
// rejected before reaching the handler.
func Auth(logger *slog.Logger, resolver SessionResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.WarnContext(ctx, "missing authorization header",
					"method", r.Method,
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				writeUnauthorized(w, ctx, "Missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				logger.WarnContext(ctx, "invalid authorization format",
					"method", r.Method,
					"path", r.URL.Path,
				)
				writeUnauthorized(w, ctx, "Invalid authorization format. Use: Bearer <token>")
				return
			}

			sess, ok := resolver.Resolve(parts[1])
			if !ok {
				logger.WarnContext(ctx, "invalid or expired session token",
					"method", r.Method,
					"path", r.URL.Path,
				)
				writeUnauthorized(w, ctx, "Invalid or expired session")
				return
			}

			next.ServeHTTP(w, r.WithContext(session.WithSession(ctx, sess)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, ctx context.Context, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(http.StatusUnauthorized)

	traceID := infrastructure.GetTraceID(ctx)
	response := `{"type":"/errors/session/invalid","title":"Unauthorized","status":401,"detail":"` + detail + `","trace_id":"` + traceID + `"}`
	w.Write([]byte(response))
}
