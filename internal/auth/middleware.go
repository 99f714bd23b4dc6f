package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/worktrack/worktrack/internal/authz"
)

// Middleware authenticates bearer tokens and stores the principal in the
// request context. A missing or malformed credential is an authentication
// failure (401), kept distinct from authorization denials (403).
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// RequirePrincipal rejects requests without a valid bearer token.
func (m Middleware) RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		principal, err := m.Service.ParseToken(strings.TrimSpace(token))
		if err != nil {
			if m.Logger != nil {
				m.Logger.Debug("reject bearer token", slog.Any("error", err))
			}
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		ctx := authz.ContextWithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
