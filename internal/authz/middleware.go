package authz

import (
	"log/slog"
	"net/http"
)

// Middleware wires policy checks for HTTP handlers. It covers the
// resource-less policies; handlers that need a loaded resource call
// Engine.Authorize directly after fetching it.
type Middleware struct {
	Engine *Engine
	Logger *slog.Logger
}

// Require ensures the current principal satisfies a resource-less policy.
func (m Middleware) Require(policy Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			decision, err := m.Engine.Authorize(r.Context(), principal, policy, nil)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("authorize", slog.String("policy", string(policy)), slog.Any("error", err))
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if !decision.Allowed() {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
