package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/worktrack/worktrack/internal/auth"
	"github.com/worktrack/worktrack/internal/comments"
	"github.com/worktrack/worktrack/internal/observability"
	"github.com/worktrack/worktrack/internal/users"
	"github.com/worktrack/worktrack/internal/worksessions"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger              *slog.Logger
	Config              *Config
	AuthHandler         *auth.Handler
	AuthMiddleware      auth.Middleware
	UsersHandler        *users.Handler
	WorkSessionsHandler *worksessions.Handler
	CommentsHandler     *comments.Handler
	Metrics             *observability.Metrics
}

// NewRouter constructs the chi.Router with WorkTrack defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	if params.Metrics != nil {
		r.Use(params.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	limit, window := 10, params.Config.LoginRateWindow
	if params.Config.LoginRateLimit > 0 {
		limit = params.Config.LoginRateLimit
	}
	if window <= 0 {
		window = time.Minute
	}
	r.Route("/auth", func(r chi.Router) {
		r.Use(httprate.Limit(limit, window, httprate.WithKeyFuncs(httprate.KeyByIP)))
		params.AuthHandler.MountRoutes(r)
	})

	r.Route("/users", func(r chi.Router) {
		params.UsersHandler.MountPublicRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(params.AuthMiddleware.RequirePrincipal)
			params.UsersHandler.MountProtectedRoutes(r)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(params.AuthMiddleware.RequirePrincipal)
		r.Route("/worksessions", params.WorkSessionsHandler.MountRoutes)
		r.Route("/comments", params.CommentsHandler.MountRoutes)
	})

	return r
}
