package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tasknest/tasknest/internal/auth"
	"github.com/tasknest/tasknest/internal/observability"
	"github.com/tasknest/tasknest/internal/platform/httpx"
	"github.com/tasknest/tasknest/internal/tasks"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger        *slog.Logger
	Config        *Config
	AuthHandler   *auth.Handler
	TaskHandler   *tasks.Handler
	TokenVerifier auth.TokenVerifier
	Metrics       *observability.Metrics
	// AuthRateLimitPerMinute caps signup/login per IP; zero disables it.
	AuthRateLimitPerMinute int
	// RequestLogging enables chi's access log.
	RequestLogging bool
}

// NewRouter constructs the chi.Router with TaskNest defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}
	if params.RequestLogging {
		r.Use(chimw.Logger)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, "Method Not Allowed", "")
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"message": "Welcome to the Todo Task Management API"})
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(AuthRateLimit(params.AuthRateLimitPerMinute))
			params.AuthHandler.MountRoutes(r)
		})
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireBearer(params.TokenVerifier, params.Logger, params.Metrics))
			r.Route("/users", params.AuthHandler.MountUserRoutes)
			params.TaskHandler.MountRoutes(r)
		})
	})

	return r
}
