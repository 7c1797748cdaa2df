package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"aishortx/internal/http/handlers"
	"aishortx/internal/infra"
	"aishortx/internal/infra/metrics"
	"aishortx/internal/middleware"
)

// RouterOptions carries the settings the router needs beyond the handlers.
type RouterOptions struct {
	JWTSecret       string
	RateLimitPerMin int
	Logger          infra.Logger
	// ExposeMetrics mounts /metrics on the API listener as well.
	ExposeMetrics bool
	// StaticDir is served under /static when set.
	StaticDir string
}

func NewRouter(app *handlers.App, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
	)

	r.Get("/v1/healthz", app.Health)
	if opts.ExposeMetrics {
		r.Handle("/metrics", metrics.Handler())
	}
	if opts.StaticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir))))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(opts.JWTSecret))
		if opts.RateLimitPerMin > 0 {
			r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
		}

		r.Post("/v1/projects/{project_id}/tasks", app.CreateTask)
		r.Route("/v1/tasks/{task_id}", func(r chi.Router) {
			r.Get("/", app.GetTask)
			r.Post("/cancel", app.CancelTask)
		})
		r.Get("/v1/assets/history", app.AssetHistory)
	})

	return r
}
