package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/storeops/typesearch/internal/service"
	"github.com/storeops/typesearch/pkg/health"
	"github.com/storeops/typesearch/pkg/middleware"
)

// RouterConfig carries the router's dependencies.
type RouterConfig struct {
	Service     *service.SearchService
	Health      *health.Handler
	Logger      *slog.Logger
	ServiceName string
	AdminAPIKey string
	CORSOrigins []string
}

// NewRouter builds the chi router with the full middleware chain and all
// routes mounted.
func NewRouter(cfg RouterConfig) http.Handler {
	searchHandler := NewSearchHandler(cfg.Service, cfg.Logger)
	adminHandler := NewAdminHandler(cfg.Service, cfg.Logger)

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.CORSOrigins) > 0 {
		corsCfg.AllowedOrigins = cfg.CORSOrigins
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.CORS(corsCfg))
	r.Use(chimiddleware.Compress(5))
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/search", func(r chi.Router) {
			r.Get("/", searchHandler.Search)
			r.Post("/suggest", searchHandler.Suggest)
			r.Post("/log", searchHandler.Log)

			// Recents are personalized; keep intermediaries from caching them.
			r.Group(func(r chi.Router) {
				r.Use(middleware.NoStore())
				r.Get("/recents", searchHandler.Recents)
				r.Post("/recents", searchHandler.AddRecent)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.APIKey(cfg.AdminAPIKey))
			r.Get("/collections", adminHandler.Status)
			r.Post("/collections/{type}", adminHandler.Create)
			r.Delete("/collections/{type}", adminHandler.Delete)
			r.Post("/collections/{type}/sync", adminHandler.Sync)
			r.Get("/analytics/queries", adminHandler.Queries)
		})
	})

	return r
}
