package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/ramadhantime/notifier/internal/api/handler"
	"github.com/ramadhantime/notifier/internal/config"
)

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(deps handler.Deps, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Authorization", "Content-Type", "If-None-Match", "Cache-Control"},
		ExposedHeaders:   []string{"X-Process-Time", "X-Cache", "ETag"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	h := handler.New(deps)

	// --- Routes ---

	r.Get("/", h.Root)

	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
		r.Get("/cache", h.HealthCheckCache)
	})

	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))

	// Scheduler triggers are exempt from the public rate limit.
	r.Route("/api/cron", func(r chi.Router) {
		r.With(RequireSecret(cfg.CronSecret, true)).Get("/prayer-notify", h.PrayerNotify)
		r.With(RequireSecret(cfg.CronSecret, false)).Get("/notify", h.AgendaNotify)
	})

	r.Group(func(r chi.Router) {
		if cfg.RateLimitEnabled {
			r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
		}

		r.Get("/api/hijri-offset", h.GetHijriOffset)
		r.With(RequireSecret(cfg.CronSecret, false)).Post("/api/hijri-offset", h.PostHijriOffset)

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/timings", h.GetTimings)
		})
	})

	return r
}
