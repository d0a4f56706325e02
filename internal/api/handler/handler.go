// Package handler provides HTTP handlers for all API endpoints.
// Handlers call the job runners and services they are given; nothing here
// talks to a database directly.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ramadhantime/notifier/internal/agenda"
	"github.com/ramadhantime/notifier/internal/api/respond"
	"github.com/ramadhantime/notifier/internal/cache"
	"github.com/ramadhantime/notifier/internal/prayer"
)

// PrayerRunner runs the prayer reminder job.
type PrayerRunner interface {
	Run(ctx context.Context) (*prayer.RunResult, error)
}

// AgendaRunner runs the agenda reminder job.
type AgendaRunner interface {
	Run(ctx context.Context) (*agenda.Result, error)
}

// HijriService reads and updates the hijri date adjustment.
type HijriService interface {
	Adjustment(ctx context.Context) int
	SetAdjustment(ctx context.Context, n int) error
}

// HealthChecker pings a backing store.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps are the handler's collaborators.
type Deps struct {
	Prayer    PrayerRunner
	Agenda    AgendaRunner
	Hijri     HijriService
	Timetable prayer.TimetableProvider
	Store     HealthChecker
	Cache     *cache.Cache
	Lead      time.Duration
	Logger    *slog.Logger
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	prayer    PrayerRunner
	agenda    AgendaRunner
	hijri     HijriService
	timetable prayer.TimetableProvider
	store     HealthChecker
	cache     *cache.Cache
	lead      int
	now       func() time.Time
	logger    *slog.Logger
}

// New creates a Handler with shared dependencies.
func New(d Deps) *Handler {
	c := d.Cache
	if c == nil {
		c = cache.New(false)
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		prayer:    d.Prayer,
		agenda:    d.Agenda,
		hijri:     d.Hijri,
		timetable: d.Timetable,
		store:     d.Store,
		cache:     c,
		lead:      int(d.Lead / time.Minute),
		now:       time.Now,
		logger:    logger,
	}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, status, and docs location.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "Ramadhan Time Notifier",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Description Verifies connectivity to the configured store.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if h.store == nil || h.store.HealthCheck(r.Context()) != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": h.now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
// @Summary Cache health check
// @Description Returns in-memory cache statistics.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}
