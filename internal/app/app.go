// Package app wires configuration into the jobs and services shared by the
// API server and the cron CLI.
package app

import (
	"context"
	"log/slog"

	"github.com/ramadhantime/notifier/internal/agenda"
	"github.com/ramadhantime/notifier/internal/cache"
	"github.com/ramadhantime/notifier/internal/config"
	"github.com/ramadhantime/notifier/internal/hijri"
	"github.com/ramadhantime/notifier/internal/listener"
	"github.com/ramadhantime/notifier/internal/lock"
	"github.com/ramadhantime/notifier/internal/prayer"
	"github.com/ramadhantime/notifier/internal/provider/aladhan"
	"github.com/ramadhantime/notifier/internal/push"
	"github.com/ramadhantime/notifier/internal/store"
)

// App holds the assembled services.
type App struct {
	Config  *config.Config
	Backend *store.Backend
	Cache   *cache.Cache
	Aladhan *aladhan.Client
	Prayer  *prayer.Engine
	Agenda  *agenda.Service
	Hijri   *hijri.Service

	lock   *lock.Redis
	logger *slog.Logger
}

// New opens the store and builds every service. Push delivery and the run
// lock are left out when not configured.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	backend, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:  cfg,
		Backend: backend,
		Cache:   cache.New(cfg.CacheEnabled),
		Aladhan: aladhan.NewClient(cfg.AladhanBaseURL, cfg.AladhanMethod, cfg.AladhanRequestsPerMinute, logger),
		logger:  logger,
	}

	// Interfaces stay nil rather than holding a nil pointer.
	var pusher prayer.Pusher
	if s := push.NewOneSignal(cfg.OneSignalBaseURL, cfg.OneSignalAppID, cfg.OneSignalAPIKey, logger); s != nil {
		pusher = s
		logger.Info("OneSignal push enabled")
	} else {
		logger.Warn("OneSignal not configured (ONESIGNAL_APP_ID / ONESIGNAL_REST_API_KEY)")
	}

	var locker prayer.Locker
	if l := lock.NewRedis(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword, cfg.RunLockTTL); l != nil {
		a.lock = l
		locker = l
		logger.Info("Run lock enabled", "addr", cfg.RedisAddr, "ttl", cfg.RunLockTTL)
	}

	a.Prayer = prayer.NewEngine(prayer.Deps{
		Directory: backend,
		Timetable: a.Aladhan,
		Ledger:    backend,
		Pusher:    pusher,
		Locker:    locker,
	}, prayer.Config{
		Lead:      cfg.PrayerLead,
		Tolerance: cfg.PrayerWindow,
		Workers:   cfg.PrayerWorkers,
	}, logger)

	a.Agenda = agenda.NewService(backend, pusher, logger)
	a.Hijri = hijri.NewService(backend, a.Cache, logger)

	return a, nil
}

// OnSettingChange drops cached copies of a changed setting.
func (a *App) OnSettingChange(c listener.SettingChange) {
	switch c.Key {
	case hijri.SettingKey:
		a.Hijri.Invalidate()
	default:
		a.logger.Debug("Ignoring setting change", "key", c.Key)
	}
}

// ListenForSettings follows app_settings changes until ctx is cancelled.
// It returns immediately when the backend is not Postgres.
func (a *App) ListenForSettings(ctx context.Context) {
	if a.Backend.Pool == nil {
		a.logger.Info("Settings listener disabled (not a Postgres store)")
		return
	}
	listener.Start(ctx, a.Config.DatabaseURL, a.OnSettingChange, a.logger)
}

// Close releases the store and the lock client.
func (a *App) Close() {
	if a.lock != nil {
		if err := a.lock.Close(); err != nil {
			a.logger.Warn("Closing run lock client", "error", err)
		}
	}
	a.Backend.Close()
}
