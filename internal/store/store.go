// Package store opens the configured persistence backend and exposes it
// through the interfaces the jobs and handlers consume.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ramadhantime/notifier/internal/agenda"
	"github.com/ramadhantime/notifier/internal/config"
	"github.com/ramadhantime/notifier/internal/db"
	"github.com/ramadhantime/notifier/internal/db/sqlite"
	"github.com/ramadhantime/notifier/internal/hijri"
	"github.com/ramadhantime/notifier/internal/migrate"
	"github.com/ramadhantime/notifier/internal/prayer"
	"github.com/ramadhantime/notifier/internal/supabase"
)

// Purger removes old ledger rows.
type Purger interface {
	Purge(ctx context.Context, olderThan time.Time) (int64, error)
}

// Store is everything a backend provides.
type Store interface {
	prayer.Directory
	prayer.Ledger
	Purger
	agenda.Store
	hijri.SettingsStore
	HealthCheck(ctx context.Context) error
	Close()
}

// Backend is an opened store plus the Postgres pool when the driver is
// postgres (used by the settings listener).
type Backend struct {
	Store
	Pool *db.Pool
}

// withDirectory overrides a store's user directory.
type withDirectory struct {
	Store
	dir prayer.Directory
}

func (w withDirectory) Locations(ctx context.Context) ([]prayer.UserLocation, error) {
	return w.dir.Locations(ctx)
}

// Open migrates and opens the backend selected by cfg.StoreDriver, then
// swaps in the Supabase directory when cfg.DirectoryBackend asks for it.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	var b Backend

	switch cfg.StoreDriver {
	case config.DriverPostgres:
		if err := migrate.Postgres(cfg.DatabaseURL, logger); err != nil {
			return nil, err
		}
		pool, err := db.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		b.Store, b.Pool = pool, pool
		logger.Info("Connected to Postgres",
			"min_conns", cfg.DBPoolMinConns, "max_conns", cfg.DBPoolMaxConns)

	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		b.Store = s
		logger.Info("Opened SQLite", "path", cfg.SQLitePath)

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	if cfg.DirectoryBackend == config.DirectorySupabase {
		dir, err := supabase.NewDirectory(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.Store = withDirectory{Store: b.Store, dir: dir}
		logger.Info("User directory via Supabase PostgREST")
	}

	return &b, nil
}
