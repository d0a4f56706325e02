// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking. It is the Postgres backend for the user
// directory, the notification ledger, agendas and app settings.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ramadhantime/notifier/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool. The schema must already
// be migrated since statements are prepared on connect.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers every statement the stores use.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// User directory
		"directory_locations": "SELECT id::text, location_data FROM profiles WHERE location_data IS NOT NULL ORDER BY id",

		// Notification ledger
		"ledger_sent":   "SELECT user_id FROM prayer_notifications WHERE dedup_key = $1 AND user_id = ANY($2::text[])",
		"ledger_insert": "INSERT INTO prayer_notifications (id, user_id, dedup_key, prayer, sent_at) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (user_id, dedup_key) DO NOTHING",
		"ledger_purge":  "DELETE FROM prayer_notifications WHERE sent_at < $1",

		// Agendas
		"agenda_due":     "SELECT id, user_id, task_name, target_time, is_notified, created_at FROM agendas WHERE is_notified = false AND target_time >= $1 AND target_time <= $2 ORDER BY target_time, id",
		"agenda_mark":    "UPDATE agendas SET is_notified = true WHERE id = ANY($1::text[])",
		"agenda_insert":  "INSERT INTO agendas (id, user_id, task_name, target_time, is_notified, created_at) VALUES ($1, $2, $3, $4, $5, $6)",
		"agenda_by_user": "SELECT id, user_id, task_name, target_time, is_notified, created_at FROM agendas WHERE user_id = $1 ORDER BY target_time, id",

		// App settings
		"setting_get": "SELECT value FROM app_settings WHERE key = $1",
		"setting_put": "INSERT INTO app_settings (key, value, updated_at) VALUES ($1, $2, $3) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
