// Package sqlite is the single-file SQLite backend for the directory,
// ledger, agendas and app settings. It suits local development and small
// deployments; the schema mirrors the Postgres one.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ramadhantime/notifier/internal/agenda"
	"github.com/ramadhantime/notifier/internal/migrate"
	"github.com/ramadhantime/notifier/internal/prayer"
)

// DB is a migrated SQLite database.
type DB struct {
	conn *sql.DB
}

// Open opens (creating if needed) the database at path and migrates it.
// ":memory:" is supported and pinned to a single connection.
func Open(path string, logger *slog.Logger) (*DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps :memory:
	// databases from splitting across connections.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode = WAL; PRAGMA busy_timeout = 5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}
	if err := migrate.SQLite(conn, logger); err != nil {
		conn.Close()
		return nil, err
	}
	return &DB{conn: conn}, nil
}

// Close closes the database.
func (d *DB) Close() {
	_ = d.conn.Close()
}

// HealthCheck pings the database.
func (d *DB) HealthCheck(ctx context.Context) error {
	return d.conn.PingContext(ctx)
}

// --------------------------------------------------------------------------
// User directory
// --------------------------------------------------------------------------

// Locations lists profiles that have location data.
func (d *DB) Locations(ctx context.Context) ([]prayer.UserLocation, error) {
	rows, err := d.conn.QueryContext(ctx,
		`SELECT id, location_data FROM profiles WHERE location_data IS NOT NULL ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var users []prayer.UserLocation
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		u, _ := prayer.DecodeLocation(id, []byte(raw))
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpsertProfile stores a profile's location data. Used by the CLI and tests
// to seed users.
func (d *DB) UpsertProfile(ctx context.Context, id, username string, loc *prayer.LocationData) error {
	var raw any
	if loc != nil {
		b, err := json.Marshal(loc)
		if err != nil {
			return fmt.Errorf("encode location: %w", err)
		}
		raw = string(b)
	}
	_, err := d.conn.ExecContext(ctx,
		`INSERT INTO profiles (id, username, location_data) VALUES (?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET username = excluded.username, location_data = excluded.location_data`,
		id, username, raw)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Notification ledger
// --------------------------------------------------------------------------

// Sent returns which of userIDs already have a record for key.
func (d *DB) Sent(ctx context.Context, key string, userIDs []string) (map[string]bool, error) {
	sent := make(map[string]bool)
	if len(userIDs) == 0 {
		return sent, nil
	}

	args := make([]any, 0, len(userIDs)+1)
	args = append(args, key)
	for _, id := range userIDs {
		args = append(args, id)
	}
	query := `SELECT user_id FROM prayer_notifications WHERE dedup_key = ? AND user_id IN (` +
		placeholders(len(userIDs)) + `)`

	rows, err := d.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan ledger: %w", err)
		}
		sent[id] = true
	}
	return sent, rows.Err()
}

// Record inserts ledger rows in one transaction, skipping conflicts.
func (d *DB) Record(ctx context.Context, recs []prayer.NotificationRecord) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO prayer_notifications (id, user_id, dedup_key, prayer, sent_at)
		 VALUES (?, ?, ?, ?, ?) ON CONFLICT (user_id, dedup_key) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("prepare ledger insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, r := range recs {
		res, err := stmt.ExecContext(ctx, r.ID.String(), r.UserID, r.DedupKey, r.Prayer, r.SentAt.UTC())
		if err != nil {
			return 0, fmt.Errorf("insert ledger row: %w", err)
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// Purge deletes ledger rows sent before olderThan.
func (d *DB) Purge(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := d.conn.ExecContext(ctx, `DELETE FROM prayer_notifications WHERE sent_at < ?`, olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge ledger: %w", err)
	}
	return res.RowsAffected()
}

// --------------------------------------------------------------------------
// Agendas
// --------------------------------------------------------------------------

const agendaColumns = `id, user_id, task_name, target_time, is_notified, created_at`

// DueAgendas returns unnotified items with target time in [from, to].
func (d *DB) DueAgendas(ctx context.Context, from, to time.Time) ([]agenda.Item, error) {
	return d.queryAgendas(ctx,
		`SELECT `+agendaColumns+` FROM agendas
		 WHERE is_notified = 0 AND target_time >= ? AND target_time <= ?
		 ORDER BY target_time, id`,
		from.UTC(), to.UTC())
}

// UserAgendas returns a user's items ordered by target time.
func (d *DB) UserAgendas(ctx context.Context, userID string) ([]agenda.Item, error) {
	return d.queryAgendas(ctx,
		`SELECT `+agendaColumns+` FROM agendas WHERE user_id = ? ORDER BY target_time, id`, userID)
}

func (d *DB) queryAgendas(ctx context.Context, query string, args ...any) ([]agenda.Item, error) {
	rows, err := d.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query agendas: %w", err)
	}
	defer rows.Close()

	var items []agenda.Item
	for rows.Next() {
		var it agenda.Item
		if err := rows.Scan(&it.ID, &it.UserID, &it.TaskName, &it.TargetTime, &it.IsNotified, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan agenda: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// MarkAgendasNotified flags the given items as notified.
func (d *DB) MarkAgendasNotified(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := d.conn.ExecContext(ctx,
		`UPDATE agendas SET is_notified = 1 WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return fmt.Errorf("mark agendas: %w", err)
	}
	return nil
}

// AddAgenda inserts a new item.
func (d *DB) AddAgenda(ctx context.Context, it agenda.Item) error {
	_, err := d.conn.ExecContext(ctx,
		`INSERT INTO agendas (`+agendaColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		it.ID, it.UserID, it.TaskName, it.TargetTime.UTC(), it.IsNotified, it.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert agenda: %w", err)
	}
	return nil
}

// --------------------------------------------------------------------------
// App settings
// --------------------------------------------------------------------------

// Setting reads one app setting. ok is false when the key is absent.
func (d *DB) Setting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := d.conn.QueryRowContext(ctx, `SELECT value FROM app_settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read setting %s: %w", key, err)
	}
	return value, true, nil
}

// PutSetting upserts an app setting.
func (d *DB) PutSetting(ctx context.Context, key, value string, at time.Time) error {
	_, err := d.conn.ExecContext(ctx,
		`INSERT INTO app_settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, at.UTC())
	if err != nil {
		return fmt.Errorf("write setting %s: %w", key, err)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
