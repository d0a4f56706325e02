package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ramadhantime/notifier/internal/agenda"
	"github.com/ramadhantime/notifier/internal/prayer"
)

// --------------------------------------------------------------------------
// User directory
// --------------------------------------------------------------------------

// Locations lists every profile with stored location data. Rows whose JSON
// cannot be decoded are returned without a location.
func (p *Pool) Locations(ctx context.Context) ([]prayer.UserLocation, error) {
	rows, err := p.Query(ctx, "directory_locations")
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var users []prayer.UserLocation
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		u, _ := prayer.DecodeLocation(id, raw)
		users = append(users, u)
	}
	return users, rows.Err()
}

// --------------------------------------------------------------------------
// Notification ledger
// --------------------------------------------------------------------------

// Sent returns which of userIDs already have a record for key.
func (p *Pool) Sent(ctx context.Context, key string, userIDs []string) (map[string]bool, error) {
	rows, err := p.Query(ctx, "ledger_sent", key, userIDs)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	sent := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan ledger: %w", err)
		}
		sent[id] = true
	}
	return sent, rows.Err()
}

// Record inserts ledger rows in one batch. Rows that conflict on
// (user_id, dedup_key) are skipped and not counted.
func (p *Pool) Record(ctx context.Context, recs []prayer.NotificationRecord) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, r := range recs {
		batch.Queue("ledger_insert", r.ID.String(), r.UserID, r.DedupKey, r.Prayer, r.SentAt)
	}

	br := p.SendBatch(ctx, batch)
	defer br.Close()

	inserted := 0
	for range recs {
		tag, err := br.Exec()
		if err != nil {
			return inserted, fmt.Errorf("insert ledger row: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// Purge deletes ledger rows sent before olderThan.
func (p *Pool) Purge(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := p.Exec(ctx, "ledger_purge", olderThan)
	if err != nil {
		return 0, fmt.Errorf("purge ledger: %w", err)
	}
	return tag.RowsAffected(), nil
}

// --------------------------------------------------------------------------
// Agendas
// --------------------------------------------------------------------------

// DueAgendas returns unnotified items with target time in [from, to].
func (p *Pool) DueAgendas(ctx context.Context, from, to time.Time) ([]agenda.Item, error) {
	return p.queryAgendas(ctx, "agenda_due", from, to)
}

// UserAgendas returns a user's items ordered by target time.
func (p *Pool) UserAgendas(ctx context.Context, userID string) ([]agenda.Item, error) {
	return p.queryAgendas(ctx, "agenda_by_user", userID)
}

func (p *Pool) queryAgendas(ctx context.Context, stmt string, args ...any) ([]agenda.Item, error) {
	rows, err := p.Query(ctx, stmt, args...)
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
func (p *Pool) MarkAgendasNotified(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := p.Exec(ctx, "agenda_mark", ids); err != nil {
		return fmt.Errorf("mark agendas: %w", err)
	}
	return nil
}

// AddAgenda inserts a new item.
func (p *Pool) AddAgenda(ctx context.Context, it agenda.Item) error {
	_, err := p.Exec(ctx, "agenda_insert",
		it.ID, it.UserID, it.TaskName, it.TargetTime, it.IsNotified, it.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert agenda: %w", err)
	}
	return nil
}

// --------------------------------------------------------------------------
// App settings
// --------------------------------------------------------------------------

// Setting reads one app setting. ok is false when the key is absent.
func (p *Pool) Setting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := p.QueryRow(ctx, "setting_get", key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read setting %s: %w", key, err)
	}
	return value, true, nil
}

// PutSetting upserts an app setting. The table trigger publishes the change
// on the app_settings_changed channel.
func (p *Pool) PutSetting(ctx context.Context, key, value string, at time.Time) error {
	if _, err := p.Exec(ctx, "setting_put", key, value, at); err != nil {
		return fmt.Errorf("write setting %s: %w", key, err)
	}
	return nil
}
