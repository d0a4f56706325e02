// Package listener provides a Postgres LISTEN/NOTIFY consumer for app
// setting changes. It holds a dedicated pgx connection (not from the pool)
// listening on the `app_settings_changed` channel.
//
// The app_settings trigger fires pg_notify on every insert or update so
// every API instance drops its cached copy of the setting, including
// changes written directly in the database.
package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
)

const (
	Channel          = "app_settings_changed"
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

// SettingChange is the JSON payload from pg_notify('app_settings_changed', ...).
type SettingChange struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	Timestamp int64  `json:"ts"`
}

// Handler is called for every change, on the listener goroutine.
type Handler func(SettingChange)

// Start opens a dedicated connection and listens on the app_settings_changed
// channel. It reconnects automatically on connection loss. Blocks until ctx
// is cancelled. Intended to be called with `go`.
func Start(ctx context.Context, dbURL string, handle Handler, logger *slog.Logger) {
	backoff := reconnectBackoff

	for {
		err := listenLoop(ctx, dbURL, handle, logger)
		if ctx.Err() != nil {
			logger.Info("Settings listener stopped (context cancelled)")
			return
		}

		logger.Error("Settings listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

// listenLoop runs a single listen session. Returns when the connection drops
// or the context is cancelled.
func listenLoop(ctx context.Context, dbURL string, handle Handler, logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	_, err = conn.Exec(ctx, "LISTEN "+Channel)
	if err != nil {
		return fmt.Errorf("LISTEN %s: %w", Channel, err)
	}
	logger.Info("Settings listener connected", "channel", Channel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		change, err := Parse(notification.Payload)
		if err != nil {
			logger.Warn("Failed to parse settings event",
				"payload", notification.Payload, "error", err)
			continue
		}

		logger.Info("Setting changed", "key", change.Key, "value", change.Value)
		handle(change)
	}
}

// Parse decodes a notification payload.
func Parse(payload string) (SettingChange, error) {
	var c SettingChange
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return SettingChange{}, err
	}
	if c.Key == "" {
		return SettingChange{}, fmt.Errorf("payload has no key")
	}
	return c, nil
}
