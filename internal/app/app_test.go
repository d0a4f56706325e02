package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramadhantime/notifier/internal/config"
	"github.com/ramadhantime/notifier/internal/hijri"
	"github.com/ramadhantime/notifier/internal/listener"
	"github.com/ramadhantime/notifier/internal/prayer"
)

func testConfig() *config.Config {
	return &config.Config{
		StoreDriver:      config.DriverSQLite,
		SQLitePath:       ":memory:",
		DirectoryBackend: config.DirectoryDB,
		AladhanBaseURL:   "http://127.0.0.1:1",
		AladhanMethod:    11,
		PrayerLead:       10 * time.Minute,
		PrayerWindow:     5 * time.Minute,
		PrayerWorkers:    2,
		CacheEnabled:     true,
	}
}

func TestNew_WithoutPush(t *testing.T) {
	a, err := New(context.Background(), testConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Prayer.Run(context.Background())
	assert.True(t, errors.Is(err, prayer.ErrNotConfigured))

	res, err := a.Agenda.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "No pending notifications", res.Message)
}

func TestOnSettingChange_InvalidatesHijri(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Hijri.SetAdjustment(ctx, 1))
	assert.Equal(t, 1, a.Hijri.Adjustment(ctx))

	// Written behind the service's back, as another instance would.
	require.NoError(t, a.Backend.PutSetting(ctx, hijri.SettingKey, "-2", time.Now()))
	assert.Equal(t, 1, a.Hijri.Adjustment(ctx), "still cached")

	a.OnSettingChange(listener.SettingChange{Key: hijri.SettingKey, Value: "-2"})
	assert.Equal(t, -2, a.Hijri.Adjustment(ctx))
}

func TestListenForSettings_SQLiteReturns(t *testing.T) {
	a, err := New(context.Background(), testConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer a.Close()

	done := make(chan struct{})
	go func() {
		a.ListenForSettings(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listener should not start without Postgres")
	}
}
