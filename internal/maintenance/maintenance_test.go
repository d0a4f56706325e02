package maintenance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramadhantime/notifier/internal/agenda"
	"github.com/ramadhantime/notifier/internal/prayer"
)

type countingPrayer struct{ calls int }

func (c *countingPrayer) Run(context.Context) (*prayer.RunResult, error) {
	c.calls++
	return &prayer.RunResult{}, nil
}

type countingAgenda struct{ calls int }

func (c *countingAgenda) Run(context.Context) (*agenda.Result, error) {
	c.calls++
	return &agenda.Result{Message: "No pending notifications"}, nil
}

type fakePurger struct {
	cutoff time.Time
	err    error
}

func (f *fakePurger) Purge(_ context.Context, olderThan time.Time) (int64, error) {
	f.cutoff = olderThan
	return 3, f.err
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestNew_RegistersJobs(t *testing.T) {
	s, err := New(Config{PrayerCron: "* * * * *", AgendaCron: "*/5 * * * *"},
		&countingPrayer{}, &countingAgenda{}, nil, discard())
	require.NoError(t, err)
	assert.Equal(t, 2, s.Jobs())
}

func TestNew_DisabledJobs(t *testing.T) {
	s, err := New(Config{}, &countingPrayer{}, &countingAgenda{}, nil, discard())
	require.NoError(t, err)
	assert.Equal(t, 0, s.Jobs())
}

func TestNew_BadSpec(t *testing.T) {
	_, err := New(Config{PrayerCron: "every minute"}, &countingPrayer{}, nil, nil, discard())
	require.Error(t, err)
}

func TestJobsInvokeRunners(t *testing.T) {
	p, a := &countingPrayer{}, &countingAgenda{}
	s, err := New(Config{}, p, a, nil, discard())
	require.NoError(t, err)

	s.runPrayer()
	s.runAgenda()
	assert.Equal(t, 1, p.calls)
	assert.Equal(t, 1, a.calls)
}

func TestPurge_UsesRetention(t *testing.T) {
	purger := &fakePurger{}
	s, err := New(Config{LedgerRetention: 48 * time.Hour}, nil, nil, purger, discard())
	require.NoError(t, err)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.Purge(context.Background())
	assert.Equal(t, now.Add(-48*time.Hour), purger.cutoff)

	purger.err = errors.New("boom")
	s.Purge(context.Background())
}

func TestStart_StopsOnCancel(t *testing.T) {
	s, err := New(Config{PurgeInterval: time.Hour, LedgerRetention: time.Hour}, nil, nil, &fakePurger{}, discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
