// Package maintenance runs the notification jobs in-process. The prayer and
// agenda jobs fire on cron expressions; the ledger purge runs as a Go ticker.
// Disabled by default since the hosted deployment triggers the jobs over HTTP.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ramadhantime/notifier/internal/agenda"
	"github.com/ramadhantime/notifier/internal/prayer"
)

// PrayerJob runs one prayer notification pass.
type PrayerJob interface {
	Run(ctx context.Context) (*prayer.RunResult, error)
}

// AgendaJob runs one agenda reminder pass.
type AgendaJob interface {
	Run(ctx context.Context) (*agenda.Result, error)
}

// Purger deletes ledger rows older than a cutoff.
type Purger interface {
	Purge(ctx context.Context, olderThan time.Time) (int64, error)
}

// Config controls schedules. An empty expression or zero duration disables a task.
type Config struct {
	PrayerCron      string
	AgendaCron      string
	PurgeInterval   time.Duration
	LedgerRetention time.Duration
	JobTimeout      time.Duration
}

// Scheduler owns the cron runner and the purge ticker.
type Scheduler struct {
	cron    *cron.Cron
	cfg     Config
	prayer  PrayerJob
	agenda  AgendaJob
	purger  Purger
	logger  *slog.Logger
	now     func() time.Time
	purging atomic.Bool
}

// New registers the configured jobs. Returns an error on a bad cron expression.
func New(cfg Config, p PrayerJob, a AgendaJob, purger Purger, logger *slog.Logger) (*Scheduler, error) {
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 55 * time.Second
	}
	s := &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DiscardLogger),
			cron.Recover(cron.DiscardLogger),
		)),
		cfg:    cfg,
		prayer: p,
		agenda: a,
		purger: purger,
		logger: logger,
		now:    time.Now,
	}

	if cfg.PrayerCron != "" && p != nil {
		if _, err := s.cron.AddFunc(cfg.PrayerCron, s.runPrayer); err != nil {
			return nil, fmt.Errorf("prayer cron %q: %w", cfg.PrayerCron, err)
		}
	}
	if cfg.AgendaCron != "" && a != nil {
		if _, err := s.cron.AddFunc(cfg.AgendaCron, s.runAgenda); err != nil {
			return nil, fmt.Errorf("agenda cron %q: %w", cfg.AgendaCron, err)
		}
	}
	return s, nil
}

// Jobs returns the number of registered cron entries.
func (s *Scheduler) Jobs() int { return len(s.cron.Entries()) }

// Start launches the cron runner and purge ticker. Blocks until ctx is
// cancelled, then waits for running jobs. Intended to be called with `go`.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Scheduler started",
		"prayer_cron", s.cfg.PrayerCron,
		"agenda_cron", s.cfg.AgendaCron,
		"purge_interval", s.cfg.PurgeInterval)

	s.cron.Start()

	if s.cfg.PurgeInterval > 0 && s.cfg.LedgerRetention > 0 && s.purger != nil {
		t := time.NewTicker(s.cfg.PurgeInterval)
		defer t.Stop()
		go runLoop(ctx, t.C, func() { s.Purge(ctx) })
	}

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// --------------------------------------------------------------------------
// Task implementations
// --------------------------------------------------------------------------

func (s *Scheduler) runPrayer() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.JobTimeout)
	defer cancel()

	res, err := s.prayer.Run(ctx)
	if err != nil {
		s.logger.Error("Scheduled prayer run failed", "error", err)
		return
	}
	s.logger.Info("Scheduled prayer run", "summary", res.Summary())
}

func (s *Scheduler) runAgenda() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.JobTimeout)
	defer cancel()

	res, err := s.agenda.Run(ctx)
	if err != nil {
		s.logger.Error("Scheduled agenda run failed", "error", err)
		return
	}
	s.logger.Info("Scheduled agenda run", "due", res.Due, "sent", res.Sent, "message", res.Message)
}

// Purge deletes ledger rows older than the retention period. Overlapping
// calls are dropped.
func (s *Scheduler) Purge(ctx context.Context) {
	if !s.purging.CompareAndSwap(false, true) {
		return
	}
	defer s.purging.Store(false)

	cutoff := s.now().Add(-s.cfg.LedgerRetention)
	n, err := s.purger.Purge(ctx, cutoff)
	if err != nil {
		s.logger.Warn("Purge: failed to delete old ledger rows", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("Purge: deleted old ledger rows", "count", n, "cutoff", cutoff)
	}
}
