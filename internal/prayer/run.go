package prayer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ramadhantime/notifier/internal/provider/aladhan"
)

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

var (
	// ErrNotConfigured means no push delivery is available.
	ErrNotConfigured = errors.New("OneSignal not configured")
	// ErrLoadUsers wraps user directory failures.
	ErrLoadUsers = errors.New("load users")
)

// LockName is the run-lock key for the prayer job.
const LockName = "prayer-notify"

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Config tunes the engine.
type Config struct {
	Lead      time.Duration
	Tolerance time.Duration
	Workers   int
}

// Deps are the engine's collaborators. Pusher and Locker may be nil.
type Deps struct {
	Directory Directory
	Timetable TimetableProvider
	Ledger    Ledger
	Pusher    Pusher
	Locker    Locker
}

// RunResult summarises one run. It is returned to the caller and never
// persisted.
type RunResult struct {
	RunID     string
	Users     int
	Buckets   int
	TotalSent int
	Details   []string
	Timestamp time.Time
	Skipped   bool
	Duration  time.Duration
}

// Message is the one-line outcome shown to the caller.
func (r *RunResult) Message() string {
	switch {
	case r.Skipped:
		return "Skipped: another run is in progress"
	case r.Users == 0:
		return "No users with location data"
	default:
		return fmt.Sprintf("Processed %d locations, sent %d notifications", r.Buckets, r.TotalSent)
	}
}

// Summary returns a human-readable summary for logs.
func (r *RunResult) Summary() string {
	return fmt.Sprintf("run=%s users=%d buckets=%d sent=%d details=%d skipped=%v dur=%s",
		r.RunID, r.Users, r.Buckets, r.TotalSent, len(r.Details), r.Skipped,
		r.Duration.Round(time.Millisecond))
}

// --------------------------------------------------------------------------
// Engine
// --------------------------------------------------------------------------

// Engine runs the prayer reminder job.
type Engine struct {
	directory  Directory
	pusher     Pusher
	locker     Locker
	resolver   *Resolver
	gate       *Gate
	dispatcher *Dispatcher
	window     Window
	workers    int
	now        func() time.Time
	logger     *slog.Logger
}

// NewEngine wires an engine from its collaborators.
func NewEngine(deps Deps, cfg Config, logger *slog.Logger) *Engine {
	return newEngine(deps, cfg, time.Now, logger)
}

func newEngine(deps Deps, cfg Config, now func() time.Time, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	w := DefaultWindow
	if cfg.Lead > 0 || cfg.Tolerance > 0 {
		w = NewWindow(cfg.Lead, cfg.Tolerance)
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		directory:  deps.Directory,
		pusher:     deps.Pusher,
		locker:     deps.Locker,
		resolver:   NewResolver(deps.Timetable),
		gate:       NewGate(deps.Ledger),
		dispatcher: NewDispatcher(deps.Pusher, deps.Ledger, w.Lead, now, logger),
		window:     w,
		workers:    workers,
		now:        now,
		logger:     logger,
	}
}

// Window returns the engine's pre-adhan window.
func (e *Engine) Window() Window { return e.window }

// Run performs one pass over all users. Per-bucket failures are reported in
// RunResult.Details; only configuration and directory failures return an
// error.
func (e *Engine) Run(ctx context.Context) (*RunResult, error) {
	if e.pusher == nil {
		return nil, ErrNotConfigured
	}

	start := time.Now()
	now := e.now()
	result := &RunResult{
		RunID:     uuid.NewString(),
		Details:   []string{},
		Timestamp: now.UTC(),
	}

	if e.locker != nil {
		unlock, ok, err := e.locker.TryLock(ctx, LockName)
		switch {
		case err != nil:
			// The ledger's uniqueness still prevents duplicate rows.
			e.logger.Warn("Run lock unavailable, continuing without it", "error", err)
		case !ok:
			result.Skipped = true
			e.logger.Info("Prayer run skipped, lock held", "run", result.RunID)
			return result, nil
		default:
			defer func() {
				if err := unlock(context.WithoutCancel(ctx)); err != nil {
					e.logger.Warn("Run lock release failed", "error", err)
				}
			}()
		}
	}

	users, err := e.directory.Locations(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadUsers, err)
	}

	buckets := GroupByLocation(users)
	for _, b := range buckets {
		result.Users += len(b.UserIDs)
	}
	result.Buckets = len(buckets)
	if len(buckets) == 0 {
		result.Duration = time.Since(start)
		return result, nil
	}

	e.logger.Info("Prayer run started",
		"run", result.RunID, "users", result.Users, "buckets", len(buckets))

	outcomes := e.processAll(ctx, buckets, now)
	for _, o := range outcomes {
		result.TotalSent += o.sent
		result.Details = append(result.Details, o.details...)
	}

	result.Duration = time.Since(start)
	e.logger.Info("Prayer run complete", "summary", result.Summary())
	return result, nil
}

type bucketOutcome struct {
	sent    int
	details []string
}

// processAll fans buckets out to the worker pool. Each worker writes only
// its own slot so outcomes stay in bucket order.
func (e *Engine) processAll(ctx context.Context, buckets []*Bucket, now time.Time) []bucketOutcome {
	outcomes := make([]bucketOutcome, len(buckets))

	workers := e.workers
	if workers > len(buckets) {
		workers = len(buckets)
	}

	ch := make(chan int, len(buckets))
	for i := range buckets {
		ch <- i
	}
	close(ch)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range ch {
				outcomes[idx] = e.processBucket(ctx, buckets[idx], now)
			}
		}()
	}
	wg.Wait()
	return outcomes
}

func (e *Engine) processBucket(ctx context.Context, b *Bucket, now time.Time) bucketOutcome {
	var out bucketOutcome
	logger := e.logger.With("bucket", b.Key)

	res, err := e.resolver.Resolve(ctx, b, now)
	if err != nil {
		logger.Warn("Timetable lookup failed", "error", err)
		out.details = append(out.details, b.Key+": "+resolveDetail(err))
		return out
	}

	due, parseErrs := e.window.Evaluate(res.Timetable.Timings, res.NowMinute)
	for _, perr := range parseErrs {
		logger.Warn("Unusable timing", "error", perr)
		out.details = append(out.details, fmt.Sprintf("%s: Timing error: %v", b.Key, perr))
	}
	if len(due) == 0 {
		return out
	}

	logger.Debug("Prayers due",
		"timezone", res.Timetable.Timezone, "now_minute", res.NowMinute,
		"due", len(due), "users", len(b.UserIDs), "spread_m", int(b.Spread))

	for _, d := range due {
		key := DedupKey(OccurrenceDate(res.Local, d.Offset, e.window.Lead), d.Name)

		owed, err := e.gate.Owed(ctx, key, b.UserIDs)
		if err != nil {
			logger.Error("Ledger lookup failed", "dedup_key", key, "error", err)
			out.details = append(out.details, fmt.Sprintf("%s: Ledger error for %s: %v", b.Key, d.Label, err))
			continue
		}
		if len(owed) == 0 {
			out.details = append(out.details, fmt.Sprintf("%s: %s already sent to all %d users", b.Key, d.Label, len(b.UserIDs)))
			continue
		}

		r := e.dispatcher.Dispatch(ctx, DueNotice{
			Prayer:   d.Name,
			Label:    d.Label,
			Clock:    d.Clock,
			DedupKey: key,
			Owed:     owed,
		})
		if r.Err != nil {
			logger.Warn("Dispatch failed", "prayer", d.Name, "error", r.Err)
		}
		out.sent += r.Sent
		out.details = append(out.details, b.Key+": "+r.Detail)
	}
	return out
}

// resolveDetail renders a timetable failure as a status line.
func resolveDetail(err error) string {
	if apiErr, ok := aladhan.AsError(err); ok {
		if apiErr.StatusCode != http.StatusOK {
			return fmt.Sprintf("API error %d", apiErr.StatusCode)
		}
		return fmt.Sprintf("Aladhan error %d", apiErr.Code)
	}
	var tzErr *TimezoneError
	if errors.As(err, &tzErr) {
		return "Invalid timezone " + tzErr.Name
	}
	return fmt.Sprintf("Fetch error: %v", err)
}
