package prayer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ramadhantime/notifier/internal/push"
)

// DashboardURL is opened when the user taps a reminder.
const DashboardURL = "/dashboard"

// DueNotice is one (bucket, prayer) reminder ready to send.
type DueNotice struct {
	Prayer   string
	Label    string
	Clock    string
	DedupKey string
	Owed     []string
}

// DispatchResult is the outcome of one Dispatch call.
type DispatchResult struct {
	Sent     int    // users the push was delivered to
	Recorded int    // ledger rows newly inserted
	Detail   string // status line without the bucket prefix, empty when skipped
	Err      error
}

// Dispatcher sends a reminder and records it in the ledger.
type Dispatcher struct {
	pusher Pusher
	ledger Ledger
	lead   int
	now    func() time.Time
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher. lead is the reminder lead in minutes
// used in the heading.
func NewDispatcher(pusher Pusher, ledger Ledger, lead int, now func() time.Time, logger *slog.Logger) *Dispatcher {
	if now == nil {
		now = time.Now
	}
	return &Dispatcher{pusher: pusher, ledger: ledger, lead: lead, now: now, logger: logger}
}

// Message composes the push for a notice.
func (d *Dispatcher) Message(n DueNotice) push.Notification {
	return push.Notification{
		ExternalIDs: n.Owed,
		Heading:     fmt.Sprintf("🕌 %s dalam %d menit", n.Label, d.lead),
		Content:     fmt.Sprintf("Waktu %s pukul %s. Bersiaplah untuk shalat.", n.Label, n.Clock),
		URL:         DashboardURL,
	}
}

// Dispatch issues one push addressed to every owed user. Ledger rows are
// written only after the push succeeds. An empty owed list is a no-op.
func (d *Dispatcher) Dispatch(ctx context.Context, n DueNotice) DispatchResult {
	if len(n.Owed) == 0 {
		return DispatchResult{}
	}

	if err := d.pusher.Send(ctx, d.Message(n)); err != nil {
		if osErr, ok := push.AsError(err); ok {
			return DispatchResult{
				Detail: fmt.Sprintf("OneSignal error for %s: %s", n.Label, osErr.Body),
				Err:    err,
			}
		}
		return DispatchResult{
			Detail: fmt.Sprintf("Send error for %s: %v", n.Label, err),
			Err:    err,
		}
	}

	sentAt := d.now().UTC()
	recs := make([]NotificationRecord, 0, len(n.Owed))
	for _, id := range n.Owed {
		recs = append(recs, NotificationRecord{
			ID:       uuid.New(),
			UserID:   id,
			DedupKey: n.DedupKey,
			Prayer:   n.Prayer,
			SentAt:   sentAt,
		})
	}

	res := DispatchResult{
		Sent:   len(n.Owed),
		Detail: fmt.Sprintf("Sent %s alert to %d users", n.Label, len(n.Owed)),
	}

	inserted, err := d.ledger.Record(ctx, recs)
	if err != nil {
		d.logger.Error("Ledger write failed after push",
			"dedup_key", n.DedupKey, "users", len(n.Owed), "error", err)
		res.Detail += fmt.Sprintf(" (ledger error: %v)", err)
		res.Err = fmt.Errorf("record %s: %w", n.DedupKey, err)
		return res
	}
	res.Recorded = inserted
	if inserted < len(recs) {
		d.logger.Warn("Some ledger rows already existed",
			"dedup_key", n.DedupKey, "inserted", inserted, "owed", len(recs))
	}
	return res
}
