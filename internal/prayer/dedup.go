package prayer

import (
	"context"
	"fmt"
	"time"
)

// DedupKey identifies one prayer on one local calendar date, e.g.
// "2026-03-01:Fajr". It does not depend on bucket membership.
func DedupKey(localDate time.Time, prayer string) string {
	return localDate.Format(time.DateOnly) + ":" + prayer
}

// OccurrenceDate returns the instant of the prayer whose window is open at
// local, given the window offset and lead in minutes. Its calendar date is
// the next day when the window opened before midnight for a prayer after it.
func OccurrenceDate(local time.Time, offset, lead int) time.Time {
	return local.Truncate(time.Minute).Add(time.Duration(lead-offset) * time.Minute)
}

// Gate filters users that are still owed a reminder.
type Gate struct {
	ledger Ledger
}

// NewGate creates a gate backed by ledger.
func NewGate(ledger Ledger) *Gate {
	return &Gate{ledger: ledger}
}

// Owed returns userIDs without a ledger record for key, preserving order.
// The ledger is queried once for the whole set.
func (g *Gate) Owed(ctx context.Context, key string, userIDs []string) ([]string, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	sent, err := g.ledger.Sent(ctx, key, userIDs)
	if err != nil {
		return nil, fmt.Errorf("ledger lookup %s: %w", key, err)
	}
	owed := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if !sent[id] {
			owed = append(owed, id)
		}
	}
	return owed, nil
}
