// Package prayer is the prayer-time notification engine.
//
// On every run it loads users that carry coordinates, groups them into
// rounded location buckets, fetches one timetable per bucket, works out
// which prayers are inside the pre-adhan window in the bucket's timezone,
// filters out users already notified for that (local date, prayer) and
// sends one push per bucket and prayer to the rest.
//
// Storage, the timetable provider and push delivery are collaborators
// behind the interfaces below, so the engine holds no state between runs.
package prayer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"github.com/ramadhantime/notifier/internal/provider/aladhan"
	"github.com/ramadhantime/notifier/internal/push"
)

// Notifiable prayers in daily order. Imsak and Sunrise are display only.
var Notifiable = []string{aladhan.Fajr, aladhan.Dhuhr, aladhan.Asr, aladhan.Maghrib, aladhan.Isha}

// labels are the Indonesian names used in notification text.
var labels = map[string]string{
	aladhan.Imsak:   "Imsak",
	aladhan.Fajr:    "Subuh",
	aladhan.Sunrise: "Terbit",
	aladhan.Dhuhr:   "Dzuhur",
	aladhan.Asr:     "Ashar",
	aladhan.Maghrib: "Maghrib",
	aladhan.Isha:    "Isya",
}

// Label returns the display label for a prayer name.
func Label(name string) string {
	if l, ok := labels[name]; ok {
		return l
	}
	return name
}

// UserLocation is a user with optionally stored coordinates.
type UserLocation struct {
	UserID   string
	Location *orb.Point // nil when the user has not shared a location
	City     string
	Country  string
}

// NotificationRecord is one ledger row: the user was sent the reminder
// identified by DedupKey.
type NotificationRecord struct {
	ID       uuid.UUID
	UserID   string
	DedupKey string
	Prayer   string
	SentAt   time.Time
}

// Directory lists users with their stored coordinates.
type Directory interface {
	Locations(ctx context.Context) ([]UserLocation, error)
}

// TimetableProvider resolves a location's timings for a date.
type TimetableProvider interface {
	Timings(ctx context.Context, lat, lng float64, date time.Time) (*aladhan.Timetable, error)
}

// Ledger is the durable record of reminders already sent.
type Ledger interface {
	// Sent returns the subset of userIDs that already have a record for key.
	Sent(ctx context.Context, key string, userIDs []string) (map[string]bool, error)
	// Record stores rows, ignoring ones that already exist, and returns how
	// many were newly inserted.
	Record(ctx context.Context, recs []NotificationRecord) (int, error)
}

// Pusher delivers one notification call.
type Pusher interface {
	Send(ctx context.Context, n push.Notification) error
}

// Locker provides run-level mutual exclusion. ok is false when another
// holder owns the lock.
type Locker interface {
	TryLock(ctx context.Context, name string) (unlock func(context.Context) error, ok bool, err error)
}
