package prayer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/paulmach/orb"

	"github.com/ramadhantime/notifier/internal/provider/aladhan"
	"github.com/ramadhantime/notifier/internal/push"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func user(id string, lat, lng float64) UserLocation {
	p := orb.Point{lng, lat}
	return UserLocation{UserID: id, Location: &p}
}

// --------------------------------------------------------------------------
// Directory
// --------------------------------------------------------------------------

type fakeDirectory struct {
	users []UserLocation
	err   error
}

func (f *fakeDirectory) Locations(context.Context) ([]UserLocation, error) {
	return f.users, f.err
}

// --------------------------------------------------------------------------
// Timetable
// --------------------------------------------------------------------------

type fakeTimetable struct {
	mu    sync.Mutex
	calls int
	dates []time.Time
	fn    func(lat, lng float64) (*aladhan.Timetable, error)
}

func (f *fakeTimetable) Timings(_ context.Context, lat, lng float64, date time.Time) (*aladhan.Timetable, error) {
	f.mu.Lock()
	f.calls++
	f.dates = append(f.dates, date)
	f.mu.Unlock()
	return f.fn(lat, lng)
}

func jakartaTimings() *aladhan.Timetable {
	return &aladhan.Timetable{
		Timings: map[string]string{
			"Imsak": "04:22", "Fajr": "04:32 (+03)", "Sunrise": "05:50",
			"Dhuhr": "11:58", "Asr": "15:20", "Maghrib": "18:05", "Isha": "19:20",
		},
		Timezone:      "Asia/Jakarta",
		GregorianDate: "01-03-2026",
		HijriDay:      "12",
		HijriMonth:    "Ramaḍān",
		HijriYear:     "1447",
		Method:        11,
	}
}

// --------------------------------------------------------------------------
// Ledger
// --------------------------------------------------------------------------

type fakeLedger struct {
	mu        sync.Mutex
	rows      map[string]map[string]NotificationRecord // key -> user -> record
	sentCalls int
	sentErr   error
	recordErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{rows: make(map[string]map[string]NotificationRecord)}
}

func (l *fakeLedger) seed(key string, userIDs ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range userIDs {
		if l.rows[key] == nil {
			l.rows[key] = make(map[string]NotificationRecord)
		}
		l.rows[key][id] = NotificationRecord{UserID: id, DedupKey: key}
	}
}

func (l *fakeLedger) Sent(_ context.Context, key string, userIDs []string) (map[string]bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sentCalls++
	if l.sentErr != nil {
		return nil, l.sentErr
	}
	out := make(map[string]bool)
	for _, id := range userIDs {
		if _, ok := l.rows[key][id]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (l *fakeLedger) Record(_ context.Context, recs []NotificationRecord) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.recordErr != nil {
		return 0, l.recordErr
	}
	inserted := 0
	for _, r := range recs {
		if l.rows[r.DedupKey] == nil {
			l.rows[r.DedupKey] = make(map[string]NotificationRecord)
		}
		if _, exists := l.rows[r.DedupKey][r.UserID]; exists {
			continue
		}
		l.rows[r.DedupKey][r.UserID] = r
		inserted++
	}
	return inserted, nil
}

func (l *fakeLedger) count(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rows[key])
}

// --------------------------------------------------------------------------
// Pusher
// --------------------------------------------------------------------------

type fakePusher struct {
	mu   sync.Mutex
	sent []push.Notification
	err  error
}

func (p *fakePusher) Send(_ context.Context, n push.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, n)
	return nil
}

func (p *fakePusher) calls() []push.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]push.Notification(nil), p.sent...)
}

// --------------------------------------------------------------------------
// Locker
// --------------------------------------------------------------------------

type fakeLocker struct {
	held     bool
	err      error
	released bool
}

func (l *fakeLocker) TryLock(context.Context, string) (func(context.Context) error, bool, error) {
	if l.err != nil {
		return nil, false, l.err
	}
	if l.held {
		return nil, false, nil
	}
	return func(context.Context) error { l.released = true; return nil }, true, nil
}

var errBoom = errors.New("boom")
