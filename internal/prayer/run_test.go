package prayer

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramadhantime/notifier/internal/provider/aladhan"
	"github.com/ramadhantime/notifier/internal/push"
)

// 2026-03-01 04:25 in Jakarta (UTC+7): three minutes past Fajr's pre-adhan mark.
var fajrWindowOpen = time.Date(2026, 2, 28, 21, 25, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type harness struct {
	dir    *fakeDirectory
	tt     *fakeTimetable
	ledger *fakeLedger
	pusher *fakePusher
	engine *Engine
}

func newHarness(users []UserLocation, now time.Time, workers int) *harness {
	h := &harness{
		dir:    &fakeDirectory{users: users},
		tt:     &fakeTimetable{fn: func(float64, float64) (*aladhan.Timetable, error) { return jakartaTimings(), nil }},
		ledger: newFakeLedger(),
		pusher: &fakePusher{},
	}
	h.engine = newEngine(Deps{
		Directory: h.dir,
		Timetable: h.tt,
		Ledger:    h.ledger,
		Pusher:    h.pusher,
	}, Config{Workers: workers}, fixedClock(now), discardLogger())
	return h
}

func TestDedupKey(t *testing.T) {
	jkt, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	local := time.Date(2026, 3, 1, 4, 25, 0, 0, jkt)
	assert.Equal(t, "2026-03-01:Fajr", DedupKey(local, "Fajr"))

	// The same instant in UTC is still Feb 28, so the local date matters.
	assert.Equal(t, "2026-02-28:Fajr", DedupKey(local.UTC(), "Fajr"))
}

func TestOccurrenceDate_WrapsPastMidnight(t *testing.T) {
	jkt, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	// Window for a 00:05 prayer opens at 23:55 the day before.
	local := time.Date(2026, 3, 1, 23, 55, 30, 0, jkt)
	occ := OccurrenceDate(local, 0, 10)
	assert.Equal(t, "2026-03-02:Isha", DedupKey(occ, "Isha"))

	// Same-day prayer keeps today's date.
	local = time.Date(2026, 3, 1, 19, 12, 0, 0, jkt)
	occ = OccurrenceDate(local, 2, 10)
	assert.Equal(t, time.Date(2026, 3, 1, 19, 20, 0, 0, jkt), occ)
}

func TestGate_Owed(t *testing.T) {
	ledger := newFakeLedger()
	ledger.seed("2026-03-01:Fajr", "u2")
	gate := NewGate(ledger)

	owed, err := gate.Owed(context.Background(), "2026-03-01:Fajr", []string{"u1", "u2", "u3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u3"}, owed)
	assert.Equal(t, 1, ledger.sentCalls, "one batched query per key")

	again, err := gate.Owed(context.Background(), "2026-03-01:Fajr", []string{"u1", "u2", "u3"})
	require.NoError(t, err)
	assert.Equal(t, owed, again)

	ledger.sentErr = errBoom
	_, err = gate.Owed(context.Background(), "2026-03-01:Fajr", []string{"u1"})
	require.ErrorIs(t, err, errBoom)
}

func TestDispatcher_EmptyOwedIsNoop(t *testing.T) {
	pusher := &fakePusher{}
	ledger := newFakeLedger()
	d := NewDispatcher(pusher, ledger, 10, nil, discardLogger())

	res := d.Dispatch(context.Background(), DueNotice{Prayer: "Fajr", Label: "Subuh", DedupKey: "k"})
	assert.Equal(t, DispatchResult{}, res)
	assert.Empty(t, pusher.calls())
	assert.Zero(t, ledger.count("k"))
}

func TestDispatcher_Message(t *testing.T) {
	d := NewDispatcher(&fakePusher{}, newFakeLedger(), 10, nil, discardLogger())
	msg := d.Message(DueNotice{Label: "Subuh", Clock: "04:32", Owed: []string{"u1"}})
	assert.Equal(t, push.Notification{
		ExternalIDs: []string{"u1"},
		Heading:     "🕌 Subuh dalam 10 menit",
		Content:     "Waktu Subuh pukul 04:32. Bersiaplah untuk shalat.",
		URL:         "/dashboard",
	}, msg)
}

func TestDispatcher_LedgerFailureAfterPush(t *testing.T) {
	ledger := newFakeLedger()
	ledger.recordErr = errBoom
	d := NewDispatcher(&fakePusher{}, ledger, 10, nil, discardLogger())

	res := d.Dispatch(context.Background(), DueNotice{Label: "Subuh", DedupKey: "k", Owed: []string{"u1", "u2"}})
	assert.Equal(t, 2, res.Sent)
	assert.ErrorIs(t, res.Err, errBoom)
	assert.Contains(t, res.Detail, "Sent Subuh alert to 2 users")
	assert.Contains(t, res.Detail, "ledger error")
}

func TestEngine_EndToEnd_OneOwedUser(t *testing.T) {
	h := newHarness([]UserLocation{
		user("u1", -6.2, 106.8),
		user("u2", -6.2, 106.8),
		user("u3", -6.2, 106.8),
	}, fajrWindowOpen, 1)
	h.ledger.seed("2026-03-01:Fajr", "u1", "u2")

	res, err := h.engine.Run(context.Background())
	require.NoError(t, err)

	calls := h.pusher.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"u3"}, calls[0].ExternalIDs)
	assert.Equal(t, "Waktu Subuh pukul 04:32. Bersiaplah untuk shalat.", calls[0].Content)

	assert.Equal(t, 3, h.ledger.count("2026-03-01:Fajr"))
	assert.Equal(t, 1, res.TotalSent)
	assert.Equal(t, 1, res.Buckets)
	assert.Equal(t, 3, res.Users)
	assert.Equal(t, []string{"-6.20,106.80: Sent Subuh alert to 1 users"}, res.Details)
	assert.Equal(t, "Processed 1 locations, sent 1 notifications", res.Message())
	assert.Equal(t, fajrWindowOpen, res.Timestamp)
	assert.NotEmpty(t, res.RunID)

	// The provider is asked for the UTC calendar date of the run instant.
	require.Len(t, h.tt.dates, 1)
	assert.Equal(t, 28, h.tt.dates[0].Day())
}

func TestEngine_RerunIsIdempotent(t *testing.T) {
	h := newHarness([]UserLocation{
		user("u1", -6.2, 106.8),
		user("u2", -6.2, 106.8),
	}, fajrWindowOpen, 1)

	first, err := h.engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, first.TotalSent)

	second, err := h.engine.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, second.TotalSent)
	assert.Equal(t, []string{"-6.20,106.80: Subuh already sent to all 2 users"}, second.Details)
	assert.Len(t, h.pusher.calls(), 1)
	assert.Equal(t, 2, h.ledger.count("2026-03-01:Fajr"))
}

func TestEngine_PartialFailure(t *testing.T) {
	users := []UserLocation{
		user("a1", -6.2, 106.8),
		user("b1", -7.25, 112.75),
		user("b2", -7.25, 112.75),
	}
	h := newHarness(users, fajrWindowOpen, 2)
	h.tt.fn = func(lat, _ float64) (*aladhan.Timetable, error) {
		if lat == -6.2 {
			return nil, &aladhan.Error{StatusCode: http.StatusServiceUnavailable, Body: "down"}
		}
		return jakartaTimings(), nil
	}

	res, err := h.engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.TotalSent)
	assert.Equal(t, []string{
		"-6.20,106.80: API error 503",
		"-7.25,112.75: Sent Subuh alert to 2 users",
	}, res.Details)
	assert.Equal(t, 2, h.tt.calls)
}

func TestEngine_TimetableFailureKinds(t *testing.T) {
	tests := []struct {
		name string
		fn   func(float64, float64) (*aladhan.Timetable, error)
		want string
	}{
		{
			name: "body code",
			fn: func(float64, float64) (*aladhan.Timetable, error) {
				return nil, &aladhan.Error{StatusCode: http.StatusOK, Code: 400}
			},
			want: "1.00,2.00: Aladhan error 400",
		},
		{
			name: "transport",
			fn: func(float64, float64) (*aladhan.Timetable, error) {
				return nil, errBoom
			},
			want: "1.00,2.00: Fetch error: boom",
		},
		{
			name: "timezone",
			fn: func(float64, float64) (*aladhan.Timetable, error) {
				tt := jakartaTimings()
				tt.Timezone = "Mars/Olympus_Mons"
				return tt, nil
			},
			want: "1.00,2.00: Invalid timezone Mars/Olympus_Mons",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness([]UserLocation{user("u", 1, 2)}, fajrWindowOpen, 1)
			h.tt.fn = tt.fn

			res, err := h.engine.Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, []string{tt.want}, res.Details)
			assert.Zero(t, res.TotalSent)
		})
	}
}

func TestEngine_PushFailureLeavesLedgerForRetry(t *testing.T) {
	h := newHarness([]UserLocation{user("u1", -6.2, 106.8)}, fajrWindowOpen, 1)
	h.pusher.err = &push.Error{StatusCode: http.StatusBadRequest, Body: `{"errors":["bad"]}`}

	res, err := h.engine.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.TotalSent)
	assert.Equal(t, []string{`-6.20,106.80: OneSignal error for Subuh: {"errors":["bad"]}`}, res.Details)
	assert.Zero(t, h.ledger.count("2026-03-01:Fajr"))

	h.pusher.err = errBoom
	res, err = h.engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"-6.20,106.80: Send error for Subuh: boom"}, res.Details)

	h.pusher.err = nil
	res, err = h.engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalSent)
	assert.Equal(t, 1, h.ledger.count("2026-03-01:Fajr"))
}

func TestEngine_NothingDue(t *testing.T) {
	noon := time.Date(2026, 3, 1, 5, 0, 0, 0, time.UTC) // 12:00 in Jakarta
	h := newHarness([]UserLocation{user("u1", -6.2, 106.8)}, noon, 1)

	res, err := h.engine.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Details)
	assert.Empty(t, h.pusher.calls())
	assert.Zero(t, h.ledger.sentCalls)
}

func TestEngine_LedgerLookupFailure(t *testing.T) {
	h := newHarness([]UserLocation{user("u1", -6.2, 106.8)}, fajrWindowOpen, 1)
	h.ledger.sentErr = errBoom

	res, err := h.engine.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Details, 1)
	assert.Contains(t, res.Details[0], "-6.20,106.80: Ledger error for Subuh")
	assert.Empty(t, h.pusher.calls())
}

func TestEngine_NotConfigured(t *testing.T) {
	e := newEngine(Deps{Directory: &fakeDirectory{}, Ledger: newFakeLedger()}, Config{}, time.Now, discardLogger())
	_, err := e.Run(context.Background())
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestEngine_LoadError(t *testing.T) {
	h := newHarness(nil, fajrWindowOpen, 1)
	h.dir.err = errBoom

	_, err := h.engine.Run(context.Background())
	require.ErrorIs(t, err, ErrLoadUsers)
	require.ErrorIs(t, err, errBoom)
}

func TestEngine_NoUsers(t *testing.T) {
	h := newHarness([]UserLocation{{UserID: "no-location"}}, fajrWindowOpen, 1)

	res, err := h.engine.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Users)
	assert.Equal(t, "No users with location data", res.Message())
	assert.Zero(t, h.tt.calls)
}

func TestEngine_RunLock(t *testing.T) {
	h := newHarness([]UserLocation{user("u1", -6.2, 106.8)}, fajrWindowOpen, 1)

	held := &fakeLocker{held: true}
	h.engine.locker = held
	res, err := h.engine.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, "Skipped: another run is in progress", res.Message())
	assert.Zero(t, h.tt.calls)

	free := &fakeLocker{}
	h.engine.locker = free
	res, err = h.engine.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.True(t, free.released)

	broken := &fakeLocker{err: errors.New("redis down")}
	h.engine.locker = broken
	res, err = h.engine.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Skipped)
}

func TestEngine_CustomWindow(t *testing.T) {
	e := newEngine(Deps{}, Config{Lead: 15 * time.Minute, Tolerance: 2 * time.Minute, Workers: 0}, time.Now, discardLogger())
	assert.Equal(t, Window{Lead: 15, Tolerance: 2}, e.Window())
	assert.Equal(t, 1, e.workers)
}
