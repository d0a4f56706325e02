package prayer

import (
	"context"
	"fmt"
	"time"

	"github.com/ramadhantime/notifier/internal/provider/aladhan"
)

// TimezoneError is returned when the provider reports a timezone that
// cannot be loaded.
type TimezoneError struct {
	Name string
	Err  error
}

func (e *TimezoneError) Error() string {
	return fmt.Sprintf("invalid timezone %q: %v", e.Name, e.Err)
}

func (e *TimezoneError) Unwrap() error { return e.Err }

// Resolved is a bucket's timetable together with "now" in its timezone.
type Resolved struct {
	Timetable *aladhan.Timetable
	Location  *time.Location
	Local     time.Time // run instant on the bucket's wall clock
	NowMinute int       // minutes since local midnight
}

// Resolver fetches a bucket's timetable and localises the run instant.
type Resolver struct {
	provider TimetableProvider
}

// NewResolver creates a resolver over provider.
func NewResolver(provider TimetableProvider) *Resolver {
	return &Resolver{provider: provider}
}

// Resolve looks up the timings at the bucket's representative coordinates
// for the UTC calendar date of now.
func (r *Resolver) Resolve(ctx context.Context, b *Bucket, now time.Time) (*Resolved, error) {
	tt, err := r.provider.Timings(ctx, b.Representative.Lat(), b.Representative.Lon(), now.UTC())
	if err != nil {
		return nil, err
	}

	loc, err := tt.Location()
	if err != nil {
		return nil, &TimezoneError{Name: tt.Timezone, Err: err}
	}

	local := now.In(loc)
	return &Resolved{
		Timetable: tt,
		Location:  loc,
		Local:     local,
		NowMinute: MinuteOfDay(local),
	}, nil
}
