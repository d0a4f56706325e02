package prayer

import (
	"fmt"
	"time"
)

// Window is the forward-only pre-adhan band. A prayer is due when "now" is
// between 0 and Tolerance minutes past prayer-Lead, wrapping at midnight.
// The run cadence must not exceed Tolerance.
type Window struct {
	Lead      int // minutes before the prayer
	Tolerance int // minutes after the pre-adhan mark
}

// DefaultWindow is the 10 minute lead with a 5 minute band.
var DefaultWindow = Window{Lead: 10, Tolerance: 5}

// NewWindow builds a window from durations, truncated to whole minutes.
func NewWindow(lead, tolerance time.Duration) Window {
	return Window{Lead: int(lead / time.Minute), Tolerance: int(tolerance / time.Minute)}
}

// PreAdhan returns the minute-of-day at which the reminder opens.
func (w Window) PreAdhan(prayerMinute int) int {
	return Mod1440(prayerMinute - w.Lead)
}

// Offset returns how many minutes now is past the pre-adhan mark.
func (w Window) Offset(now, prayerMinute int) int {
	return Mod1440(now - w.PreAdhan(prayerMinute))
}

// Due reports whether now falls inside the band for prayerMinute.
func (w Window) Due(now, prayerMinute int) bool {
	return w.Offset(now, prayerMinute) <= w.Tolerance
}

// MinuteOfDay returns minutes since midnight of t's wall clock.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// DuePrayer is a notifiable prayer whose window is open.
type DuePrayer struct {
	Name   string
	Label  string
	Clock  string // HH:MM, suffix stripped
	Minute int
	Offset int
}

// Evaluate returns the due prayers, in daily order, for the given timings
// at minute-of-day now. Unparseable timings are reported and skipped.
func (w Window) Evaluate(timings map[string]string, now int) ([]DuePrayer, []error) {
	var due []DuePrayer
	var errs []error
	for _, name := range Notifiable {
		raw, ok := timings[name]
		if !ok {
			errs = append(errs, fmt.Errorf("timing for %s missing", name))
			continue
		}
		minute, err := ParseClock(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		if !w.Due(now, minute) {
			continue
		}
		due = append(due, DuePrayer{
			Name:   name,
			Label:  Label(name),
			Clock:  FormatClock(minute),
			Minute: minute,
			Offset: w.Offset(now, minute),
		})
	}
	return due, errs
}
