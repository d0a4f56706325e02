package prayer

import (
	"fmt"
	"time"

	"github.com/ramadhantime/notifier/internal/provider/aladhan"
)

// displayOrder lists every entry shown on the daily schedule.
var displayOrder = []string{
	aladhan.Imsak, aladhan.Fajr, aladhan.Sunrise,
	aladhan.Dhuhr, aladhan.Asr, aladhan.Maghrib, aladhan.Isha,
}

// ScheduleEntry is one row of the daily schedule.
type ScheduleEntry struct {
	Name         string    `json:"name"`
	Label        string    `json:"label"`
	Time         string    `json:"time"`
	PreAdhanTime string    `json:"pre_adhan_time"`
	At           time.Time `json:"at"`
	PreAdhanAt   time.Time `json:"pre_adhan_at"`
}

// Schedule is a location's prayer times for one local day.
type Schedule struct {
	Date      string          `json:"date"`
	HijriDate string          `json:"hijri_date"`
	Timezone  string          `json:"timezone"`
	Prayers   []ScheduleEntry `json:"prayers"`
}

// BuildSchedule converts a timetable into absolute times on its own date.
// Imsak is clamped to lead minutes before Fajr when the provider reports it
// later than Fajr.
func BuildSchedule(tt *aladhan.Timetable, lead int) (*Schedule, error) {
	loc, err := tt.Location()
	if err != nil {
		return nil, &TimezoneError{Name: tt.Timezone, Err: err}
	}
	day, err := time.ParseInLocation("02-01-2006", tt.GregorianDate, loc)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", tt.GregorianDate, err)
	}

	s := &Schedule{
		Date:      tt.GregorianDate,
		HijriDate: tt.HijriDate(),
		Timezone:  tt.Timezone,
		Prayers:   make([]ScheduleEntry, 0, len(displayOrder)),
	}
	for _, name := range displayOrder {
		raw, ok := tt.Timings[name]
		if !ok {
			return nil, fmt.Errorf("timing for %s missing", name)
		}
		minute, err := ParseClock(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		s.Prayers = append(s.Prayers, newEntry(name, day.Add(time.Duration(minute)*time.Minute), lead))
	}

	imsak, fajr := &s.Prayers[0], &s.Prayers[1]
	if imsak.At.After(fajr.At) {
		*imsak = newEntry(aladhan.Imsak, fajr.At.Add(-time.Duration(lead)*time.Minute), lead)
	}
	return s, nil
}

func newEntry(name string, at time.Time, lead int) ScheduleEntry {
	pre := at.Add(-time.Duration(lead) * time.Minute)
	return ScheduleEntry{
		Name:         name,
		Label:        Label(name),
		Time:         at.Format("15:04"),
		PreAdhanTime: pre.Format("15:04"),
		At:           at,
		PreAdhanAt:   pre,
	}
}

// Next returns the first prayer after now, ignoring Imsak and Sunrise.
// It returns nil once Isha has passed.
func (s *Schedule) Next(now time.Time) *ScheduleEntry {
	for i := range s.Prayers {
		p := &s.Prayers[i]
		if p.Name == aladhan.Imsak || p.Name == aladhan.Sunrise {
			continue
		}
		if p.At.After(now) {
			return p
		}
	}
	return nil
}

// Countdown formats the time left until target as HH:MM:SS, or 00:00:00
// when target is not in the future.
func Countdown(target, now time.Time) string {
	d := target.Sub(now)
	if d <= 0 {
		return "00:00:00"
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}
