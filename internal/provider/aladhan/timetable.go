package aladhan

import "time"

// Prayer and marker names as keyed in the Aladhan timings object.
const (
	Imsak   = "Imsak"
	Fajr    = "Fajr"
	Sunrise = "Sunrise"
	Dhuhr   = "Dhuhr"
	Asr     = "Asr"
	Maghrib = "Maghrib"
	Isha    = "Isha"
)

// Timetable is one location's timings for one day.
type Timetable struct {
	Timings       map[string]string // name -> "HH:MM" (may carry a " (+03)" suffix)
	Timezone      string            // IANA name, "UTC" when unreported
	GregorianDate string            // DD-MM-YYYY
	HijriDay      string
	HijriMonth    string
	HijriYear     string
	Method        int
}

// Location resolves the reported timezone.
func (t *Timetable) Location() (*time.Location, error) {
	return time.LoadLocation(t.Timezone)
}

// HijriDate formats the hijri date for display, e.g. "12 Ramaḍān 1447".
func (t *Timetable) HijriDate() string {
	if t.HijriDay == "" {
		return ""
	}
	return t.HijriDay + " " + t.HijriMonth + " " + t.HijriYear
}
