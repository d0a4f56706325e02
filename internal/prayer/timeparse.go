package prayer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MinutesPerDay is the length of the minute-of-day ring.
const MinutesPerDay = 24 * 60

var parenSuffix = regexp.MustCompile(`\s*\(.*\)`)

// CleanClock strips a trailing parenthetical annotation such as " (+03)".
func CleanClock(s string) string {
	return strings.TrimSpace(parenSuffix.ReplaceAllString(s, ""))
}

// ParseClock converts "HH:MM", optionally suffixed with a parenthetical,
// into minutes since local midnight.
func ParseClock(s string) (int, error) {
	clean := CleanClock(s)
	h, m, ok := strings.Cut(clean, ":")
	if !ok {
		return 0, fmt.Errorf("parse clock %q: missing ':'", s)
	}
	hours, err := strconv.Atoi(h)
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: hours: %w", s, err)
	}
	minutes, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: minutes: %w", s, err)
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("parse clock %q: out of range", s)
	}
	return hours*60 + minutes, nil
}

// FormatClock renders a minute-of-day as HH:MM, wrapping around midnight.
func FormatClock(minute int) string {
	m := Mod1440(minute)
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// Mod1440 normalises a minute value onto [0, 1440).
func Mod1440(m int) int {
	m %= MinutesPerDay
	if m < 0 {
		m += MinutesPerDay
	}
	return m
}
