package prayer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "04:32", want: 272},
		{in: "04:32 (+03)", want: 272},
		{in: "04:32(WIB)", want: 272},
		{in: "4:05", want: 245},
		{in: "00:00", want: 0},
		{in: "23:59 (EET)", want: 1439},
		{in: "", wantErr: true},
		{in: "0432", wantErr: true},
		{in: "aa:bb", wantErr: true},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "04:32", FormatClock(272))
	assert.Equal(t, "23:55", FormatClock(-5))
	assert.Equal(t, "00:05", FormatClock(1445))
}

func TestMod1440(t *testing.T) {
	assert.Equal(t, 1435, Mod1440(-5))
	assert.Equal(t, 0, Mod1440(1440))
	assert.Equal(t, 10, Mod1440(10))
	assert.Equal(t, 1439, Mod1440(-2881))
}

func TestWindow_DueBand(t *testing.T) {
	w := DefaultWindow
	const prayer = 300 // 05:00

	assert.Equal(t, 290, w.PreAdhan(prayer))
	for now := 290; now <= 295; now++ {
		assert.True(t, w.Due(now, prayer), "now=%d should be due", now)
	}
	assert.False(t, w.Due(289, prayer))
	assert.False(t, w.Due(296, prayer))
	assert.False(t, w.Due(300, prayer))
}

func TestWindow_DayWrap(t *testing.T) {
	w := DefaultWindow
	const prayer = 5 // 00:05

	assert.Equal(t, 1435, w.PreAdhan(prayer))
	for _, now := range []int{1435, 1436, 1439, 0} {
		assert.True(t, w.Due(now, prayer), "now=%d should be due", now)
	}
	assert.Equal(t, 5, w.Offset(0, prayer))
	for _, now := range []int{1434, 1, 5, 720} {
		assert.False(t, w.Due(now, prayer), "now=%d should not be due", now)
	}
}

func TestWindow_OneFiringPerCadence(t *testing.T) {
	// Sweeping the whole day at a one-minute cadence must open each
	// prayer's window exactly Tolerance+1 times, all consecutive.
	w := DefaultWindow
	for _, prayer := range []int{5, 272, 718, 1439} {
		hits := 0
		for now := 0; now < MinutesPerDay; now++ {
			if w.Due(now, prayer) {
				hits++
			}
		}
		assert.Equal(t, w.Tolerance+1, hits, "prayer=%d", prayer)
	}
}

func TestNewWindow(t *testing.T) {
	w := NewWindow(15*time.Minute, 3*time.Minute+30*time.Second)
	assert.Equal(t, Window{Lead: 15, Tolerance: 3}, w)
}

func TestWindow_Evaluate(t *testing.T) {
	timings := jakartaTimings().Timings

	due, errs := DefaultWindow.Evaluate(timings, 265) // 04:25
	require.Empty(t, errs)
	require.Len(t, due, 1)
	assert.Equal(t, DuePrayer{Name: "Fajr", Label: "Subuh", Clock: "04:32", Minute: 272, Offset: 3}, due[0])

	// Imsak and Sunrise never fire even inside their own windows.
	due, _ = DefaultWindow.Evaluate(timings, 5*60+40+2) // 05:42, Sunrise-8
	assert.Empty(t, due)

	due, _ = DefaultWindow.Evaluate(timings, 700)
	assert.Empty(t, due)
}

func TestWindow_Evaluate_BadTimings(t *testing.T) {
	timings := map[string]string{
		"Fajr": "garbage", "Dhuhr": "11:58", "Asr": "15:20", "Maghrib": "18:05",
	}
	due, errs := DefaultWindow.Evaluate(timings, 711)
	require.Len(t, due, 1)
	assert.Equal(t, "Dhuhr", due[0].Name)
	assert.Len(t, errs, 2) // Fajr unparseable, Isha missing
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Subuh", Label("Fajr"))
	assert.Equal(t, "Dzuhur", Label("Dhuhr"))
	assert.Equal(t, "Ashar", Label("Asr"))
	assert.Equal(t, "Maghrib", Label("Maghrib"))
	assert.Equal(t, "Isya", Label("Isha"))
	assert.Equal(t, "Midnight", Label("Midnight"))
}
