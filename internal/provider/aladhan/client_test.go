package aladhan

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okBody = `{
  "code": 200,
  "status": "OK",
  "data": {
    "timings": {
      "Fajr": "04:32 (+03)", "Sunrise": "05:50", "Dhuhr": "11:58",
      "Asr": "15:20", "Sunset": "18:05", "Maghrib": "18:05",
      "Isha": "19:20", "Imsak": "04:22", "Midnight": "23:58"
    },
    "date": {
      "readable": "01 Mar 2026",
      "gregorian": {"date": "01-03-2026"},
      "hijri": {"date": "12-09-1447", "day": "12", "month": {"number": 9, "en": "Ramaḍān"}, "year": "1447"}
    },
    "meta": {"latitude": -6.2, "longitude": 106.8, "timezone": "Asia/Jakarta", "method": {"id": 11, "name": "KEMENAG"}}
  }
}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClient_Timings_Success(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, okBody)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0, 600, testLogger())
	date := time.Date(2026, 3, 1, 21, 0, 0, 0, time.UTC)

	tt, err := c.Timings(context.Background(), -6.2, 106.8, date)
	require.NoError(t, err)

	assert.Equal(t, "/v1/timings/1-3-2026", gotPath)
	assert.Contains(t, gotQuery, "method=11")
	assert.Contains(t, gotQuery, "latitude=-6.2")
	assert.Contains(t, gotQuery, "longitude=106.8")

	assert.Equal(t, "04:32 (+03)", tt.Timings[Fajr])
	assert.Equal(t, "Asia/Jakarta", tt.Timezone)
	assert.Equal(t, "12 Ramaḍān 1447", tt.HijriDate())
	assert.Equal(t, 11, tt.Method)
}

func TestClient_Timings_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, "upstream down")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 11, 600, testLogger())
	_, err := c.Timings(context.Background(), 1, 2, time.Now())
	require.Error(t, err)

	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, "upstream down", apiErr.Body)
}

func TestClient_Timings_BodyCodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"code":400,"status":"BAD_REQUEST","data":"Please specify a valid latitude"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 11, 600, testLogger())
	_, err := c.Timings(context.Background(), 999, 2, time.Now())

	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, apiErr.StatusCode)
	assert.Equal(t, 400, apiErr.Code)
}

func TestClient_Timings_DefaultsTimezone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"code":200,"status":"OK","data":{"timings":{"Fajr":"05:00"},"meta":{"timezone":""}}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 11, 600, testLogger())
	tt, err := c.Timings(context.Background(), 0, 0, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "UTC", tt.Timezone)

	loc, err := tt.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "9-12-2026", FormatDate(time.Date(2026, 12, 9, 0, 0, 0, 0, time.UTC)))
}
