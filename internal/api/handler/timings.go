package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ramadhantime/notifier/internal/api/respond"
	"github.com/ramadhantime/notifier/internal/cache"
	"github.com/ramadhantime/notifier/internal/prayer"
)

// TimingsResponse is a location's daily schedule with the next prayer.
type TimingsResponse struct {
	*prayer.Schedule
	Next            *prayer.ScheduleEntry `json:"next"`
	Countdown       string                `json:"countdown"`
	HijriAdjustment int                   `json:"hijri_adjustment"`
}

// GetTimings returns the prayer schedule for a coordinate.
// @Summary Daily prayer schedule
// @Description Returns Imsak through Isha for the rounded coordinate, each with its pre-adhan reminder time, plus the next prayer and a countdown to it.
// @Tags timings
// @Produce json
// @Param lat query number true "Latitude"
// @Param lng query number true "Longitude"
// @Param date query string false "Date (YYYY-MM-DD), defaults to today in UTC"
// @Success 200 {object} TimingsResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 502 {object} respond.ErrorResponse
// @Router /api/v1/timings [get]
func (h *Handler) GetTimings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
	if errLat != nil || errLng != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		respond.WriteError(w, http.StatusBadRequest, "lat and lng must be valid coordinates")
		return
	}

	now := h.now()
	day := now.UTC()
	if d := q.Get("date"); d != "" {
		parsed, err := time.Parse(time.DateOnly, d)
		if err != nil {
			respond.WriteError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	lat, lng = prayer.Round2(lat), prayer.Round2(lng)
	cacheKey := fmt.Sprintf("timings:%s:%s", prayer.BucketKey(lat, lng), day.Format(time.DateOnly))

	sched, hit, err := h.schedule(r, cacheKey, lat, lng, day)
	if err != nil {
		h.logger.Warn("Timings lookup failed", "key", cacheKey, "error", err)
		status := http.StatusBadGateway
		var tzErr *prayer.TimezoneError
		if errors.As(err, &tzErr) {
			status = http.StatusInternalServerError
		}
		respond.WriteError(w, status, err.Error())
		return
	}

	resp := TimingsResponse{Schedule: sched, Countdown: "00:00:00"}
	if next := sched.Next(now); next != nil {
		resp.Next = next
		resp.Countdown = prayer.Countdown(next.At, now)
	}
	if h.hijri != nil {
		resp.HijriAdjustment = h.hijri.Adjustment(r.Context())
	}

	data, err := json.Marshal(resp)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "encode schedule")
		return
	}
	etag := cache.ComputeETag(data)
	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	respond.WriteJSON(w, data, etag, 0, hit)
}

// schedule returns the cached schedule for key or fetches and caches it.
func (h *Handler) schedule(r *http.Request, key string, lat, lng float64, day time.Time) (*prayer.Schedule, bool, error) {
	if data, _, ok := h.cache.Get(key); ok {
		var s prayer.Schedule
		if err := json.Unmarshal(data, &s); err == nil {
			return &s, true, nil
		}
	}

	tt, err := h.timetable.Timings(r.Context(), lat, lng, day)
	if err != nil {
		return nil, false, fmt.Errorf("fetch timings: %w", err)
	}
	s, err := prayer.BuildSchedule(tt, h.lead)
	if err != nil {
		return nil, false, err
	}
	if data, err := json.Marshal(s); err == nil {
		h.cache.Set(key, data, cache.TTLTimings)
	}
	return s, false, nil
}
