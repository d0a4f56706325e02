package handler

import (
	"errors"
	"net/http"

	"github.com/ramadhantime/notifier/internal/api/respond"
	"github.com/ramadhantime/notifier/internal/prayer"
)

// isoMillis matches the JavaScript toISOString layout callers expect.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// CountResponse is returned when a job had nothing to report.
type CountResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// RunResponse is returned after a prayer run that processed users.
type RunResponse struct {
	Message   string   `json:"message"`
	Details   []string `json:"details"`
	Timestamp string   `json:"timestamp"`
	Count     int      `json:"count"`
}

// PrayerNotify runs one prayer reminder pass.
// @Summary Run prayer reminders
// @Description Sends pre-adhan reminders to every user whose next prayer is due. Authorized by bearer token or the platform cron header.
// @Tags cron
// @Produce json
// @Security CronSecret
// @Success 200 {object} RunResponse
// @Failure 401 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /api/cron/prayer-notify [get]
func (h *Handler) PrayerNotify(w http.ResponseWriter, r *http.Request) {
	res, err := h.prayer.Run(r.Context())
	if err != nil {
		h.logger.Error("Prayer notify run failed", "error", err)
		msg := err.Error()
		if errors.Is(err, prayer.ErrNotConfigured) {
			msg = prayer.ErrNotConfigured.Error()
		}
		respond.WriteError(w, http.StatusInternalServerError, msg)
		return
	}

	if res.Skipped || res.Users == 0 {
		respond.WriteJSONObject(w, http.StatusOK, CountResponse{Message: res.Message(), Count: 0})
		return
	}

	details := res.Details
	if details == nil {
		details = []string{}
	}
	respond.WriteJSONObject(w, http.StatusOK, RunResponse{
		Message:   res.Message(),
		Details:   details,
		Timestamp: res.Timestamp.UTC().Format(isoMillis),
		Count:     res.TotalSent,
	})
}

// AgendaNotify runs one agenda reminder pass.
// @Summary Run agenda reminders
// @Description Sends reminders for agenda items whose target time fell in the last minute. Bearer token only.
// @Tags cron
// @Produce json
// @Security CronSecret
// @Success 200 {object} CountResponse
// @Failure 401 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /api/cron/notify [get]
func (h *Handler) AgendaNotify(w http.ResponseWriter, r *http.Request) {
	res, err := h.agenda.Run(r.Context())
	if err != nil {
		h.logger.Error("Agenda notify run failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, CountResponse{Message: res.Message, Count: res.Sent})
}
