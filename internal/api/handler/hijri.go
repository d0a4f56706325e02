package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ramadhantime/notifier/internal/api/respond"
	"github.com/ramadhantime/notifier/internal/cache"
	"github.com/ramadhantime/notifier/internal/hijri"
)

// AdjustmentResponse carries the hijri date adjustment in days.
type AdjustmentResponse struct {
	Adjustment int    `json:"adjustment"`
	Message    string `json:"message,omitempty"`
}

// AdjustmentRequest is the body of POST /api/hijri-offset. Adjustment may be
// a JSON number or numeric string.
type AdjustmentRequest struct {
	Adjustment json.RawMessage `json:"adjustment"`
}

var errBadAdjustment = fmt.Sprintf("Adjustment must be between %d and %d", hijri.MinAdjustment, hijri.MaxAdjustment)

// GetHijriOffset returns the current adjustment, 0 when unset.
// @Summary Get hijri adjustment
// @Description Returns the operator-set hijri date adjustment in days. Never fails; unreadable settings read as 0.
// @Tags settings
// @Produce json
// @Success 200 {object} AdjustmentResponse
// @Success 304 "Not Modified"
// @Router /api/hijri-offset [get]
func (h *Handler) GetHijriOffset(w http.ResponseWriter, r *http.Request) {
	data, _ := json.Marshal(AdjustmentResponse{Adjustment: h.hijri.Adjustment(r.Context())})
	etag := cache.ComputeETag(data)
	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	respond.WriteJSON(w, data, etag, 0, false)
}

// PostHijriOffset updates the adjustment.
// @Summary Set hijri adjustment
// @Description Stores a new hijri date adjustment in [-2, 2]. Bearer token only.
// @Tags settings
// @Accept json
// @Produce json
// @Security CronSecret
// @Param body body AdjustmentRequest true "New adjustment"
// @Success 200 {object} AdjustmentResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 401 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /api/hijri-offset [post]
func (h *Handler) PostHijriOffset(w http.ResponseWriter, r *http.Request) {
	var req AdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	n, ok := parseAdjustment(req.Adjustment)
	if !ok {
		respond.WriteError(w, http.StatusBadRequest, errBadAdjustment)
		return
	}

	if err := h.hijri.SetAdjustment(r.Context(), n); err != nil {
		if errors.Is(err, hijri.ErrOutOfRange) {
			respond.WriteError(w, http.StatusBadRequest, errBadAdjustment)
			return
		}
		h.logger.Error("Failed to store hijri adjustment", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respond.WriteJSONObject(w, http.StatusOK, AdjustmentResponse{Adjustment: n, Message: "Updated"})
}

// parseAdjustment accepts an integral number or a string holding one.
func parseAdjustment(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		raw = json.RawMessage(s)
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}
