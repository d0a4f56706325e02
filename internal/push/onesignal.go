// Package push delivers notifications through the OneSignal REST API.
//
// A Client is built once in main from configuration. When credentials are
// missing NewOneSignal returns nil and callers treat push as not configured.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Notification is one message addressed either to a set of external user
// aliases or to the devices tagged with a single user id.
type Notification struct {
	ExternalIDs []string // include_aliases.external_id
	UserTag     string   // filters: tag user_id = UserTag
	Heading     string
	Content     string
	URL         string
}

// Error is returned when OneSignal answers with a non-2xx status.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("onesignal returned HTTP %d: %s", e.StatusCode, e.Body)
}

// AsError unwraps err into an *Error when possible.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// OneSignal sends notifications for one OneSignal app.
type OneSignal struct {
	httpClient *http.Client
	baseURL    string
	appID      string
	apiKey     string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewOneSignal creates a OneSignal client. Returns nil if appID or apiKey is
// empty (push disabled).
func NewOneSignal(baseURL, appID, apiKey string, logger *slog.Logger) *OneSignal {
	if appID == "" || apiKey == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OneSignal{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
		appID:      appID,
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(rate.Limit(10), 10),
		logger:     logger,
	}
}

type alias struct {
	ExternalID []string `json:"external_id"`
}

type filter struct {
	Field    string `json:"field"`
	Key      string `json:"key"`
	Relation string `json:"relation"`
	Value    string `json:"value"`
}

type request struct {
	AppID          string            `json:"app_id"`
	IncludeAliases *alias            `json:"include_aliases,omitempty"`
	TargetChannel  string            `json:"target_channel,omitempty"`
	Filters        []filter          `json:"filters,omitempty"`
	Headings       map[string]string `json:"headings"`
	Contents       map[string]string `json:"contents"`
	URL            string            `json:"url,omitempty"`
}

// Send issues a single create-notification call. Success or failure is
// reported for the call as a whole, not per recipient.
func (s *OneSignal) Send(ctx context.Context, n Notification) error {
	if s == nil {
		return fmt.Errorf("onesignal not configured")
	}
	if len(n.ExternalIDs) == 0 && n.UserTag == "" {
		return fmt.Errorf("no recipients")
	}

	body := request{
		AppID:    s.appID,
		Headings: map[string]string{"en": n.Heading},
		Contents: map[string]string{"en": n.Content},
		URL:      n.URL,
	}
	if len(n.ExternalIDs) > 0 {
		body.IncludeAliases = &alias{ExternalID: n.ExternalIDs}
		body.TargetChannel = "push"
	} else {
		body.Filters = []filter{{Field: "tag", Key: "user_id", Relation: "=", Value: n.UserTag}}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/api/v1/notifications", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{StatusCode: resp.StatusCode, Body: truncate(respBody, 200)}
	}

	s.logger.Debug("OneSignal notification created",
		"recipients", len(n.ExternalIDs), "tag", n.UserTag, "heading", n.Heading)
	return nil
}

func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
