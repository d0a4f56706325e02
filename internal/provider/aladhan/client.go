// Package aladhan provides the HTTP client for the Aladhan prayer times API.
//
// A timings lookup is keyed by date, latitude, longitude and calculation
// method. The API reports failures twice: as an HTTP status and as a `code`
// field inside the JSON body, and both are checked.
package aladhan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// DefaultMethod is the calculation method used for every lookup (KEMENAG).
const DefaultMethod = 11

// Client is the HTTP client for Aladhan endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	method     int
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates an Aladhan HTTP client with rate limiting.
func NewClient(baseURL string, method, requestsPerMinute int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if method <= 0 {
		method = DefaultMethod
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	rps := float64(requestsPerMinute) / 60.0
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
		method:     method,
		limiter:    rate.NewLimiter(rate.Limit(rps), 5),
		logger:     logger,
	}
}

// Method returns the calculation method sent with every request.
func (c *Client) Method() int { return c.method }

// Error is returned when Aladhan answers with a non-success HTTP status or a
// non-200 code in the response body.
type Error struct {
	StatusCode int    // HTTP status
	Code       int    // body "code" field, zero when the body was not decoded
	Body       string // truncated response body
}

func (e *Error) Error() string {
	if e.StatusCode != http.StatusOK {
		return fmt.Sprintf("aladhan returned HTTP %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("aladhan returned code %d: %s", e.Code, e.Body)
}

// AsError unwraps err into an *Error when possible.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// envelope is the common Aladhan response wrapper. Data is a string message
// when code is not 200, so it is decoded lazily.
type envelope struct {
	Code   int             `json:"code"`
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type timingsData struct {
	Timings map[string]string `json:"timings"`
	Date    struct {
		Readable  string `json:"readable"`
		Timestamp string `json:"timestamp"`
		Gregorian struct {
			Date string `json:"date"`
		} `json:"gregorian"`
		Hijri struct {
			Date  string `json:"date"`
			Day   string `json:"day"`
			Month struct {
				Number int    `json:"number"`
				En     string `json:"en"`
				Ar     string `json:"ar"`
			} `json:"month"`
			Year string `json:"year"`
		} `json:"hijri"`
	} `json:"date"`
	Meta struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Timezone  string  `json:"timezone"`
		Method    struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		} `json:"method"`
	} `json:"meta"`
}

// Timings fetches the prayer timetable for a location on the calendar date
// of `date` (taken as-is, callers pick the zone).
func (c *Client) Timings(ctx context.Context, lat, lng float64, date time.Time) (*Timetable, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("method", strconv.Itoa(c.method))

	path := "/v1/timings/" + FormatDate(date)
	u := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{StatusCode: resp.StatusCode, Body: truncate(body, 200)}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if env.Code != http.StatusOK {
		return nil, &Error{StatusCode: resp.StatusCode, Code: env.Code, Body: truncate(env.Data, 200)}
	}

	var data timingsData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("decode timings: %w", err)
	}

	tz := data.Meta.Timezone
	if tz == "" {
		tz = "UTC"
	}

	c.logger.Debug("Aladhan timings fetched",
		"lat", lat, "lng", lng, "date", FormatDate(date), "timezone", tz)

	return &Timetable{
		Timings:       data.Timings,
		Timezone:      tz,
		GregorianDate: data.Date.Gregorian.Date,
		HijriDay:      data.Date.Hijri.Day,
		HijriMonth:    data.Date.Hijri.Month.En,
		HijriYear:     data.Date.Hijri.Year,
		Method:        data.Meta.Method.ID,
	}, nil
}

// FormatDate renders the DD-MM-YYYY path segment Aladhan expects.
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%d-%d-%d", t.Day(), int(t.Month()), t.Year())
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
