package push

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestNewOneSignal_NotConfigured(t *testing.T) {
	assert.Nil(t, NewOneSignal("http://x", "", "key", discard()))
	assert.Nil(t, NewOneSignal("http://x", "app", "", discard()))

	var s *OneSignal
	err := s.Send(context.Background(), Notification{ExternalIDs: []string{"u1"}})
	require.Error(t, err)
}

func TestOneSignal_Send_ExternalIDs(t *testing.T) {
	var got map[string]any
	var auth, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"id":"abc"}`)
	}))
	defer srv.Close()

	s := NewOneSignal(srv.URL, "app-1", "secret", discard())
	err := s.Send(context.Background(), Notification{
		ExternalIDs: []string{"u1", "u2"},
		Heading:     "🕌 Subuh dalam 10 menit",
		Content:     "Waktu Subuh pukul 04:32. Bersiaplah untuk shalat.",
		URL:         "/dashboard",
	})
	require.NoError(t, err)

	assert.Equal(t, "Basic secret", auth)
	assert.Equal(t, "/api/v1/notifications", path)
	assert.Equal(t, "app-1", got["app_id"])
	assert.Equal(t, "push", got["target_channel"])
	assert.Equal(t, map[string]any{"external_id": []any{"u1", "u2"}}, got["include_aliases"])
	assert.Equal(t, map[string]any{"en": "🕌 Subuh dalam 10 menit"}, got["headings"])
	assert.NotContains(t, got, "filters")
}

func TestOneSignal_Send_UserTag(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	s := NewOneSignal(srv.URL, "app-1", "secret", discard())
	require.NoError(t, s.Send(context.Background(), Notification{
		UserTag: "user-9", Heading: "Ramadhan Time", Content: "⏰ Tadarus",
	}))

	filters, ok := got["filters"].([]any)
	require.True(t, ok)
	require.Len(t, filters, 1)
	assert.Equal(t, map[string]any{"field": "tag", "key": "user_id", "relation": "=", "value": "user-9"}, filters[0])
	assert.NotContains(t, got, "include_aliases")
}

func TestOneSignal_Send_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"errors":["invalid app_id"]}`)
	}))
	defer srv.Close()

	s := NewOneSignal(srv.URL, "app-1", "secret", discard())
	err := s.Send(context.Background(), Notification{ExternalIDs: []string{"u1"}})

	osErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, osErr.StatusCode)
	assert.Contains(t, osErr.Body, "invalid app_id")
}

func TestOneSignal_Send_NoRecipients(t *testing.T) {
	s := NewOneSignal("http://unused", "app-1", "secret", discard())
	require.Error(t, s.Send(context.Background(), Notification{Heading: "x"}))
}
