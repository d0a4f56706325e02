// Package supabase reads the user directory through Supabase's PostgREST
// API, for deployments where the service has no direct database access.
package supabase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/supabase-community/supabase-go"

	"github.com/ramadhantime/notifier/internal/prayer"
)

// Directory lists profiles with location data using the service role key.
type Directory struct {
	client *supabase.Client
}

// NewDirectory creates a PostgREST-backed directory.
func NewDirectory(url, serviceRoleKey string) (*Directory, error) {
	if url == "" || serviceRoleKey == "" {
		return nil, fmt.Errorf("supabase url and service role key are required")
	}
	client, err := supabase.NewClient(url, serviceRoleKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return &Directory{client: client}, nil
}

type profileRow struct {
	ID           string               `json:"id"`
	LocationData *prayer.LocationData `json:"location_data"`
}

// Locations returns every profile whose location_data is not null.
func (d *Directory) Locations(ctx context.Context) ([]prayer.UserLocation, error) {
	data, _, err := d.client.From("profiles").
		Select("id, location_data", "", false).
		Not("location_data", "is", "null").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	return decodeProfiles(data)
}

func decodeProfiles(data []byte) ([]prayer.UserLocation, error) {
	var rows []profileRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}

	users := make([]prayer.UserLocation, 0, len(rows))
	for _, r := range rows {
		if r.LocationData == nil {
			users = append(users, prayer.UserLocation{UserID: r.ID})
			continue
		}
		users = append(users, r.LocationData.User(r.ID))
	}
	return users, nil
}
