package prayer

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
)

// LocationData is the JSON stored in profiles.location_data.
type LocationData struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	City      string   `json:"city"`
	Country   string   `json:"country"`
}

// User converts the stored data into a UserLocation. Location is nil when
// either coordinate is missing or out of range.
func (d LocationData) User(id string) UserLocation {
	u := UserLocation{UserID: id, City: d.City, Country: d.Country}
	if d.Latitude == nil || d.Longitude == nil {
		return u
	}
	lat, lng := *d.Latitude, *d.Longitude
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return u
	}
	p := orb.Point{lng, lat}
	u.Location = &p
	return u
}

// DecodeLocation parses raw location_data JSON for a user. Empty or null
// input yields a user without a location.
func DecodeLocation(id string, raw []byte) (UserLocation, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return UserLocation{UserID: id}, nil
	}
	var d LocationData
	if err := json.Unmarshal(raw, &d); err != nil {
		return UserLocation{UserID: id}, fmt.Errorf("decode location for %s: %w", id, err)
	}
	return d.User(id), nil
}
