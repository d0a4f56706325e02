package prayer

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Bucket is a set of users whose coordinates round to the same two-decimal
// cell. Timetables are fetched once per bucket.
type Bucket struct {
	Key            string
	Lat, Lng       float64   // rounded
	Representative orb.Point // first member's exact coordinates
	UserIDs        []string
	Spread         float64 // max distance in metres from Representative
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0 // drop negative zero
	}
	return r
}

// BucketKey formats the grouping key for a coordinate pair.
func BucketKey(lat, lng float64) string {
	return fmt.Sprintf("%.2f,%.2f", Round2(lat), Round2(lng))
}

// GroupByLocation partitions users into buckets ordered by first
// appearance. Users without a location are skipped.
func GroupByLocation(users []UserLocation) []*Bucket {
	var buckets []*Bucket
	index := make(map[string]*Bucket)

	for _, u := range users {
		if u.Location == nil {
			continue
		}
		p := *u.Location
		key := BucketKey(p.Lat(), p.Lon())

		b, ok := index[key]
		if !ok {
			b = &Bucket{
				Key:            key,
				Lat:            Round2(p.Lat()),
				Lng:            Round2(p.Lon()),
				Representative: p,
			}
			index[key] = b
			buckets = append(buckets, b)
		}
		b.UserIDs = append(b.UserIDs, u.UserID)
		if d := geo.Distance(b.Representative, p); d > b.Spread {
			b.Spread = d
		}
	}
	return buckets
}
