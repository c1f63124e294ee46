// Package geo implements the great-circle proximity check used to accept
// or reject attendance scans. Inputs are not validated: out-of-range or
// antipodal coordinates produce whatever the haversine formula yields.
// Request payloads are bounds-checked at the HTTP layer instead.
package geo

import "math"

const earthRadiusMeters = 6371e3

type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Distance returns the haversine distance between a and b in meters.
func Distance(a, b Point) float64 {
	lat1 := radians(a.Latitude)
	lat2 := radians(b.Latitude)
	dLat := radians(b.Latitude - a.Latitude)
	dLon := radians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// WithinRadius reports whether a and b are at most radiusMeters apart.
func WithinRadius(a, b Point, radiusMeters float64) bool {
	return Distance(a, b) <= radiusMeters
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
