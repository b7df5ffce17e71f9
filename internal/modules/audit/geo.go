// README: Geo helpers for map links and distance derivation.
package audit

import (
	"fmt"
	"math"

	"trafficdesk/internal/types"
)

const earthRadiusKm = 6371.0

// MapLink derives the shareable map URL stored alongside each log entry.
func MapLink(p types.Point) string {
	return fmt.Sprintf("https://maps.google.com/?q=%.6f,%.6f", p.Lat, p.Lng)
}

// ValidPoint rejects NaN/Inf and out-of-range coordinates before anything is
// persisted.
func ValidPoint(p types.Point) bool {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// DistanceKm returns the great-circle distance in kilometres between two
// points specified in decimal degrees.
func DistanceKm(a, b types.Point) float64 {
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	rLat1 := degreesToRadians(a.Lat)
	rLat2 := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
