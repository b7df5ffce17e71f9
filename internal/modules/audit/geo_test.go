// README: Pure tests for map link and coordinate validation helpers.
package audit

import (
	"math"
	"testing"

	"trafficdesk/internal/types"
)

func TestMapLink(t *testing.T) {
	got := MapLink(types.Point{Lat: 30.0, Lng: 31.2})
	want := "https://maps.google.com/?q=30.000000,31.200000"
	if got != want {
		t.Fatalf("MapLink = %q, want %q", got, want)
	}
}

func TestValidPoint(t *testing.T) {
	cases := []struct {
		name string
		p    types.Point
		want bool
	}{
		{"cairo", types.Point{Lat: 30.0444, Lng: 31.2357}, true},
		{"equator origin", types.Point{Lat: 0, Lng: 0}, true},
		{"lat bound", types.Point{Lat: 90, Lng: 180}, true},
		{"nan lat", types.Point{Lat: math.NaN(), Lng: 31}, false},
		{"inf lng", types.Point{Lat: 30, Lng: math.Inf(1)}, false},
		{"lat out of range", types.Point{Lat: 91, Lng: 0}, false},
		{"lng out of range", types.Point{Lat: 0, Lng: -181}, false},
	}
	for _, tc := range cases {
		if got := ValidPoint(tc.p); got != tc.want {
			t.Errorf("%s: ValidPoint = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestHaversineKm(t *testing.T) {
	// Cairo airport to downtown Cairo is roughly 15 km.
	apt := types.Point{Lat: 30.1219, Lng: 31.4056}
	town := types.Point{Lat: 30.0444, Lng: 31.2357}
	d := DistanceKm(apt, town)
	if d < 13 || d > 20 {
		t.Fatalf("unexpected distance %f km", d)
	}
	if DistanceKm(apt, apt) != 0 {
		t.Fatal("distance to self should be zero")
	}
}
