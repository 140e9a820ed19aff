// Package geo provides geographic utility functions for the routing core.
//
// Two distance approximations are exposed deliberately: HaversineKm is the
// true great-circle distance, used wherever correctness matters (transfer
// duration/price, the graph's transfer-radius check). ApproxKm is a cheap Euclidean
// approximation in degree-space, used only inside search pruning where
// speed matters more than precision (see routesearch.LowerBound).
package geo

import (
	"math"

	"github.com/z123guitar/interline/internal/model"
)

// ─── Constants ──────────────────────────────────────────────

const (
	// EarthRadiusKm is the mean radius of Earth in kilometers.
	EarthRadiusKm = 6371.0

	// EarthRadiusM is the mean radius of Earth in meters.
	EarthRadiusM = 6_371_000.0

	// DegreeToKm is the rough conversion factor used by ApproxKm: one degree
	// of latitude (and, at low latitudes, longitude) is about 111 km.
	DegreeToKm = 111.0
)

// ─── Distance ───────────────────────────────────────────────

// HaversineKm returns the great-circle distance between two points in kilometers.
//
// Complexity: O(1)
func HaversineKm(a, b model.Coordinates) float64 {
	dLat := degToRad(b.Lat - a.Lat)
	dLon := degToRad(b.Lon - a.Lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	h := sinLat*sinLat +
		math.Cos(degToRad(a.Lat))*math.Cos(degToRad(b.Lat))*sinLon*sinLon

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// HaversineM returns the great-circle distance between two points in meters.
func HaversineM(a, b model.Coordinates) float64 {
	return HaversineKm(a, b) * 1000.0
}

// ApproxKm returns a cheap Euclidean approximation of the distance between
// two points, in kilometers: sqrt(dLat^2 + dLon^2) * 111. It is NOT a valid
// distance at high latitudes or long ranges — it exists only to bound
// search pruning cheaply, never to compute a transfer's real cost or time.
func ApproxKm(a, b model.Coordinates) float64 {
	dLat := b.Lat - a.Lat
	dLon := b.Lon - a.Lon
	return math.Sqrt(dLat*dLat+dLon*dLon) * DegreeToKm
}

func degToRad(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}
