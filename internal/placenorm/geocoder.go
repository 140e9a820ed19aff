package placenorm

import (
	"context"
	"hash/fnv"

	"github.com/z123guitar/interline/internal/model"
)

// Geocoder resolves a free-text address into coordinates. It is an injected
// capability rather than a hardwired dependency: production wiring supplies
// a real geocoding client, tests supply a deterministic stub.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (model.Coordinates, error)
}

// HashGeocoder is a deterministic, non-geographic fallback geocoder: it
// derives a coordinate pair from the hash of the address string, inside a
// fixed box. It never fails and never contacts an external service — it is
// a known-limitation placeholder, not a real address resolver.
type HashGeocoder struct {
	// CenterLat/CenterLon define the box's center; HalfWidthDeg bounds the
	// box's half-width in degrees on each axis.
	CenterLat, CenterLon float64
	HalfWidthDeg         float64
}

// NewHashGeocoder returns a HashGeocoder centered on the given point.
func NewHashGeocoder(centerLat, centerLon, halfWidthDeg float64) *HashGeocoder {
	return &HashGeocoder{CenterLat: centerLat, CenterLon: centerLon, HalfWidthDeg: halfWidthDeg}
}

// Geocode derives a deterministic coordinate from the address string's
// FNV-1a hash. Equal inputs always produce equal coordinates.
func (g *HashGeocoder) Geocode(ctx context.Context, address string) (model.Coordinates, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(address))
	sum := h.Sum64()

	latFrac := float64(uint32(sum)) / float64(^uint32(0))
	lonFrac := float64(uint32(sum>>32)) / float64(^uint32(0))

	lat := g.CenterLat + (latFrac*2-1)*g.HalfWidthDeg
	lon := g.CenterLon + (lonFrac*2-1)*g.HalfWidthDeg

	return model.Coordinates{Lat: lat, Lon: lon}, nil
}
