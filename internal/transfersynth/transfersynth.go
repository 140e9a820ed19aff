// Package transfersynth synthesizes first/last-mile transfer legs (walk,
// rideshare, shuttle) between any two location nodes close enough to be
// worth connecting directly, rather than relying solely on persisted
// structural edges. Synthesized pairs are unpersisted: they exist only for
// the duration of a single search.
package transfersynth

import (
	"math"
	"time"

	"github.com/z123guitar/interline/internal/model"
	"github.com/z123guitar/interline/pkg/geo"
)

// sentinelValidityHrs is the "sentinel-large" validity window used for walk
// transfers, which never meaningfully expire within a search.
const sentinelValidityHrs = 8760 // one year

// RideshareModel holds the deterministic pricing parameters for synthesized
// rideshare transfers, configurable the same way the teacher's FareConfig
// is configurable and defaulted via a Default constructor.
type RideshareModel struct {
	BaseFare    float64 // flat component, e.g. 3.00
	PerKm       float64 // price per kilometer
	PerMin      float64 // price per minute
	AvgSpeedKmh float64 // assumed average speed for duration estimate
	SurgeCoeff  float64 // multiplier applied to the whole fare
}

// DefaultRideshareModel returns the spec's default rideshare parameters.
func DefaultRideshareModel() RideshareModel {
	return RideshareModel{
		BaseFare:    3.00,
		PerKm:       1.25,
		PerMin:      0.25,
		AvgSpeedKmh: 35,
		SurgeCoeff:  1.0,
	}
}

// ShuttleModel holds the flat-price template parameters for synthesized
// shuttle transfers.
type ShuttleModel struct {
	AvgSpeedKmh float64 // assumed average speed for duration estimate
	FlatPrice   float64 // flat fare regardless of distance
}

// DefaultShuttleModel returns the spec's default shuttle parameters.
func DefaultShuttleModel() ShuttleModel {
	return ShuttleModel{
		AvgSpeedKmh: 25,
		FlatPrice:   12.00,
	}
}

// TransferPair is a synthesized structural edge paired with its single
// synthetic offer, ready to be appended to a graphassembly adjacency entry.
type TransferPair struct {
	Edge  model.EdgeLeg
	Offer model.Offer
}

// Synthesizer produces synthesized transfer pairs between two nodes using
// the configured rideshare and shuttle models.
type Synthesizer struct {
	Rideshare RideshareModel
	Shuttle   ShuttleModel
}

// NewSynthesizer returns a Synthesizer with the spec's default models.
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{
		Rideshare: DefaultRideshareModel(),
		Shuttle:   DefaultShuttleModel(),
	}
}

// SynthesizeAll returns the walk, rideshare, and shuttle transfer pairs from
// node a to node b, generated as of now.
func (s *Synthesizer) SynthesizeAll(a, b model.LocationNode, now time.Time) []TransferPair {
	return []TransferPair{
		s.Walk(a, b, now),
		s.RideshareTransfer(a, b, now),
		s.ShuttleTransfer(a, b, now),
	}
}

// Walk synthesizes a walking transfer from a to b.
func (s *Synthesizer) Walk(a, b model.LocationNode, now time.Time) TransferPair {
	distanceKm := geo.HaversineKm(a.Coords, b.Coords)
	durationMin := maxInt(3, roundHalfUp(distanceKm/5*60))
	coLocated := distanceKm < 0.3

	edge := model.EdgeLeg{
		FromNodeID:  a.ID,
		ToNodeID:    b.ID,
		Mode:        model.ModeWalk,
		IsTransfer:  true,
		DistanceKm:  &distanceKm,
		DurationMin: durationMin,
		CoLocated:   coLocated,
		Structure:   model.StructureDynamicTemplate,
		CreatedAt:   now,
	}
	offer := model.Offer{
		DepartureUTC: now,
		ArrivalUTC:   now.Add(time.Duration(durationMin) * time.Minute),
		PriceTotal:   0,
		Currency:     "USD",
		SourceType:   model.SourceManualStatic,
		Provider:     "transfersynth",
		IsStatic:     true,
		RetrievedAt:  now,
		TTLHours:     sentinelValidityHrs,
		Active:       true,
	}
	return TransferPair{Edge: edge, Offer: offer}
}

// RideshareTransfer synthesizes a rideshare transfer from a to b.
func (s *Synthesizer) RideshareTransfer(a, b model.LocationNode, now time.Time) TransferPair {
	distanceKm := geo.HaversineKm(a.Coords, b.Coords)
	durationMin := maxInt(5, roundHalfUp(distanceKm/s.Rideshare.AvgSpeedKmh*60))

	price := (s.Rideshare.BaseFare + s.Rideshare.PerKm*distanceKm + s.Rideshare.PerMin*float64(durationMin)) * s.Rideshare.SurgeCoeff
	price = math.Round(price*100) / 100

	edge := model.EdgeLeg{
		FromNodeID:  a.ID,
		ToNodeID:    b.ID,
		Mode:        model.ModeRideshare,
		IsTransfer:  true,
		DistanceKm:  &distanceKm,
		DurationMin: durationMin,
		CoLocated:   false,
		Structure:   model.StructureDynamicTemplate,
		CreatedAt:   now,
	}
	offer := model.Offer{
		DepartureUTC: now,
		ArrivalUTC:   now.Add(time.Duration(durationMin) * time.Minute),
		PriceTotal:   price,
		Currency:     "USD",
		SourceType:   model.SourceEstimatedModel,
		Provider:     "transfersynth",
		IsStatic:     false,
		RetrievedAt:  now,
		TTLHours:     1,
		Active:       true,
	}
	return TransferPair{Edge: edge, Offer: offer}
}

// ShuttleTransfer synthesizes a flat-price shuttle transfer from a to b.
func (s *Synthesizer) ShuttleTransfer(a, b model.LocationNode, now time.Time) TransferPair {
	distanceKm := geo.HaversineKm(a.Coords, b.Coords)
	durationMin := roundHalfUp(distanceKm / s.Shuttle.AvgSpeedKmh * 60)

	edge := model.EdgeLeg{
		FromNodeID:  a.ID,
		ToNodeID:    b.ID,
		Mode:        model.ModeShuttle,
		IsTransfer:  true,
		DistanceKm:  &distanceKm,
		DurationMin: durationMin,
		CoLocated:   false,
		Structure:   model.StructureDynamicTemplate,
		CreatedAt:   now,
	}
	offer := model.Offer{
		DepartureUTC: now,
		ArrivalUTC:   now.Add(time.Duration(durationMin) * time.Minute),
		PriceTotal:   s.Shuttle.FlatPrice,
		Currency:     "USD",
		SourceType:   model.SourceManualStatic,
		Provider:     "transfersynth",
		IsStatic:     true,
		RetrievedAt:  now,
		TTLHours:     24,
		Active:       true,
	}
	return TransferPair{Edge: edge, Offer: offer}
}

func roundHalfUp(f float64) int {
	return int(math.Round(f))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
