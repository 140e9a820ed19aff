package routesearch

import (
	"github.com/z123guitar/interline/internal/graphassembly"
	"github.com/z123guitar/interline/internal/model"
	"github.com/z123guitar/interline/pkg/geo"
)

// fastestAdmissibleKmh approximates the fastest admissible mode for the
// lower bound: no real leg is ever faster than this, so the bound never
// overestimates the remaining optimal cost.
const fastestAdmissibleKmh = 700.0

// CostParams holds every generalized-cost tunable of a single search.
type CostParams struct {
	TimeValuePerHour float64
	TransferPenalty  float64
	RiskPenalty      float64
	MaxDetourFactor  float64
}

// DefaultCostParams returns the spec's default cost parameters.
func DefaultCostParams() CostParams {
	return CostParams{
		TimeValuePerHour: 20,
		TransferPenalty:  6,
		RiskPenalty:      0,
		MaxDetourFactor:  2.2,
	}
}

// StepCost is the result of extending a partial path by one arc.
type StepCost struct {
	NewGenCost   float64
	NewTransfers int
}

// EvaluateStep computes the incremental generalized cost of boarding arc
// from a state with genCostSoFar/transfersSoFar.
func EvaluateStep(p CostParams, genCostSoFar float64, transfersSoFar int, arc graphassembly.Arc) StepCost {
	durationMin := arc.Offer.DurationMinutes()
	cash := arc.Offer.PriceTotal
	isTransfer := arc.Edge.IsTransfer

	transferCost := 0.0
	if isTransfer {
		transferCost = p.TransferPenalty
	}

	newGenCost := genCostSoFar + cash + p.TimeValuePerHour*(durationMin/60) + transferCost + p.RiskPenalty

	newTransfers := transfersSoFar
	if isTransfer {
		newTransfers++
	}

	return StepCost{NewGenCost: newGenCost, NewTransfers: newTransfers}
}

// LowerBound returns an admissible lower bound on the remaining generalized
// cost from node u to destination d, given the approximate distance between
// them. It must never exceed the true remaining optimal cost.
func LowerBound(p CostParams, uCoords, dCoords model.Coordinates) float64 {
	distKm := geo.ApproxKm(uCoords, dCoords)
	hours := distKm / fastestAdmissibleKmh
	return p.TimeValuePerHour * hours
}

// ShouldPrune applies the three-part prune predicate: a new state is pruned
// if any of the three conditions holds.
//
//  1. newGenCost >= bestCost (bestCost known, i.e. hasBest).
//  2. newGenCost + LB(nextNode, dest) >= bestCost (bestCost known).
//  3. Detour: distSoFar > maxDetourFactor * directDistance.
func ShouldPrune(p CostParams, newGenCost float64, hasBest bool, bestCost float64, lb float64, distSoFarKm, directDistanceKm float64) bool {
	if hasBest {
		if newGenCost >= bestCost {
			return true
		}
		if newGenCost+lb >= bestCost {
			return true
		}
	}
	if directDistanceKm > 0 && distSoFarKm > p.MaxDetourFactor*directDistanceKm {
		return true
	}
	return false
}
