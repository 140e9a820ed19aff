// Package routesearch implements the generalized-cost evaluator (C5) and
// the best-first branch-and-bound search engine (C6).
package routesearch

import (
	"container/heap"
	"log"
	"time"

	"github.com/z123guitar/interline/internal/graphassembly"
	"github.com/z123guitar/interline/internal/model"
	"github.com/z123guitar/interline/internal/placenorm"
	"github.com/z123guitar/interline/pkg/geo"
)

// engine holds all mutable search state for a single run. A dedicated
// struct is used instead of closures to keep dependencies explicit,
// testing simpler, and hot-path state predictable.
type engine struct {
	graph      *graphassembly.Graph
	cost       CostParams
	nodeCoords map[int64]model.Coordinates
	destSpec   placenorm.PlaceSpec
	destCoords []model.Coordinates

	maxExpansions int
	useDeadline   bool
	deadline      time.Time
	expansions    int

	frontier        frontierHeap
	dominance       map[dominanceKey]float64
	nextInsertOrder int

	bestState *searchState
	bestCost  float64
	hasBest   bool
}

// budgetExceeded reports whether the expansion or wall-clock budget has run
// out. maxExpansions<=0 or a zero/negative timeout budget are treated as
// already-exhausted, so the search never pops a single state.
func (e *engine) budgetExceeded() bool {
	if e.maxExpansions <= 0 {
		return true
	}
	if e.expansions >= e.maxExpansions {
		return true
	}
	if !e.useDeadline {
		return true
	}
	return time.Now().After(e.deadline)
}

// lowerBoundFromNode returns the admissible lower bound from nodeID to the
// nearest destination node — the weakest (safest) bound across every node
// in the destination set.
func (e *engine) lowerBoundFromNode(nodeID int64) float64 {
	uCoords, ok := e.nodeCoords[nodeID]
	if !ok || len(e.destCoords) == 0 {
		return 0
	}
	best := LowerBound(e.cost, uCoords, e.destCoords[0])
	for _, d := range e.destCoords[1:] {
		if lb := LowerBound(e.cost, uCoords, d); lb < best {
			best = lb
		}
	}
	return best
}

func (e *engine) push(s *searchState) {
	s.insertOrder = e.nextInsertOrder
	e.nextInsertOrder++
	heap.Push(&e.frontier, s)
}

func (e *engine) pop() *searchState {
	return heap.Pop(&e.frontier).(*searchState)
}

// effectiveTimes re-anchors a synthesized or static offer's departure to the
// current frontier-arrival time at the boarding node, per the synthesizer's
// contract that such offers are "available to board at the current
// frontier-arrival time" rather than at their recorded wall-clock
// departure. Regular scheduled offers keep their own timestamps.
func effectiveTimes(arrivalAtBoarding time.Time, arc graphassembly.Arc) (time.Time, time.Time) {
	if arc.Edge.Structure == model.StructureDynamicTemplate || arc.Offer.IsStatic {
		duration := arc.Offer.ArrivalUTC.Sub(arc.Offer.DepartureUTC)
		return arrivalAtBoarding, arrivalAtBoarding.Add(duration)
	}
	return arc.Offer.DepartureUTC, arc.Offer.ArrivalUTC
}

// run executes the best-first branch-and-bound search and returns the
// terminal status plus the best state found, if any.
func (e *engine) run() (model.SearchStatus, *searchState) {
	for len(e.frontier) > 0 {
		if e.budgetExceeded() {
			return model.StatusTimeBudgetExhausted, e.bestState
		}

		s := e.pop()
		e.expansions++

		if e.destSpec.Matches(s.nodeID) {
			if !e.hasBest || s.genCost < e.bestCost {
				e.bestState = s
				e.bestCost = s.genCost
				e.hasBest = true
			}
			if len(e.frontier) == 0 {
				return model.StatusOK, e.bestState
			}
			f := e.frontier[0]
			if f.genCost+e.lowerBoundFromNode(f.nodeID) >= e.bestCost {
				return model.StatusOK, e.bestState
			}
			continue
		}

		for _, arc := range e.graph.Arcs(s.nodeID) {
			step := EvaluateStep(e.cost, s.genCost, s.transfers, arc)

			fromCoords, fromOK := e.nodeCoords[arc.Edge.FromNodeID]
			toCoords, toOK := e.nodeCoords[arc.Edge.ToNodeID]
			legDistKm := 0.0
			if fromOK && toOK {
				legDistKm = geo.ApproxKm(fromCoords, toCoords)
			}
			newDistSoFar := s.distSoFarKm + legDistKm

			lb := e.lowerBoundFromNode(arc.Edge.ToNodeID)
			if ShouldPrune(e.cost, step.NewGenCost, e.hasBest, e.bestCost, lb, newDistSoFar, s.directDistanceKm) {
				continue
			}

			_, effArr := effectiveTimes(s.arrivalUTC, arc)

			key := dominanceKey{nodeID: arc.Edge.ToNodeID, bucket: arrivalBucket(effArr)}
			if prior, ok := e.dominance[key]; ok && prior <= step.NewGenCost {
				continue
			}
			e.dominance[key] = step.NewGenCost

			newPath := make([]graphassembly.Arc, len(s.path)+1)
			copy(newPath, s.path)
			newPath[len(s.path)] = arc

			e.push(&searchState{
				nodeID:           arc.Edge.ToNodeID,
				arrivalUTC:       effArr,
				genCost:          step.NewGenCost,
				transfers:        step.NewTransfers,
				distSoFarKm:      newDistSoFar,
				directDistanceKm: s.directDistanceKm,
				path:             newPath,
			})
		}
	}

	if e.hasBest {
		return model.StatusOK, e.bestState
	}
	return model.StatusNoFeasibleRoute, nil
}

// Search runs a single best-first branch-and-bound search from origin to
// dest over graph, using params, and returns the resulting ItineraryBundle.
func Search(graph *graphassembly.Graph, origin, dest placenorm.PlaceSpec, params SearchParams) (model.ItineraryBundle, error) {
	started := params.Now

	nodeCoords := make(map[int64]model.Coordinates, len(graph.Nodes)+len(origin.Nodes)+len(dest.Nodes))
	for id, n := range graph.Nodes {
		nodeCoords[id] = n.Coords
	}
	for _, n := range origin.Nodes {
		nodeCoords[n.ID] = n.Coords
	}
	for _, n := range dest.Nodes {
		nodeCoords[n.ID] = n.Coords
	}

	destCoords := make([]model.Coordinates, 0, len(dest.Nodes))
	for _, n := range dest.Nodes {
		destCoords = append(destCoords, n.Coords)
	}

	e := &engine{
		graph:         graph,
		cost:          params.Cost,
		nodeCoords:    nodeCoords,
		destSpec:      dest,
		destCoords:    destCoords,
		maxExpansions: params.MaxExpansions,
		dominance:     make(map[dominanceKey]float64),
	}
	if params.TimeoutMs > 0 {
		e.useDeadline = true
		e.deadline = time.Now().Add(time.Duration(params.TimeoutMs) * time.Millisecond)
	}

	for _, n := range origin.Nodes {
		directDistanceKm := 0.0
		if len(destCoords) > 0 {
			directDistanceKm = geo.ApproxKm(n.Coords, destCoords[0])
			for _, d := range destCoords[1:] {
				if alt := geo.ApproxKm(n.Coords, d); alt < directDistanceKm {
					directDistanceKm = alt
				}
			}
		}
		e.push(&searchState{
			nodeID:           n.ID,
			arrivalUTC:       started,
			genCost:          0,
			transfers:        0,
			distSoFarKm:      0,
			directDistanceKm: directDistanceKm,
			path:             nil,
		})
	}

	log.Printf("[search] starting: %d origin nodes, %d dest nodes, maxExpansions=%d timeoutMs=%d",
		len(origin.Nodes), len(dest.Nodes), params.MaxExpansions, params.TimeoutMs)

	status, best := e.run()

	log.Printf("[search] finished: status=%s expansions=%d", status, e.expansions)

	bundle := model.ItineraryBundle{
		OriginSpecRaw: origin.RawText,
		DestSpecRaw:   dest.RawText,
		SearchStatus:  status,
		StartedAtUTC:  started,
		FinishedAtUTC: time.Now().UTC(),
		SearchParamsJSON: map[string]any{
			"maxExpansions":               params.MaxExpansions,
			"timeoutMs":                   params.TimeoutMs,
			"timeValuePerHour":            params.Cost.TimeValuePerHour,
			"transferPenalty":             params.Cost.TransferPenalty,
			"maxDetourFactor":             params.Cost.MaxDetourFactor,
			"riskPenalty":                 params.Cost.RiskPenalty,
			"originAmbiguousCandidateIDs": origin.AmbiguousCandidateIDs,
			"destAmbiguousCandidateIDs":   dest.AmbiguousCandidateIDs,
		},
		TimeValuePerHour: params.Cost.TimeValuePerHour,
		TransferPenalty:  params.Cost.TransferPenalty,
		RiskPenalty:      params.Cost.RiskPenalty,
	}

	if best == nil {
		return bundle, nil
	}

	if len(origin.Nodes) > 0 {
		bundle.OriginNodeID = origin.Nodes[0].ID
	}
	bundle.DestNodeID = best.nodeID
	bundle.GeneralizedCost = best.genCost
	bundle.NumTransfers = best.transfers

	var priceTotal, durationMin float64
	legs := make([]model.ItineraryLeg, 0, len(best.path))
	for _, arc := range best.path {
		priceTotal += arc.Offer.PriceTotal
		durationMin += arc.Offer.DurationMinutes()
		legs = append(legs, model.ItineraryLeg{
			Edge:       arc.Edge,
			Offer:      arc.Offer,
			FromCoords: nodeCoords[arc.Edge.FromNodeID],
			ToCoords:   nodeCoords[arc.Edge.ToNodeID],
		})
		bundle.MainMode = arc.Edge.Mode
	}
	bundle.Legs = legs
	bundle.PriceTotal = priceTotal
	bundle.DurationMin = durationMin

	return bundle, nil
}
