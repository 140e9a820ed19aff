package routesearch

import (
	"testing"
	"time"

	"github.com/z123guitar/interline/internal/graphassembly"
	"github.com/z123guitar/interline/internal/model"
	"github.com/z123guitar/interline/internal/placenorm"
)

func node(id int64, lat, lon float64) model.LocationNode {
	return model.LocationNode{ID: id, Coords: model.Coordinates{Lat: lat, Lon: lon}}
}

func spec(nodes ...model.LocationNode) placenorm.PlaceSpec {
	return placenorm.PlaceSpec{Nodes: nodes}
}

func scheduledArc(from, to int64, mode model.Mode, isTransfer bool, dep, arr time.Time, price float64) graphassembly.Arc {
	return graphassembly.Arc{
		Edge: model.EdgeLeg{
			FromNodeID: from, ToNodeID: to, Mode: mode, IsTransfer: isTransfer,
			Structure: model.StructureStatic,
		},
		Offer: model.Offer{DepartureUTC: dep, ArrivalUTC: arr, PriceTotal: price},
	}
}

// Scenario 1: direct-flight only.
func TestSearch_DirectFlightOnly(t *testing.T) {
	now := time.Date(2025, 11, 15, 8, 0, 0, 0, time.UTC)
	a := node(1, 0, 0)
	b := node(2, 0, 1)

	dep := time.Date(2025, 11, 15, 8, 0, 0, 0, time.UTC)
	arr := time.Date(2025, 11, 15, 9, 15, 0, 0, time.UTC)

	graph := &graphassembly.Graph{
		Nodes: map[int64]model.LocationNode{1: a, 2: b},
		Adjacency: map[int64][]graphassembly.Arc{
			1: {scheduledArc(1, 2, model.ModeFlight, false, dep, arr, 118)},
		},
	}

	params := DefaultSearchParams(now)
	bundle, err := Search(graph, spec(a), spec(b), params)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if bundle.SearchStatus != model.StatusOK {
		t.Fatalf("status = %v, want OK", bundle.SearchStatus)
	}
	if len(bundle.Legs) != 1 {
		t.Fatalf("legs = %d, want 1", len(bundle.Legs))
	}
	wantCost := 143.0
	if abs(bundle.GeneralizedCost-wantCost) > 1e-6 {
		t.Errorf("GeneralizedCost = %v, want %v", bundle.GeneralizedCost, wantCost)
	}
}

// Scenario 2: bus vs flight tie-break on cost.
func TestSearch_BusBeatsFlightOnCost(t *testing.T) {
	now := time.Date(2025, 11, 15, 8, 0, 0, 0, time.UTC)
	a := node(1, 0, 0)
	b := node(2, 0, 1)

	flightDep := now
	flightArr := now.Add(75 * time.Minute)
	busDep := now
	busArr := now.Add(260 * time.Minute)

	graph := &graphassembly.Graph{
		Nodes: map[int64]model.LocationNode{1: a, 2: b},
		Adjacency: map[int64][]graphassembly.Arc{
			1: {
				scheduledArc(1, 2, model.ModeFlight, false, flightDep, flightArr, 118),
				scheduledArc(1, 2, model.ModeBus, false, busDep, busArr, 25),
			},
		},
	}

	bundle, err := Search(graph, spec(a), spec(b), DefaultSearchParams(now))
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if bundle.MainMode != model.ModeBus {
		t.Errorf("chosen mode = %v, want bus", bundle.MainMode)
	}
	wantCost := 111.666666667
	if abs(bundle.GeneralizedCost-wantCost) > 1e-6 {
		t.Errorf("GeneralizedCost = %v, want %v", bundle.GeneralizedCost, wantCost)
	}
}

// Scenario 3: transfer-penalized two-leg.
func TestSearch_TransferPenalizedTwoLeg(t *testing.T) {
	now := time.Date(2025, 11, 15, 8, 0, 0, 0, time.UTC)
	a := node(1, 0, 0)
	x := node(2, 0, 0.5)
	b := node(3, 0, 1)

	dep1 := now
	arr1 := now.Add(60 * time.Minute)
	dep2 := arr1
	arr2 := dep2.Add(120 * time.Minute)

	graph := &graphassembly.Graph{
		Nodes: map[int64]model.LocationNode{1: a, 2: x, 3: b},
		Adjacency: map[int64][]graphassembly.Arc{
			1: {scheduledArc(1, 2, model.ModeFlight, false, dep1, arr1, 80)},
			2: {scheduledArc(2, 3, model.ModeBus, true, dep2, arr2, 20)},
		},
	}

	bundle, err := Search(graph, spec(a), spec(b), DefaultSearchParams(now))
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if bundle.NumTransfers != 1 {
		t.Errorf("NumTransfers = %d, want 1", bundle.NumTransfers)
	}
	wantCost := 166.0
	if abs(bundle.GeneralizedCost-wantCost) > 1e-6 {
		t.Errorf("GeneralizedCost = %v, want %v", bundle.GeneralizedCost, wantCost)
	}
}

// Scenario 4: detour prune — a cheap-but-far detour through a node 500km
// away must lose to a direct, costlier edge when origin/dest are 100km
// apart and maxDetourFactor=2.2 (500 > 2.2*100).
func TestSearch_DetourPruneExcludesFarNode(t *testing.T) {
	now := time.Date(2025, 11, 15, 8, 0, 0, 0, time.UTC)

	// ~0.9 degrees longitude at the equator is ~100km; ~4.5 degrees is ~500km.
	a := node(1, 0, 0)
	far := node(2, 0, 4.5)
	b := node(3, 0, 0.9)

	cheapDep := now
	cheapArr := now.Add(time.Minute)

	directDep := now
	directArr := now.Add(60 * time.Minute)

	graph := &graphassembly.Graph{
		Nodes: map[int64]model.LocationNode{1: a, 2: far, 3: b},
		Adjacency: map[int64][]graphassembly.Arc{
			1: {
				scheduledArc(1, 2, model.ModeBus, false, cheapDep, cheapArr, 1),  // cheap but detours 500km
				scheduledArc(1, 3, model.ModeBus, false, directDep, directArr, 100), // direct, expensive
			},
			2: {scheduledArc(2, 3, model.ModeBus, false, cheapArr, cheapArr.Add(time.Minute), 1)},
		},
	}

	bundle, err := Search(graph, spec(a), spec(b), DefaultSearchParams(now))
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if bundle.SearchStatus != model.StatusOK {
		t.Fatalf("status = %v, want OK", bundle.SearchStatus)
	}
	for _, leg := range bundle.Legs {
		if leg.Edge.ToNodeID == far.ID || leg.Edge.FromNodeID == far.ID {
			t.Fatalf("route uses far node 2 via the cheap detour, which should have been pruned")
		}
	}
	if len(bundle.Legs) != 1 || bundle.Legs[0].Edge.ToNodeID != b.ID {
		t.Errorf("expected the single direct leg to win, got legs=%+v", bundle.Legs)
	}
}

// Scenario 5: dominance drop — the higher-cost path into the same 5-minute
// bucket at a shared node must never generate successors.
func TestSearch_DominanceDropsWorseState(t *testing.T) {
	now := time.Date(2025, 11, 15, 8, 0, 0, 0, time.UTC)

	a := node(1, 0, 0)
	aAlt := node(4, 0, 0.01)
	x := node(2, 0, 0.5)
	b := node(3, 0, 1)

	// Two seeds reach X within the same bucket: a->X at cost 50, aAlt->X at cost 60.
	dep := now
	arr := now.Add(2 * time.Minute) // same 5-minute bucket as the alt path below
	depAlt := now
	arrAlt := now.Add(3 * time.Minute)

	xToB := scheduledArc(2, 3, model.ModeBus, false, arr, arr.Add(30*time.Minute), 5)

	graph := &graphassembly.Graph{
		Nodes: map[int64]model.LocationNode{1: a, 2: x, 3: b, 4: aAlt},
		Adjacency: map[int64][]graphassembly.Arc{
			1: {scheduledArc(1, 2, model.ModeBus, false, dep, arr, 50)},
			4: {scheduledArc(4, 2, model.ModeBus, false, depAlt, arrAlt, 60)},
			2: {xToB},
		},
	}

	// Seed both origins as one Area-like spec so both compete for node 2.
	bundle, err := Search(graph, spec(a, aAlt), spec(b), DefaultSearchParams(now))
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if bundle.SearchStatus != model.StatusOK {
		t.Fatalf("status = %v, want OK", bundle.SearchStatus)
	}
	// The winning path must have boarded via the cheaper (cost-50) arrival.
	if len(bundle.Legs) != 2 {
		t.Fatalf("legs = %d, want 2", len(bundle.Legs))
	}
	if bundle.Legs[0].Edge.FromNodeID != a.ID {
		t.Errorf("expected the cheaper path (via node 1) to survive dominance, got origin leg from %d", bundle.Legs[0].Edge.FromNodeID)
	}
}

// Scenario 6: budget exhaustion.
func TestSearch_BudgetExhaustion(t *testing.T) {
	now := time.Date(2025, 11, 15, 8, 0, 0, 0, time.UTC)
	a := node(1, 0, 0)
	b := node(2, 0, 1)

	graph := &graphassembly.Graph{
		Nodes:     map[int64]model.LocationNode{1: a, 2: b},
		Adjacency: map[int64][]graphassembly.Arc{1: {scheduledArc(1, 2, model.ModeFlight, false, now, now.Add(time.Hour), 100)}},
	}

	params := DefaultSearchParams(now)
	params.MaxExpansions = 0

	bundle, err := Search(graph, spec(a), spec(b), params)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if bundle.SearchStatus != model.StatusTimeBudgetExhausted {
		t.Fatalf("status = %v, want TIME_BUDGET_EXHAUSTED", bundle.SearchStatus)
	}
	if len(bundle.Legs) != 0 {
		t.Errorf("expected no legs with maxExpansions=0, got %d", len(bundle.Legs))
	}
}

func TestSearch_EmptyAdjacencyIsNoFeasibleRoute(t *testing.T) {
	now := time.Now().UTC()
	a := node(1, 0, 0)
	b := node(2, 0, 1)

	graph := &graphassembly.Graph{
		Nodes:     map[int64]model.LocationNode{1: a, 2: b},
		Adjacency: map[int64][]graphassembly.Arc{},
	}

	bundle, err := Search(graph, spec(a), spec(b), DefaultSearchParams(now))
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if bundle.SearchStatus != model.StatusNoFeasibleRoute {
		t.Errorf("status = %v, want NO_FEASIBLE_ROUTE", bundle.SearchStatus)
	}
}

func TestSearch_OriginMatchesDestImmediately(t *testing.T) {
	now := time.Now().UTC()
	a := node(1, 0, 0)

	graph := &graphassembly.Graph{
		Nodes:     map[int64]model.LocationNode{1: a},
		Adjacency: map[int64][]graphassembly.Arc{},
	}

	bundle, err := Search(graph, spec(a), spec(a), DefaultSearchParams(now))
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if bundle.SearchStatus != model.StatusOK {
		t.Fatalf("status = %v, want OK", bundle.SearchStatus)
	}
	if len(bundle.Legs) != 0 || bundle.PriceTotal != 0 || bundle.DurationMin != 0 {
		t.Errorf("expected zero-leg zero-cost bundle, got legs=%d price=%v duration=%v",
			len(bundle.Legs), bundle.PriceTotal, bundle.DurationMin)
	}
}

func TestSearch_TimeoutMsZeroExhaustsImmediately(t *testing.T) {
	now := time.Now().UTC()
	a := node(1, 0, 0)
	b := node(2, 0, 1)

	graph := &graphassembly.Graph{
		Nodes:     map[int64]model.LocationNode{1: a, 2: b},
		Adjacency: map[int64][]graphassembly.Arc{1: {scheduledArc(1, 2, model.ModeFlight, false, now, now.Add(time.Hour), 100)}},
	}

	params := DefaultSearchParams(now)
	params.TimeoutMs = 0

	bundle, err := Search(graph, spec(a), spec(b), params)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if bundle.SearchStatus != model.StatusTimeBudgetExhausted {
		t.Errorf("status = %v, want TIME_BUDGET_EXHAUSTED", bundle.SearchStatus)
	}
}
