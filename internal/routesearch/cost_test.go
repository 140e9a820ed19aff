package routesearch

import (
	"testing"
	"time"

	"github.com/z123guitar/interline/internal/graphassembly"
	"github.com/z123guitar/interline/internal/model"
)

func flightArc(priceTotal float64, durationMin int, isTransfer bool) graphassembly.Arc {
	dep := time.Date(2025, 11, 15, 8, 0, 0, 0, time.UTC)
	arr := dep.Add(time.Duration(durationMin) * time.Minute)
	return graphassembly.Arc{
		Edge:  model.EdgeLeg{Mode: model.ModeFlight, IsTransfer: isTransfer},
		Offer: model.Offer{DepartureUTC: dep, ArrivalUTC: arr, PriceTotal: priceTotal},
	}
}

// Scenario 1: direct-flight only — genCost = 118 + 20*(75/60) = 143.0
func TestEvaluateStep_DirectFlightOnly(t *testing.T) {
	p := DefaultCostParams()
	arc := flightArc(118, 75, false)

	step := EvaluateStep(p, 0, 0, arc)

	want := 143.0
	if abs(step.NewGenCost-want) > 1e-9 {
		t.Errorf("NewGenCost = %v, want %v", step.NewGenCost, want)
	}
	if step.NewTransfers != 0 {
		t.Errorf("NewTransfers = %d, want 0", step.NewTransfers)
	}
}

// Scenario 2: bus vs flight — bus 25 + 20*260/60 = 111.67 beats flight 143.
func TestEvaluateStep_BusBeatsFlightOnCost(t *testing.T) {
	p := DefaultCostParams()
	flight := flightArc(118, 75, false)
	bus := flightArc(25, 260, false)

	flightStep := EvaluateStep(p, 0, 0, flight)
	busStep := EvaluateStep(p, 0, 0, bus)

	if busStep.NewGenCost >= flightStep.NewGenCost {
		t.Errorf("bus cost %v should be lower than flight cost %v", busStep.NewGenCost, flightStep.NewGenCost)
	}
	wantBus := 111.666666667
	if abs(busStep.NewGenCost-wantBus) > 1e-6 {
		t.Errorf("bus NewGenCost = %v, want ~%v", busStep.NewGenCost, wantBus)
	}
}

// Scenario 3: transfer-penalized two-leg — 80 + 20 + 20*(180/60) + 6 = 166, 1 transfer.
func TestEvaluateStep_TransferPenalizedTwoLeg(t *testing.T) {
	p := DefaultCostParams()
	leg1 := flightArc(80, 60, false)
	step1 := EvaluateStep(p, 0, 0, leg1)

	leg2 := flightArc(20, 120, true)
	step2 := EvaluateStep(p, step1.NewGenCost, step1.NewTransfers, leg2)

	want := 166.0
	if abs(step2.NewGenCost-want) > 1e-9 {
		t.Errorf("NewGenCost = %v, want %v", step2.NewGenCost, want)
	}
	if step2.NewTransfers != 1 {
		t.Errorf("NewTransfers = %d, want 1", step2.NewTransfers)
	}
}

func TestLowerBound_ZeroAtSamePoint(t *testing.T) {
	p := DefaultCostParams()
	c := model.Coordinates{Lat: 42.0, Lon: -71.0}
	if lb := LowerBound(p, c, c); lb != 0 {
		t.Errorf("LowerBound(same point) = %v, want 0", lb)
	}
}

func TestLowerBound_NeverExceedsActualFlightCost(t *testing.T) {
	// LB admissibility: the bound at 700km/h must never exceed the cost of
	// a real (slower, costlier) mode covering the same ground distance.
	p := DefaultCostParams()
	a := model.Coordinates{Lat: 0, Lon: 0}
	b := model.Coordinates{Lat: 0, Lon: 5} // ~555km at the equator

	lb := LowerBound(p, a, b)

	// A real flight over this distance takes much longer than distance/700h
	// and costs more than the time-value-only bound.
	realDurationMin := 75.0
	realPrice := 118.0
	realCost := realPrice + p.TimeValuePerHour*(realDurationMin/60)

	if lb > realCost {
		t.Errorf("LowerBound = %v exceeds a real itinerary's cost %v — not admissible", lb, realCost)
	}
}

// Scenario 4: detour prune — 500km reached vs 100km direct, factor 2.2 → prune.
func TestShouldPrune_DetourExceedsFactor(t *testing.T) {
	p := DefaultCostParams()
	pruned := ShouldPrune(p, 50, false, 0, 0, 500, 100)
	if !pruned {
		t.Errorf("expected detour prune: 500 > 2.2*100")
	}
}

func TestShouldPrune_WithinDetourFactorNotPruned(t *testing.T) {
	p := DefaultCostParams()
	pruned := ShouldPrune(p, 50, false, 0, 0, 150, 100)
	if pruned {
		t.Errorf("expected no prune: 150 <= 2.2*100")
	}
}

func TestShouldPrune_ExceedsBestCost(t *testing.T) {
	p := DefaultCostParams()
	pruned := ShouldPrune(p, 100, true, 90, 0, 10, 100)
	if !pruned {
		t.Errorf("expected prune: newGenCost 100 >= bestCost 90")
	}
}

func TestShouldPrune_LowerBoundExceedsBestCost(t *testing.T) {
	p := DefaultCostParams()
	pruned := ShouldPrune(p, 50, true, 90, 45, 10, 100)
	if !pruned {
		t.Errorf("expected prune: newGenCost+LB = 95 >= bestCost 90")
	}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
