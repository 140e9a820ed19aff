package geo

import (
	"math"
	"testing"

	"github.com/z123guitar/interline/internal/model"
)

func TestHaversineKm_SamePoint(t *testing.T) {
	c := model.Coordinates{Lat: 28.7041, Lon: 77.1025}
	got := HaversineKm(c, c)
	if got != 0 {
		t.Errorf("HaversineKm(same point) = %v, want 0", got)
	}
}

func TestHaversineKm_KnownDistance(t *testing.T) {
	// Connaught Place to IGI Airport (~15 km great-circle)
	connaught := model.Coordinates{Lat: 28.6315, Lon: 77.2167}
	igi := model.Coordinates{Lat: 28.5562, Lon: 77.0889}
	got := HaversineKm(connaught, igi)
	wantMin, wantMax := 14.0, 20.0
	if got < wantMin || got > wantMax {
		t.Errorf("HaversineKm(Connaught→IGI) = %.2f km, want between %.1f and %.1f", got, wantMin, wantMax)
	}
}

func TestHaversineM(t *testing.T) {
	a := model.Coordinates{Lat: 0, Lon: 0}
	b := model.Coordinates{Lat: 0.001, Lon: 0}
	km := HaversineKm(a, b)
	m := HaversineM(a, b)
	if math.Abs(m-km*1000) > 0.01 {
		t.Errorf("HaversineM = %v, want HaversineKm*1000 = %v", m, km*1000)
	}
}

func TestApproxKm_SamePoint(t *testing.T) {
	c := model.Coordinates{Lat: 42.0, Lon: -71.0}
	if got := ApproxKm(c, c); got != 0 {
		t.Errorf("ApproxKm(same point) = %v, want 0", got)
	}
}

func TestApproxKm_TracksHaversineAtSmallScale(t *testing.T) {
	a := model.Coordinates{Lat: 42.0, Lon: -71.0}
	b := model.Coordinates{Lat: 42.01, Lon: -71.01}

	approx := ApproxKm(a, b)
	exact := HaversineKm(a, b)

	// At ~1km scale near mid-latitudes the two should roughly agree; this
	// only guards against a gross unit error, not precision.
	if math.Abs(approx-exact) > 0.5 {
		t.Errorf("ApproxKm = %.3f, HaversineKm = %.3f, diverge too much at small scale", approx, exact)
	}
}

func TestApproxKm_NeverExceedsHaversineSubstantially(t *testing.T) {
	// ApproxKm is a cheap bound used for pruning — it must stay in the same
	// ballpark as the true distance for the LB admissibility argument to hold
	// at the short ranges transfers operate over.
	a := model.Coordinates{Lat: 51.5, Lon: -0.1}
	b := model.Coordinates{Lat: 51.52, Lon: -0.08}
	approx := ApproxKm(a, b)
	exact := HaversineKm(a, b)
	if approx <= 0 || exact <= 0 {
		t.Fatalf("expected positive distances, got approx=%v exact=%v", approx, exact)
	}
	if approx > 1.5*exact {
		t.Errorf("ApproxKm = %.3f exceeds 1.5x HaversineKm = %.3f", approx, exact)
	}
}
