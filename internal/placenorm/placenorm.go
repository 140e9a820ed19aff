// Package placenorm resolves a raw place string ("address:123 Main St",
// "hotel near Back Bay", "Boston") into a PlaceSpec: a small set of
// LocationNodes plus a predicate for matching a search state against it.
package placenorm

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/z123guitar/interline/internal/model"
)

// AreaLookup is the subset of the persistence adapter the normalizer needs.
// *repository.GraphRepository satisfies this; tests supply an in-memory
// fake instead of standing up a database.
type AreaLookup interface {
	FindAreasByName(ctx context.Context, query string, limit int) ([]model.Area, error)
	FindNodesByArea(ctx context.Context, areaID int64, kind model.LocationKind) ([]model.LocationNode, error)
}

// PlaceSpecKind discriminates the variant a PlaceSpec was resolved to.
type PlaceSpecKind string

const (
	KindAddress    PlaceSpecKind = "address"
	KindHotelQuery PlaceSpecKind = "hotel_query"
	KindArea       PlaceSpecKind = "area"
)

// areaCandidateLimit bounds how many fuzzy area-name matches are fetched;
// only the first (by id) is ever used, but the rest are surfaced as
// acknowledged ambiguity.
const areaCandidateLimit = 5

// PlaceSpec is the resolved form of a raw place string.
type PlaceSpec struct {
	Kind    PlaceSpecKind
	RawText string
	Area    *model.Area
	Nodes   []model.LocationNode

	// AmbiguousCandidateIDs lists the area ids that fuzzy lookup also
	// matched but which lost the stable-sort tie-break, for surfacing in
	// search_params_json.
	AmbiguousCandidateIDs []int64
}

// Matches reports whether nodeID satisfies this spec's destination
// predicate: for Address, the single synthetic node; for Area and
// HotelQuery, any node in the resolved set.
func (p PlaceSpec) Matches(nodeID int64) bool {
	for _, n := range p.Nodes {
		if n.ID == nodeID {
			return true
		}
	}
	return false
}

// SyntheticIDCounter hands out the negative node ids used for unpersisted
// address nodes — a monotonic counter in place of a random negative id. It
// lives as long as the Normalizer holding it and is not reset between
// searches, so ids keep decreasing across searches rather than restarting at
// -1 for each one. Next is safe for concurrent use, so no two synthetic
// nodes handed out by one counter share an id.
type SyntheticIDCounter struct {
	next int64
}

// NewSyntheticIDCounter returns a counter seeded at -1.
func NewSyntheticIDCounter() *SyntheticIDCounter {
	return &SyntheticIDCounter{next: -1}
}

// Next returns the next synthetic id and decrements the counter.
func (c *SyntheticIDCounter) Next() int64 {
	return atomic.AddInt64(&c.next, -1) + 1
}

// Normalizer resolves raw place strings into PlaceSpecs.
type Normalizer struct {
	repo     AreaLookup
	geocoder Geocoder
	ids      *SyntheticIDCounter
}

// NewNormalizer creates a Normalizer. ids should be shared across both the
// origin and destination normalization calls within a single search so
// their synthetic node ids never collide.
func NewNormalizer(repo AreaLookup, geocoder Geocoder, ids *SyntheticIDCounter) *Normalizer {
	return &Normalizer{repo: repo, geocoder: geocoder, ids: ids}
}

// Normalize resolves raw into a PlaceSpec.
func (n *Normalizer) Normalize(ctx context.Context, raw string) (PlaceSpec, error) {
	trimmed := strings.TrimSpace(raw)
	lower := strings.ToLower(trimmed)

	switch {
	case strings.HasPrefix(lower, "address:"):
		return n.normalizeAddress(ctx, raw, strings.TrimSpace(trimmed[len("address:"):]))

	case strings.HasPrefix(lower, "hotel"):
		if areaName, ok := extractNear(trimmed); ok {
			return n.normalizeHotelNearArea(ctx, raw, areaName)
		}
		// No "near <X>" phrase — fall back to full Address handling.
		return n.normalizeAddress(ctx, raw, trimmed)

	default:
		spec, matched, err := n.normalizeArea(ctx, raw, trimmed)
		if err != nil {
			return PlaceSpec{}, err
		}
		if matched {
			return spec, nil
		}
		return n.normalizeAddress(ctx, raw, trimmed)
	}
}

// extractNear looks for the case-insensitive phrase "near <X>" and returns
// <X> trimmed, or ok=false if the phrase is absent.
func extractNear(s string) (string, bool) {
	lower := strings.ToLower(s)
	idx := strings.Index(lower, "near ")
	if idx < 0 {
		return "", false
	}
	return strings.TrimSpace(s[idx+len("near "):]), true
}

// normalizeArea attempts the Area interpretation: fuzzy area-name lookup.
// matched is false (with no error) when the lookup returns nothing, meaning
// the caller should fall through to Address.
func (n *Normalizer) normalizeArea(ctx context.Context, raw, query string) (spec PlaceSpec, matched bool, err error) {
	areas, err := n.repo.FindAreasByName(ctx, query, areaCandidateLimit)
	if err != nil {
		return PlaceSpec{}, false, fmt.Errorf("normalize area %q: %w", query, err)
	}
	if len(areas) == 0 {
		return PlaceSpec{}, false, nil
	}

	sort.Slice(areas, func(i, j int) bool { return areas[i].ID < areas[j].ID })
	chosen := areas[0]

	var ambiguous []int64
	for _, a := range areas[1:] {
		ambiguous = append(ambiguous, a.ID)
	}
	if len(ambiguous) > 0 {
		log.Printf("[normalize] area query %q matched %d candidates, chose id=%d (ambiguous: %v)",
			query, len(areas), chosen.ID, ambiguous)
	}

	nodes, err := n.repo.FindNodesByArea(ctx, chosen.ID, "")
	if err != nil {
		return PlaceSpec{}, false, fmt.Errorf("normalize area %q: %w", query, err)
	}
	if len(nodes) == 0 {
		return PlaceSpec{}, false, newNormalizationError(raw, ErrKindEmptyArea,
			fmt.Errorf("area %q (id=%d) has no routable nodes", chosen.Name, chosen.ID))
	}

	return PlaceSpec{
		Kind:                  KindArea,
		RawText:               raw,
		Area:                  &chosen,
		Nodes:                 nodes,
		AmbiguousCandidateIDs: ambiguous,
	}, true, nil
}

// normalizeHotelNearArea resolves "hotel ... near <X>" by looking up <X> as
// an area and restricting nodes to KindHotel within it.
func (n *Normalizer) normalizeHotelNearArea(ctx context.Context, raw, areaName string) (PlaceSpec, error) {
	areas, err := n.repo.FindAreasByName(ctx, areaName, areaCandidateLimit)
	if err != nil {
		return PlaceSpec{}, fmt.Errorf("normalize hotel near %q: %w", areaName, err)
	}
	if len(areas) == 0 {
		return PlaceSpec{}, newNormalizationError(raw, ErrKindEmptyArea,
			fmt.Errorf("no area matches %q", areaName))
	}

	sort.Slice(areas, func(i, j int) bool { return areas[i].ID < areas[j].ID })
	chosen := areas[0]

	var ambiguous []int64
	for _, a := range areas[1:] {
		ambiguous = append(ambiguous, a.ID)
	}

	hotels, err := n.repo.FindNodesByArea(ctx, chosen.ID, model.KindHotel)
	if err != nil {
		return PlaceSpec{}, fmt.Errorf("normalize hotel near %q: %w", areaName, err)
	}
	if len(hotels) == 0 {
		return PlaceSpec{}, newNormalizationError(raw, ErrKindEmptyArea,
			fmt.Errorf("area %q (id=%d) has no hotels", chosen.Name, chosen.ID))
	}

	return PlaceSpec{
		Kind:                  KindHotelQuery,
		RawText:               raw,
		Area:                  &chosen,
		Nodes:                 hotels,
		AmbiguousCandidateIDs: ambiguous,
	}, nil
}

// normalizeAddress resolves raw via the injected Geocoder into a single
// synthetic node with a deterministic negative id.
func (n *Normalizer) normalizeAddress(ctx context.Context, raw, address string) (PlaceSpec, error) {
	coords, err := n.geocoder.Geocode(ctx, address)
	if err != nil {
		return PlaceSpec{}, fmt.Errorf("geocode address %q: %w", address, err)
	}

	node := model.LocationNode{
		ID:     n.ids.Next(),
		Name:   address,
		Kind:   model.KindAddress,
		Coords: coords,
	}

	log.Printf("[normalize] address %q resolved to synthetic node id=%d", address, node.ID)

	return PlaceSpec{
		Kind:    KindAddress,
		RawText: raw,
		Nodes:   []model.LocationNode{node},
	}, nil
}
