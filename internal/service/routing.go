// Package service orchestrates the routing core's components into a single
// search entrypoint: normalize origin/dest, assemble the timed graph, run
// the branch-and-bound search, and cache the result.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/z123guitar/interline/internal/graphassembly"
	"github.com/z123guitar/interline/internal/model"
	"github.com/z123guitar/interline/internal/placenorm"
	"github.com/z123guitar/interline/internal/repository"
	"github.com/z123guitar/interline/internal/routesearch"
)

// searchCacheTTL is how long a computed ItineraryBundle is cached under its
// (origin, dest, params) key before the next request recomputes it.
const searchCacheTTL = 5 * time.Minute

// RoutingService wires place normalization (C4), graph assembly (C3), and
// the branch-and-bound search (C5+C6) into one search call, with a
// read-through result cache (C7) in front of the expensive path.
type RoutingService struct {
	normalizer *placenorm.Normalizer
	assembler  *graphassembly.Assembler
	cache      *repository.CacheRepository
	costParams routesearch.CostParams
}

// NewRoutingService creates a RoutingService. costParams is the cost model
// applied to every search; Search takes no per-call cost overrides, only
// maxExpansions and timeoutMs.
func NewRoutingService(normalizer *placenorm.Normalizer, assembler *graphassembly.Assembler, cache *repository.CacheRepository, costParams routesearch.CostParams) *RoutingService {
	return &RoutingService{
		normalizer: normalizer,
		assembler:  assembler,
		cache:      cache,
		costParams: costParams,
	}
}

// Search resolves originRaw/destRaw, assembles the graph, and runs the
// search, returning the resulting ItineraryBundle. A prior identical search
// (same origin, dest, maxExpansions, timeoutMs, and cost params) served from
// the cache skips recomputation entirely.
func (s *RoutingService) Search(ctx context.Context, originRaw, destRaw string, maxExpansions, timeoutMs int) (model.ItineraryBundle, error) {
	now := time.Now().UTC()

	cacheParams := map[string]any{
		"origin":           originRaw,
		"dest":             destRaw,
		"maxExpansions":    maxExpansions,
		"timeoutMs":        timeoutMs,
		"timeValuePerHour": s.costParams.TimeValuePerHour,
		"transferPenalty":  s.costParams.TransferPenalty,
		"maxDetourFactor":  s.costParams.MaxDetourFactor,
		"riskPenalty":      s.costParams.RiskPenalty,
	}

	if body, found, err := s.cache.Get(ctx, "interline", "search", cacheParams); err != nil {
		log.Printf("[service] search cache read degraded to miss: %v", err)
	} else if found {
		var bundle model.ItineraryBundle
		if err := json.Unmarshal([]byte(body), &bundle); err == nil {
			log.Printf("[service] search cache hit: origin=%q dest=%q", originRaw, destRaw)
			return bundle, nil
		}
		log.Printf("[service] search cache entry unmarshal failed, recomputing: %v", err)
	}

	bundle, err := s.compute(ctx, originRaw, destRaw, maxExpansions, timeoutMs, now)
	if err != nil {
		return model.ItineraryBundle{}, err
	}

	if body, err := json.Marshal(bundle); err != nil {
		log.Printf("[service] search cache write degraded, marshal failed: %v", err)
	} else if err := s.cache.Put(ctx, "interline", "search", cacheParams, string(body), searchCacheTTL); err != nil {
		log.Printf("[service] search cache write degraded to no-op: %v", err)
	}

	return bundle, nil
}

// compute runs the uncached search path: normalize both ends, assemble the
// graph, and branch-and-bound from origin to dest.
func (s *RoutingService) compute(ctx context.Context, originRaw, destRaw string, maxExpansions, timeoutMs int, now time.Time) (model.ItineraryBundle, error) {
	origin, err := s.normalizer.Normalize(ctx, originRaw)
	if err != nil {
		return model.ItineraryBundle{}, fmt.Errorf("normalize origin: %w", err)
	}
	dest, err := s.normalizer.Normalize(ctx, destRaw)
	if err != nil {
		return model.ItineraryBundle{}, fmt.Errorf("normalize dest: %w", err)
	}

	graph, err := s.assembler.Build(ctx, now)
	if err != nil {
		return model.ItineraryBundle{}, fmt.Errorf("assemble graph: %w", err)
	}

	params := routesearch.SearchParams{
		MaxExpansions: maxExpansions,
		TimeoutMs:     timeoutMs,
		Cost:          s.costParams,
		Now:           now,
	}
	if params.MaxExpansions <= 0 {
		params.MaxExpansions = routesearch.DefaultSearchParams(now).MaxExpansions
	}
	if params.TimeoutMs <= 0 {
		params.TimeoutMs = routesearch.DefaultSearchParams(now).TimeoutMs
	}

	bundle, err := routesearch.Search(graph, origin, dest, params)
	if err != nil {
		return model.ItineraryBundle{}, fmt.Errorf("search: %w", err)
	}
	return bundle, nil
}
