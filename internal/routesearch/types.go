package routesearch

import (
	"time"

	"github.com/z123guitar/interline/internal/graphassembly"
)

// arrivalBucketMs is the dominance table's time bucket width: 5 minutes.
const arrivalBucketMs = 5 * 60 * 1000

// SearchParams collects every tunable of a single search, mirroring the
// conceptual search-request params.
type SearchParams struct {
	MaxExpansions int
	TimeoutMs     int
	Cost          CostParams
	Now           time.Time
}

// DefaultSearchParams returns the spec's default search parameters.
func DefaultSearchParams(now time.Time) SearchParams {
	return SearchParams{
		MaxExpansions: 100_000,
		TimeoutMs:     5_000,
		Cost:          DefaultCostParams(),
		Now:           now,
	}
}

// searchState is one frontier entry: a partial path reaching nodeID at
// arrivalUTC with accumulated genCost/transfers/traversed distance.
type searchState struct {
	nodeID           int64
	arrivalUTC       time.Time
	genCost          float64
	transfers        int
	distSoFarKm      float64
	directDistanceKm float64
	path             []graphassembly.Arc
	insertOrder      int
}

// arrivalBucket buckets a timestamp into 5-minute-wide dominance windows.
func arrivalBucket(t time.Time) int64 {
	return t.UnixMilli() / arrivalBucketMs
}

// dominanceKey identifies a dominance bucket: (node, arrival window).
type dominanceKey struct {
	nodeID int64
	bucket int64
}

// frontierHeap is a binary min-heap of *searchState, ordered by
// (genCost ascending, insertOrder ascending) — the spec's stable tie-break.
type frontierHeap []*searchState

func (h frontierHeap) Len() int { return len(h) }

func (h frontierHeap) Less(i, j int) bool {
	if h[i].genCost != h[j].genCost {
		return h[i].genCost < h[j].genCost
	}
	return h[i].insertOrder < h[j].insertOrder
}

func (h frontierHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *frontierHeap) Push(x any) {
	*h = append(*h, x.(*searchState))
}

func (h *frontierHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
