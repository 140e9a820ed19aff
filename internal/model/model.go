// Package model contains the domain model for the intermodal routing core.
// These structs map to the persisted schema described in the routing core's
// specification (tables `area`, `location_node`, `edge_leg`, `offer`,
// `api_cache`, `itinerary_bundle`).
package model

import "time"

// ─── Enums ──────────────────────────────────────────────────

// LocationKind classifies a LocationNode.
type LocationKind string

const (
	KindAirport     LocationKind = "airport"
	KindStation     LocationKind = "station"
	KindBusTerminal LocationKind = "bus_terminal"
	KindHotel       LocationKind = "hotel"
	KindAddress     LocationKind = "address"
	KindArea        LocationKind = "area"
	KindPOI         LocationKind = "poi"
)

// Mode identifies the transport mode of an EdgeLeg.
type Mode string

const (
	ModeFlight    Mode = "flight"
	ModeTrain     Mode = "train"
	ModeBus       Mode = "bus"
	ModeRideshare Mode = "rideshare"
	ModeWalk      Mode = "walk"
	ModeMetro     Mode = "metro"
	ModeTram      Mode = "tram"
	ModeShuttle   Mode = "shuttle"
)

// StructureType distinguishes a persisted structural edge from a
// dynamically templated one.
type StructureType string

const (
	StructureStatic          StructureType = "static"
	StructureDynamicTemplate StructureType = "dynamic_template"
)

// SourceType classifies where an Offer's price/time data came from.
type SourceType string

const (
	SourceAPILive        SourceType = "api_live"
	SourceCached          SourceType = "cached"
	SourceManualStatic    SourceType = "manual_static"
	SourceEstimatedModel  SourceType = "estimated_model"
)

// SearchStatus is the outcome of a completed search.
type SearchStatus string

const (
	StatusOK                   SearchStatus = "OK"
	StatusTimeBudgetExhausted  SearchStatus = "TIME_BUDGET_EXHAUSTED"
	StatusNoFeasibleRoute      SearchStatus = "NO_FEASIBLE_ROUTE"
)

// ─── Coordinates ────────────────────────────────────────────

// Coordinates is a WGS-84 geographic point (EPSG:4326).
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ─── Domain Models ──────────────────────────────────────────

// Area is a named geographic region (city, metro, neighborhood, airport
// catchment). `Parent` forms a forest: an area may have at most one parent
// and no area may be its own ancestor.
type Area struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Kind      string      `json:"kind"`
	Country   *string     `json:"country,omitempty"`
	Center    Coordinates `json:"center"`
	RadiusKm  float64     `json:"radius_km"`
	ParentID  *int64      `json:"parent_id,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// LocationNode is a routable point in the graph.
type LocationNode struct {
	ID               int64        `json:"id"`
	ExternalRef      *string      `json:"external_ref,omitempty"` // e.g. "IATA:BOS"
	Name             string       `json:"name"`
	Kind             LocationKind `json:"kind"`
	AreaID           *int64       `json:"area_id,omitempty"`
	Coords           Coordinates  `json:"coords"`
	IsHub            bool         `json:"is_hub"`
	MCTAirToGroundMin int         `json:"mct_air_to_ground_min"`
	MCTGroundToAirMin int         `json:"mct_ground_to_air_min"`
	MCTAnyToAnyMin    int         `json:"mct_any_to_any_min"`
	CountryCode      *string      `json:"country_code,omitempty"`
	Timezone         *string      `json:"timezone,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
}

// EdgeLeg is a directed structural leg between two LocationNodes, independent
// of any specific departure.
type EdgeLeg struct {
	ID              int64         `json:"id"`
	FromNodeID      int64         `json:"from_node_id"`
	ToNodeID        int64         `json:"to_node_id"`
	Mode            Mode          `json:"mode"`
	IsTransfer      bool          `json:"is_transfer"`
	CarrierCode     *string       `json:"carrier_code,omitempty"`
	ServiceCode     *string       `json:"service_code,omitempty"`
	DistanceKm      *float64      `json:"distance_km,omitempty"`
	DurationMin     int           `json:"duration_min"`
	MCTOverrideMin  *int          `json:"mct_override_min,omitempty"`
	CoLocated       bool          `json:"co_located"`
	Structure       StructureType `json:"structure"`
	CreatedAt       time.Time     `json:"created_at"`
}

// Offer is a priced, timed instance of traversing an EdgeLeg.
type Offer struct {
	ID               int64      `json:"id"`
	EdgeID           int64      `json:"edge_id"`
	DepartureUTC     time.Time  `json:"departure_time_utc"`
	ArrivalUTC       time.Time  `json:"arrival_time_utc"`
	PriceTotal       float64    `json:"price_total"`
	Currency         string     `json:"currency"`
	SourceType       SourceType `json:"source_type"`
	Provider         string     `json:"provider"`
	ProviderRef      *string    `json:"provider_ref,omitempty"`
	CacheRef         *string    `json:"cache_ref,omitempty"`
	IsStatic         bool       `json:"is_static"`
	RetrievedAt      time.Time  `json:"retrieved_at"`
	ValidFromUTC     *time.Time `json:"valid_from_utc,omitempty"`
	ValidUntilUTC    *time.Time `json:"valid_until_utc,omitempty"`
	EffectiveFromUTC *time.Time `json:"effective_from_utc,omitempty"`
	LastVerifiedUTC  *time.Time `json:"last_verified_utc,omitempty"`
	TTLHours         float64    `json:"ttl_hours"`
	Active           bool       `json:"active"`
	Reliability      *float64   `json:"reliability,omitempty"`
	Meta             map[string]any `json:"meta,omitempty"`
}

// DurationMinutes returns the offer's scheduled travel time in minutes.
func (o Offer) DurationMinutes() float64 {
	return o.ArrivalUTC.Sub(o.DepartureUTC).Minutes()
}

// ─── ItineraryBundle ────────────────────────────────────────

// ItineraryLeg is one leg of an itinerary: the structural edge plus the
// offer that was boarded, together with copied endpoint coordinates so the
// bundle does not outlive the graph snapshot that produced it.
type ItineraryLeg struct {
	Edge        EdgeLeg     `json:"edge"`
	Offer       Offer       `json:"offer"`
	FromCoords  Coordinates `json:"from_coords"`
	ToCoords    Coordinates `json:"to_coords"`
}

// ItineraryBundle is the result of a single search.
type ItineraryBundle struct {
	OriginSpecRaw string         `json:"origin_spec_raw"`
	DestSpecRaw   string         `json:"dest_spec_raw"`
	OriginNodeID  int64          `json:"origin_node_id,omitempty"`
	DestNodeID    int64          `json:"dest_node_id,omitempty"`
	Legs          []ItineraryLeg `json:"legs"`

	PriceTotal    float64 `json:"price_total"`
	DurationMin   float64 `json:"duration_min"`
	NumTransfers  int     `json:"num_transfers"`
	MainMode      Mode    `json:"main_mode,omitempty"`

	TimeValuePerHour float64 `json:"time_value_per_hour"`
	TransferPenalty  float64 `json:"transfer_penalty"`
	RiskPenalty      float64 `json:"risk_penalty"`
	GeneralizedCost  float64 `json:"generalized_cost"`

	SearchStatus     SearchStatus   `json:"search_status"`
	SearchParamsJSON map[string]any `json:"search_params"`

	StartedAtUTC  time.Time `json:"started_at_utc"`
	FinishedAtUTC time.Time `json:"finished_at_utc"`
}

// ─── API Cache ──────────────────────────────────────────────

// ApiCacheEntry is a content-addressed, TTL-bounded cache of a provider
// response, keyed on (provider, endpoint, canonical params hash).
type ApiCacheEntry struct {
	ID             int64     `json:"id"`
	Provider       string    `json:"provider"`
	Endpoint       string    `json:"endpoint"`
	ParamsHash     string    `json:"params_hash"`
	ParamsJSON     string    `json:"params_json"`
	ResponseBody   string    `json:"response_body"`
	CreatedAtUTC   time.Time `json:"created_at_utc"`
	ExpiresAtUTC   time.Time `json:"expires_at_utc"`
	LastUsedAtUTC  time.Time `json:"last_used_at_utc"`
	HitCount       int64     `json:"hit_count"`
}
