// Package repository provides database access for the routing core.
//
// GraphRepository is the persistence adapter (C1): read-only snapshot reads
// of areas, location nodes, structural edges, and offers, plus the keyed
// lookups the place normalizer needs. It deliberately exposes nothing but
// reads — offers and edges are long-lived reference data owned elsewhere;
// this package never mutates them.
package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/z123guitar/interline/internal/model"
)

// GraphRepository provides database access for graph assembly and place
// normalization.
type GraphRepository struct {
	pool *pgxpool.Pool
}

// NewGraphRepository creates a new repository backed by the given PG pool.
func NewGraphRepository(pool *pgxpool.Pool) *GraphRepository {
	return &GraphRepository{pool: pool}
}

// LoadNodes returns a full-table snapshot of location_node.
func (r *GraphRepository) LoadNodes(ctx context.Context) ([]model.LocationNode, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, external_ref, name, kind, area_id,
		       lat, lon, is_hub,
		       mct_air_to_ground_min, mct_ground_to_air_min, mct_any_to_any_min,
		       country_code, timezone, created_at
		FROM location_node
	`)
	if err != nil {
		return nil, newPersistenceError("load nodes", classify(err), err)
	}
	defer rows.Close()

	var nodes []model.LocationNode
	for rows.Next() {
		var n model.LocationNode
		if err := rows.Scan(
			&n.ID, &n.ExternalRef, &n.Name, &n.Kind, &n.AreaID,
			&n.Coords.Lat, &n.Coords.Lon, &n.IsHub,
			&n.MCTAirToGroundMin, &n.MCTGroundToAirMin, &n.MCTAnyToAnyMin,
			&n.CountryCode, &n.Timezone, &n.CreatedAt,
		); err != nil {
			return nil, newPersistenceError("scan node", ErrKindCorrupted, err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, newPersistenceError("load nodes", classify(err), err)
	}
	return nodes, nil
}

// LoadEdges returns a full-table snapshot of edge_leg.
func (r *GraphRepository) LoadEdges(ctx context.Context) ([]model.EdgeLeg, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, from_node_id, to_node_id, mode, is_transfer,
		       carrier_code, service_code, distance_km, duration_min,
		       mct_override_min, co_located, structure, created_at
		FROM edge_leg
	`)
	if err != nil {
		return nil, newPersistenceError("load edges", classify(err), err)
	}
	defer rows.Close()

	var edges []model.EdgeLeg
	for rows.Next() {
		var e model.EdgeLeg
		if err := rows.Scan(
			&e.ID, &e.FromNodeID, &e.ToNodeID, &e.Mode, &e.IsTransfer,
			&e.CarrierCode, &e.ServiceCode, &e.DistanceKm, &e.DurationMin,
			&e.MCTOverrideMin, &e.CoLocated, &e.Structure, &e.CreatedAt,
		); err != nil {
			return nil, newPersistenceError("scan edge", ErrKindCorrupted, err)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, newPersistenceError("load edges", classify(err), err)
	}
	return edges, nil
}

// LoadOffers returns a full-table snapshot of offer.
func (r *GraphRepository) LoadOffers(ctx context.Context) ([]model.Offer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, edge_id, departure_time_utc, arrival_time_utc,
		       price_total, currency, source_type, provider, provider_ref,
		       cache_ref, is_static, retrieved_at, valid_from_utc,
		       valid_until_utc, effective_from_utc, last_verified_utc,
		       ttl_hours, active, reliability
		FROM offer
	`)
	if err != nil {
		return nil, newPersistenceError("load offers", classify(err), err)
	}
	defer rows.Close()

	var offers []model.Offer
	for rows.Next() {
		var o model.Offer
		if err := rows.Scan(
			&o.ID, &o.EdgeID, &o.DepartureUTC, &o.ArrivalUTC,
			&o.PriceTotal, &o.Currency, &o.SourceType, &o.Provider, &o.ProviderRef,
			&o.CacheRef, &o.IsStatic, &o.RetrievedAt, &o.ValidFromUTC,
			&o.ValidUntilUTC, &o.EffectiveFromUTC, &o.LastVerifiedUTC,
			&o.TTLHours, &o.Active, &o.Reliability,
		); err != nil {
			return nil, newPersistenceError("scan offer", ErrKindCorrupted, err)
		}
		offers = append(offers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, newPersistenceError("load offers", classify(err), err)
	}
	return offers, nil
}

// FindAreasByName returns areas whose name fuzzily (case-insensitive
// substring) matches query, ordered by id for a stable tie-break, capped at
// limit results.
func (r *GraphRepository) FindAreasByName(ctx context.Context, query string, limit int) ([]model.Area, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, kind, country, lat, lon, radius_km, parent_id, created_at
		FROM area
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY id ASC
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, newPersistenceError("find areas by name", classify(err), err)
	}
	defer rows.Close()

	var areas []model.Area
	for rows.Next() {
		var a model.Area
		if err := rows.Scan(
			&a.ID, &a.Name, &a.Kind, &a.Country,
			&a.Center.Lat, &a.Center.Lon, &a.RadiusKm, &a.ParentID, &a.CreatedAt,
		); err != nil {
			return nil, newPersistenceError("scan area", ErrKindCorrupted, err)
		}
		areas = append(areas, a)
	}
	if err := rows.Err(); err != nil {
		return nil, newPersistenceError("find areas by name", classify(err), err)
	}
	return areas, nil
}

// FindNodesByArea returns all nodes owned by the given area, ordered by id,
// optionally filtered to a single kind (pass "" for no filter — used by
// HotelQuery to restrict to KindHotel).
func (r *GraphRepository) FindNodesByArea(ctx context.Context, areaID int64, kind model.LocationKind) ([]model.LocationNode, error) {
	query := `
		SELECT id, external_ref, name, kind, area_id,
		       lat, lon, is_hub,
		       mct_air_to_ground_min, mct_ground_to_air_min, mct_any_to_any_min,
		       country_code, timezone, created_at
		FROM location_node
		WHERE area_id = $1
	`
	args := []any{areaID}
	if kind != "" {
		query += " AND kind = $2"
		args = append(args, kind)
	}
	query += " ORDER BY id ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, newPersistenceError("find nodes by area", classify(err), err)
	}
	defer rows.Close()

	var nodes []model.LocationNode
	for rows.Next() {
		var n model.LocationNode
		if err := rows.Scan(
			&n.ID, &n.ExternalRef, &n.Name, &n.Kind, &n.AreaID,
			&n.Coords.Lat, &n.Coords.Lon, &n.IsHub,
			&n.MCTAirToGroundMin, &n.MCTGroundToAirMin, &n.MCTAnyToAnyMin,
			&n.CountryCode, &n.Timezone, &n.CreatedAt,
		); err != nil {
			return nil, newPersistenceError("scan node", ErrKindCorrupted, err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, newPersistenceError("find nodes by area", classify(err), err)
	}
	return nodes, nil
}

// classify maps a low-level pgx/pgconn error to a PersistenceErrorKind.
func classify(err error) PersistenceErrorKind {
	if err == nil {
		return ""
	}
	if err == pgx.ErrNoRows {
		return ErrKindNotFound
	}
	return ErrKindUnavailable
}
