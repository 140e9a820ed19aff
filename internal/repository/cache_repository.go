package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/z123guitar/interline/internal/model"
)

// CacheRepository is the API cache (C7): a content-addressed, TTL-bounded
// store for provider responses, keyed on (provider, endpoint, canonical
// params hash). Postgres is the source of truth; a Redis fast path sits in
// front of it, following the same "try Redis, fall back to Postgres, write
// through on miss" shape used elsewhere in this codebase for hot lookups.
type CacheRepository struct {
	pool  *pgxpool.Pool
	redis *redis.Client
}

// NewCacheRepository creates a new cache repository.
func NewCacheRepository(pool *pgxpool.Pool, redis *redis.Client) *CacheRepository {
	return &CacheRepository{pool: pool, redis: redis}
}

const redisCacheKeyPrefix = "apicache:"

// CanonicalHash returns the sha256 hex digest of params, canonicalized by
// marshaling through encoding/json — which sorts map keys ascending — so
// that two logically identical param sets always hash identically
// regardless of construction order.
func CanonicalHash(params map[string]any) (string, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("canonicalize params: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

func redisKey(provider, endpoint, paramsHash string) string {
	return redisCacheKeyPrefix + provider + ":" + endpoint + ":" + paramsHash
}

// Get returns the cached response body for (provider, endpoint, params), and
// whether it was found and not yet expired.
//
// Strategy:
//  1. Try Redis first (fast path, <1ms).
//  2. On miss, query Postgres (slow path), then warm Redis for next time.
func (r *CacheRepository) Get(ctx context.Context, provider, endpoint string, params map[string]any) (string, bool, error) {
	paramsHash, err := CanonicalHash(params)
	if err != nil {
		return "", false, err
	}

	key := redisKey(provider, endpoint, paramsHash)

	if body, err := r.redis.Get(ctx, key).Result(); err == nil {
		return body, true, nil
	}

	entry, found, err := r.getFromDB(ctx, provider, endpoint, paramsHash)
	if err != nil {
		return "", false, err
	}
	if !found {
		return "", false, nil
	}

	ttl := time.Until(entry.ExpiresAtUTC)
	if ttl <= 0 {
		return "", false, nil
	}
	_ = r.redis.Set(ctx, key, entry.ResponseBody, ttl).Err()

	go r.touchHitCount(entry.ID)

	return entry.ResponseBody, true, nil
}

func (r *CacheRepository) getFromDB(ctx context.Context, provider, endpoint, paramsHash string) (*model.ApiCacheEntry, bool, error) {
	var e model.ApiCacheEntry
	err := r.pool.QueryRow(ctx, `
		SELECT id, provider, endpoint, params_hash, params_json, response_body,
		       created_at_utc, expires_at_utc, last_used_at_utc, hit_count
		FROM api_cache
		WHERE provider = $1 AND endpoint = $2 AND params_hash = $3
	`, provider, endpoint, paramsHash).Scan(
		&e.ID, &e.Provider, &e.Endpoint, &e.ParamsHash, &e.ParamsJSON, &e.ResponseBody,
		&e.CreatedAtUTC, &e.ExpiresAtUTC, &e.LastUsedAtUTC, &e.HitCount,
	)
	if err == pgx.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, newPersistenceError("get cache entry", classify(err), err)
	}
	if e.ExpiresAtUTC.Before(e.CreatedAtUTC) {
		return nil, false, newPersistenceError("get cache entry", ErrKindCorrupted, fmt.Errorf("expires_at_utc before created_at_utc"))
	}
	return &e, true, nil
}

// getParamsJSON returns the stored params_json for an existing (provider,
// endpoint, params_hash) row, used by Put to detect a hash collision before
// writing.
func (r *CacheRepository) getParamsJSON(ctx context.Context, provider, endpoint, paramsHash string) (string, bool, error) {
	var paramsJSON string
	err := r.pool.QueryRow(ctx, `
		SELECT params_json FROM api_cache
		WHERE provider = $1 AND endpoint = $2 AND params_hash = $3
	`, provider, endpoint, paramsHash).Scan(&paramsJSON)
	if err == pgx.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, newPersistenceError("get cache entry params", classify(err), err)
	}
	return paramsJSON, true, nil
}

// Put stores a response body for (provider, endpoint, params), valid for ttl.
// On a hash collision against an existing row (same provider/endpoint/hash
// but different params_json), the write is rejected with ErrKindCorrupted:
// sha256 is presumed strong enough that a matching hash with differing
// params indicates corruption, not a genuine collision, so the conflict is
// surfaced rather than silently overwritten.
func (r *CacheRepository) Put(ctx context.Context, provider, endpoint string, params map[string]any, responseBody string, ttl time.Duration) error {
	paramsHash, err := CanonicalHash(params)
	if err != nil {
		return err
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}

	existingParamsJSON, found, err := r.getParamsJSON(ctx, provider, endpoint, paramsHash)
	if err != nil {
		return err
	}
	if found && existingParamsJSON != string(paramsJSON) {
		return newPersistenceError("put cache entry", ErrKindCorrupted,
			fmt.Errorf("params_hash %s already stored for a different params payload", paramsHash))
	}

	now := time.Now().UTC()
	expiresAt := now.Add(ttl)

	_, err = r.pool.Exec(ctx, `
		INSERT INTO api_cache (provider, endpoint, params_hash, params_json, response_body,
		                       created_at_utc, expires_at_utc, last_used_at_utc, hit_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $6, 0)
		ON CONFLICT (provider, endpoint, params_hash)
		DO UPDATE SET params_json = EXCLUDED.params_json,
		              response_body = EXCLUDED.response_body,
		              created_at_utc = EXCLUDED.created_at_utc,
		              expires_at_utc = EXCLUDED.expires_at_utc,
		              last_used_at_utc = EXCLUDED.last_used_at_utc
	`, provider, endpoint, paramsHash, string(paramsJSON), responseBody, now, expiresAt)
	if err != nil {
		return newPersistenceError("put cache entry", classify(err), err)
	}

	_ = r.redis.Set(ctx, redisKey(provider, endpoint, paramsHash), responseBody, ttl).Err()

	return nil
}

// touchHitCount bumps hit_count and last_used_at_utc for an entry. Run in
// its own background context since it is advisory bookkeeping, not on the
// request's critical path.
func (r *CacheRepository) touchHitCount(id int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _ = r.pool.Exec(ctx, `
		UPDATE api_cache SET hit_count = hit_count + 1, last_used_at_utc = now()
		WHERE id = $1
	`, id)
}

// Invalidate removes a cached entry from both Redis and Postgres.
func (r *CacheRepository) Invalidate(ctx context.Context, provider, endpoint string, params map[string]any) error {
	paramsHash, err := CanonicalHash(params)
	if err != nil {
		return err
	}
	_ = r.redis.Del(ctx, redisKey(provider, endpoint, paramsHash)).Err()
	_, err = r.pool.Exec(ctx, `
		DELETE FROM api_cache WHERE provider = $1 AND endpoint = $2 AND params_hash = $3
	`, provider, endpoint, paramsHash)
	if err != nil {
		return newPersistenceError("invalidate cache entry", classify(err), err)
	}
	return nil
}
