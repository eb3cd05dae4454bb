package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// GetOrCompute returns the cached value for key if present, otherwise
// runs compute, stores its JSON-encoded result under key with the given
// TTL, and returns it. The boolean reports whether the value came from
// the cache. Cache read and write failures degrade to computing fresh.
func GetOrCompute[T any](ctx context.Context, c Cache, key string, ttl time.Duration, compute func(ctx context.Context) (T, error)) (T, bool, error) {
	return GetOrComputeIf(ctx, c, key, ttl, compute, func(T) bool { return true })
}

// GetOrComputeIf is GetOrCompute with a storability check: computed
// values rejected by cacheable are returned to the caller but never
// written to the cache, so a degraded result does not shadow a healthy
// one until the TTL runs out.
func GetOrComputeIf[T any](ctx context.Context, c Cache, key string, ttl time.Duration, compute func(ctx context.Context) (T, error), cacheable func(T) bool) (T, bool, error) {
	var zero T

	raw, found, err := c.Get(ctx, key)
	if err != nil {
		slog.Warn("cache read failed", "key", key, "error", err)
	}
	if found {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, true, nil
		}
		// stale or corrupt entry, drop it and recompute
		_ = c.Delete(ctx, key)
	}

	value, err := compute(ctx)
	if err != nil {
		return zero, false, err
	}
	if !cacheable(value) {
		return value, false, nil
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return zero, false, fmt.Errorf("encoding cache value: %w", err)
	}
	if err := c.Set(ctx, key, encoded, ttl); err != nil {
		slog.Warn("cache write failed", "key", key, "error", err)
	}

	return value, false, nil
}
