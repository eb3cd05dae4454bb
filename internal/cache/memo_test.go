package cache_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minyuzhao/rtutor/internal/cache"
	"github.com/minyuzhao/rtutor/pkg/models"
)

// memCache is an in-memory Cache for unit tests without Redis.
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	getErr  error
	setErr  error
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]byte{}}
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *memCache) Ping(_ context.Context) error { return nil }

func (m *memCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 0, nil
}

func (m *memCache) Close() error { return nil }

type payload struct {
	Answer string `json:"answer"`
}

func TestGetOrCompute_ComputesThenCaches(t *testing.T) {
	c := newMemCache()
	ctx := context.Background()
	calls := 0
	compute := func(context.Context) (payload, error) {
		calls++
		return payload{Answer: "42"}, nil
	}

	got, hit, err := cache.GetOrCompute(ctx, c, "k", time.Minute, compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "42", got.Answer)
	assert.Equal(t, 1, calls)

	got, hit, err = cache.GetOrCompute(ctx, c, "k", time.Minute, compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "42", got.Answer)
	assert.Equal(t, 1, calls)
}

func TestGetOrCompute_ComputeError(t *testing.T) {
	c := newMemCache()
	wantErr := errors.New("boom")

	_, hit, err := cache.GetOrCompute(context.Background(), c, "k", time.Minute,
		func(context.Context) (payload, error) { return payload{}, wantErr })

	assert.ErrorIs(t, err, wantErr)
	assert.False(t, hit)
}

func TestGetOrCompute_CacheFailuresDegrade(t *testing.T) {
	c := newMemCache()
	c.getErr = errors.New("redis down")
	c.setErr = errors.New("redis down")

	got, hit, err := cache.GetOrCompute(context.Background(), c, "k", time.Minute,
		func(context.Context) (payload, error) { return payload{Answer: "fresh"}, nil })

	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "fresh", got.Answer)
}

func TestGetOrCompute_CorruptEntryRecomputed(t *testing.T) {
	c := newMemCache()
	c.entries["k"] = []byte("{not json")

	got, hit, err := cache.GetOrCompute(context.Background(), c, "k", time.Minute,
		func(context.Context) (payload, error) { return payload{Answer: "fresh"}, nil })

	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "fresh", got.Answer)
}

func TestGetOrComputeIf_RejectedValueNotStored(t *testing.T) {
	c := newMemCache()
	ctx := context.Background()
	calls := 0
	compute := func(context.Context) (payload, error) {
		calls++
		if calls == 1 {
			return payload{Answer: "degraded"}, nil
		}
		return payload{Answer: "good"}, nil
	}
	cacheable := func(p payload) bool { return p.Answer != "degraded" }

	got, hit, err := cache.GetOrComputeIf(ctx, c, "k", time.Minute, compute, cacheable)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "degraded", got.Answer)
	assert.Empty(t, c.entries)

	// the rejected value is gone, so the next call computes again and
	// this time the result sticks
	got, hit, err = cache.GetOrComputeIf(ctx, c, "k", time.Minute, compute, cacheable)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "good", got.Answer)

	got, hit, err = cache.GetOrComputeIf(ctx, c, "k", time.Minute, compute, cacheable)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "good", got.Answer)
	assert.Equal(t, 2, calls)
}

func TestPayloadHash_Separator(t *testing.T) {
	assert.NotEqual(t, cache.PayloadHash("ab", "c"), cache.PayloadHash("a", "bc"))
	assert.Equal(t, cache.PayloadHash("a", "b"), cache.PayloadHash("a", "b"))
	assert.Len(t, cache.PayloadHash("x"), 64)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "response:homework:abc", cache.ResponseKey(models.RequestTypeHomework, "abc"))
	assert.Equal(t, "quality:abc", cache.QualityKey("abc"))
	assert.Equal(t, "ratelimit:1.2.3.4", cache.RateLimitKey("1.2.3.4"))
}
