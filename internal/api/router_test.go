package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minyuzhao/rtutor/internal/api"
	mw "github.com/minyuzhao/rtutor/internal/api/middleware"
	"github.com/minyuzhao/rtutor/internal/cache"
	"github.com/minyuzhao/rtutor/internal/store"
	"github.com/minyuzhao/rtutor/pkg/models"
)

// --- stub store that returns empty results (all auth fails) ---

type stubStore struct{}

func (s *stubStore) Ping(_ context.Context) error { return nil }
func (s *stubStore) GetAPIKeyByPrefix(_ context.Context, _ string) ([]*models.APIKey, error) {
	return nil, nil
}
func (s *stubStore) UpdateAPIKeyLastUsed(_ context.Context, _ uuid.UUID) error { return nil }
func (s *stubStore) CreateAPIKey(_ context.Context, _ *models.APIKey) error    { return nil }
func (s *stubStore) ListAPIKeys(_ context.Context) ([]*models.APIKey, error)   { return nil, nil }
func (s *stubStore) RevokeAPIKey(_ context.Context, _ uuid.UUID) error         { return nil }
func (s *stubStore) CreateRequestLog(_ context.Context, _ *models.RequestLog) error { return nil }
func (s *stubStore) SetRequestLogResponse(_ context.Context, _ uuid.UUID, _ string) error {
	return nil
}
func (s *stubStore) GetRequestLog(_ context.Context, _ uuid.UUID) (*models.RequestLog, error) {
	return nil, store.ErrNotFound
}
func (s *stubStore) ListRequestLogs(_ context.Context, _ store.RequestLogFilter) ([]*models.RequestLog, int, error) {
	return nil, 0, nil
}
func (s *stubStore) CreateSolutions(_ context.Context, _ uuid.UUID, _ []*models.Solution) error {
	return nil
}
func (s *stubStore) GetSolutions(_ context.Context, _ uuid.UUID) ([]*models.Solution, error) {
	return nil, nil
}
func (s *stubStore) RecordMetric(_ context.Context, _ *models.Metric) error { return nil }
func (s *stubStore) MetricsSummary(_ context.Context, _ time.Duration) (*models.MetricsSummary, error) {
	return nil, nil
}

// --- stub cache ---

type stubCache struct{}

func (c *stubCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error { return nil }
func (c *stubCache) Get(_ context.Context, _ string) ([]byte, bool, error) {
	return nil, false, nil
}
func (c *stubCache) Delete(_ context.Context, _ string) error { return nil }
func (c *stubCache) Ping(_ context.Context) error             { return nil }
func (c *stubCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 1, nil
}
func (c *stubCache) Close() error { return nil }

// --- router tests ---

func newTestRouter() http.Handler {
	return api.NewRouter(api.Dependencies{
		Auth:      mw.NewAuth(&stubStore{}),
		RateLimit: mw.NewRateLimit(&stubCache{}, 60),
		HealthHandler: func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		},
	})
}

func TestRouter_HealthEndpoint_Public(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_PublicEndpoints_NoAuthRequired(t *testing.T) {
	router := newTestRouter()

	endpoints := []struct {
		method string
		path   string
	}{
		{"POST", "/api/v1/homework"},
		{"POST", "/api/v1/explain"},
		{"POST", "/api/v1/chat"},
		{"POST", "/api/v1/qa"},
		{"POST", "/api/v1/quality"},
		{"POST", "/api/v1/testcases"},
		{"POST", "/api/v1/optimize"},
		{"GET", "/api/v1/history"},
		{"GET", "/api/v1/metrics"},
	}

	for _, ep := range endpoints {
		t.Run(ep.method+" "+ep.path, func(t *testing.T) {
			req := httptest.NewRequest(ep.method, ep.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			// handlers are not wired, so unauthenticated requests reach the
			// 501 placeholder instead of being rejected
			assert.Equal(t, http.StatusNotImplemented, w.Code)
		})
	}
}

func TestRouter_AdminEndpoints_RequireAuth(t *testing.T) {
	router := newTestRouter()

	endpoints := []struct {
		method string
		path   string
	}{
		{"POST", "/api/v1/admin/keys"},
		{"GET", "/api/v1/admin/keys"},
		{"DELETE", "/api/v1/admin/keys/" + uuid.NewString()},
	}

	for _, ep := range endpoints {
		t.Run(ep.method+" "+ep.path, func(t *testing.T) {
			req := httptest.NewRequest(ep.method, ep.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			data := body["data"].(map[string]any)
			assert.Equal(t, "INVALID_TOKEN", data["error_code"])
		})
	}
}

func TestRouter_RateLimitHeaders(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest("POST", "/api/v1/homework", nil)
	req.RemoteAddr = "192.0.2.9:54321"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "60", w.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Remaining"))
}

func TestRouter_NotFound(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest("GET", "/api/v1/nonexistent", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// Verify the stubs satisfy the real interfaces
var _ store.Store = (*stubStore)(nil)
var _ cache.Cache = (*stubCache)(nil)
