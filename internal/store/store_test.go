package store_test

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/minyuzhao/rtutor/internal/store"
	"github.com/minyuzhao/rtutor/pkg/models"
)

// migrationsDir returns the absolute path to the migrations directory.
func migrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

// setupTestDB spins up a Postgres container, runs migrations, and returns a pool.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("rtutor_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	err = store.RunMigrations(connStr, migrationsDir())
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	return pool
}

func newRequestLog(reqType models.RequestType, input string) *models.RequestLog {
	ip := "203.0.113.7"
	return &models.RequestLog{
		ID:          uuid.New(),
		RequestType: reqType,
		UserInput:   input,
		IPAddress:   &ip,
		CreatedAt:   time.Now().UTC(),
	}
}

// --- Request Log Tests ---

func TestRequestLog_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	log := newRequestLog(models.RequestTypeHomework, "计算向量的平均值")
	require.NoError(t, s.CreateRequestLog(ctx, log))

	got, err := s.GetRequestLog(ctx, log.ID)
	require.NoError(t, err)
	assert.Equal(t, log.ID, got.ID)
	assert.Equal(t, models.RequestTypeHomework, got.RequestType)
	assert.Equal(t, "计算向量的平均值", got.UserInput)
	assert.Nil(t, got.AIResponse)
	require.NotNil(t, got.IPAddress)
	assert.Equal(t, "203.0.113.7", *got.IPAddress)
}

func TestRequestLog_GetMissing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	_, err := s.GetRequestLog(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRequestLog_SetResponse(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	log := newRequestLog(models.RequestTypeChat, "你好")
	require.NoError(t, s.CreateRequestLog(ctx, log))

	require.NoError(t, s.SetRequestLogResponse(ctx, log.ID, "你好！有什么可以帮您？"))

	got, err := s.GetRequestLog(ctx, log.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AIResponse)
	assert.Equal(t, "你好！有什么可以帮您？", *got.AIResponse)
}

func TestRequestLog_SetResponseMissing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	err := s.SetRequestLogResponse(context.Background(), uuid.New(), "x")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRequestLog_ListFilterAndPaginate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.CreateRequestLog(ctx, newRequestLog(models.RequestTypeHomework, "q")))
	}
	require.NoError(t, s.CreateRequestLog(ctx, newRequestLog(models.RequestTypeChat, "hi")))

	logs, total, err := s.ListRequestLogs(ctx, store.RequestLogFilter{RequestType: models.RequestTypeHomework})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, logs, 3)

	logs, total, err = s.ListRequestLogs(ctx, store.RequestLogFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, logs, 2)

	logs, _, err = s.ListRequestLogs(ctx, store.RequestLogFilter{Limit: 2, Page: 2})
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

// --- Solution Tests ---

func TestSolutions_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	log := newRequestLog(models.RequestTypeHomework, "排序")
	require.NoError(t, s.CreateRequestLog(ctx, log))

	now := time.Now().UTC()
	sols := []*models.Solution{
		{ID: uuid.New(), RequestLogID: log.ID, Name: "方案二", Code: "sort(x)", Description: "基础排序", Position: 2, CreatedAt: now},
		{ID: uuid.New(), RequestLogID: log.ID, Name: "方案一", Code: "order(x)", Description: "索引排序", Position: 1, CreatedAt: now},
	}
	require.NoError(t, s.CreateSolutions(ctx, log.ID, sols))

	got, err := s.GetSolutions(ctx, log.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// ordered by position
	assert.Equal(t, "方案一", got[0].Name)
	assert.Equal(t, "方案二", got[1].Name)
}

func TestSolutions_CascadeDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	log := newRequestLog(models.RequestTypeHomework, "q")
	require.NoError(t, s.CreateRequestLog(ctx, log))
	require.NoError(t, s.CreateSolutions(ctx, log.ID, []*models.Solution{
		{ID: uuid.New(), RequestLogID: log.ID, Name: "n", Code: "c", Position: 1, CreatedAt: time.Now().UTC()},
	}))

	_, err := pool.Exec(ctx, `DELETE FROM request_logs WHERE id = $1`, log.ID)
	require.NoError(t, err)

	got, err := s.GetSolutions(ctx, log.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// --- API Key Tests ---

func TestAPIKey_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	key := &models.APIKey{
		ID:        uuid.New(),
		Name:      "admin key",
		KeyHash:   "$2a$10$hash",
		KeyPrefix: "rt_abc123",
		Scopes:    []string{"admin"},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.CreateAPIKey(ctx, key))

	keys, err := s.GetAPIKeyByPrefix(ctx, "rt_abc123")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, key.ID, keys[0].ID)
	assert.Equal(t, []string{"admin"}, keys[0].Scopes)
}

func TestAPIKey_Revoke(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	key := &models.APIKey{
		ID:        uuid.New(),
		Name:      "to revoke",
		KeyHash:   "$2a$10$hash",
		KeyPrefix: "rt_gone",
		Scopes:    []string{"admin"},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.CreateAPIKey(ctx, key))
	require.NoError(t, s.RevokeAPIKey(ctx, key.ID))

	keys, err := s.GetAPIKeyByPrefix(ctx, "rt_gone")
	require.NoError(t, err)
	assert.Empty(t, keys)

	// revoking twice reports not found
	assert.ErrorIs(t, s.RevokeAPIKey(ctx, key.ID), store.ErrNotFound)
}

func TestAPIKey_UpdateLastUsed(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	key := &models.APIKey{
		ID:        uuid.New(),
		Name:      "used key",
		KeyHash:   "$2a$10$hash",
		KeyPrefix: "rt_used",
		Scopes:    []string{"admin"},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.CreateAPIKey(ctx, key))
	require.NoError(t, s.UpdateAPIKeyLastUsed(ctx, key.ID))

	keys, err := s.ListAPIKeys(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.NotNil(t, keys[0].LastUsedAt)
}

// --- Metrics Tests ---

func TestMetrics_RecordAndSummarize(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	errMsg := "provider unavailable"
	metrics := []*models.Metric{
		{ID: uuid.New(), Operation: "homework", DurationMS: 1200, Success: true, CreatedAt: time.Now().UTC()},
		{ID: uuid.New(), Operation: "homework", DurationMS: 800, Success: true, CreatedAt: time.Now().UTC()},
		{ID: uuid.New(), Operation: "chat", DurationMS: 400, Success: false, ErrorMessage: &errMsg,
			Details: map[string]any{"provider": "deepseek"}, CreatedAt: time.Now().UTC()},
	}
	for _, m := range metrics {
		require.NoError(t, s.RecordMetric(ctx, m))
	}

	summary, err := s.MetricsSummary(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalOperations)
	assert.Equal(t, 1, summary.ErrorCount)
	assert.InDelta(t, 2.0/3.0, summary.SuccessRate, 0.001)
	assert.Equal(t, 24, summary.PeriodHours)

	require.Len(t, summary.Operations, 2)
	assert.Equal(t, "homework", summary.Operations[0].Operation)
	assert.Equal(t, 2, summary.Operations[0].Count)
	assert.InDelta(t, 1000, summary.Operations[0].AvgDurationMS, 0.001)
	assert.InDelta(t, 1.0, summary.Operations[0].SuccessRate, 0.001)
}

func TestMetrics_EmptySummary(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	summary, err := s.MetricsSummary(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalOperations)
	assert.Equal(t, 0.0, summary.SuccessRate)
	assert.Empty(t, summary.Operations)
}
