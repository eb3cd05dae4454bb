package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minyuzhao/rtutor/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Request Logs ---

func (s *PostgresStore) CreateRequestLog(ctx context.Context, log *models.RequestLog) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO request_logs (id, request_type, user_input, ai_response, ip_address, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		log.ID, log.RequestType, log.UserInput, log.AIResponse, log.IPAddress, log.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create request log: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetRequestLogResponse(ctx context.Context, id uuid.UUID, response string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE request_logs SET ai_response = $2 WHERE id = $1`, id, response)
	if err != nil {
		return fmt.Errorf("set request log response: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) GetRequestLog(ctx context.Context, id uuid.UUID) (*models.RequestLog, error) {
	var l models.RequestLog
	err := s.pool.QueryRow(ctx,
		`SELECT id, request_type, user_input, ai_response, ip_address, created_at
		 FROM request_logs WHERE id = $1`, id,
	).Scan(&l.ID, &l.RequestType, &l.UserInput, &l.AIResponse, &l.IPAddress, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get request log: %w", err)
	}
	return &l, nil
}

func (s *PostgresStore) ListRequestLogs(ctx context.Context, filter RequestLogFilter) ([]*models.RequestLog, int, error) {
	where := `WHERE 1=1`
	args := []any{}
	argIdx := 1

	if filter.RequestType != "" {
		where += fmt.Sprintf(" AND request_type = $%d", argIdx)
		args = append(args, filter.RequestType)
		argIdx++
	}
	if !filter.Since.IsZero() {
		where += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, filter.Since)
		argIdx++
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM request_logs `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count request logs: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	query := fmt.Sprintf(
		`SELECT id, request_type, user_input, ai_response, ip_address, created_at
		 FROM request_logs %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list request logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.RequestLog
	for rows.Next() {
		var l models.RequestLog
		if err := rows.Scan(&l.ID, &l.RequestType, &l.UserInput, &l.AIResponse, &l.IPAddress, &l.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan request log: %w", err)
		}
		logs = append(logs, &l)
	}
	return logs, total, rows.Err()
}

// --- Solutions ---

func (s *PostgresStore) CreateSolutions(ctx context.Context, requestLogID uuid.UUID, solutions []*models.Solution) error {
	if len(solutions) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin solutions tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, sol := range solutions {
		_, err := tx.Exec(ctx,
			`INSERT INTO solutions (id, request_log_id, name, code, description, position, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			sol.ID, requestLogID, sol.Name, sol.Code, sol.Description, sol.Position, sol.CreatedAt)
		if err != nil {
			return fmt.Errorf("create solution: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) GetSolutions(ctx context.Context, requestLogID uuid.UUID) ([]*models.Solution, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, request_log_id, name, code, description, position, created_at
		 FROM solutions WHERE request_log_id = $1 ORDER BY position ASC`, requestLogID)
	if err != nil {
		return nil, fmt.Errorf("get solutions: %w", err)
	}
	defer rows.Close()

	var solutions []*models.Solution
	for rows.Next() {
		var sol models.Solution
		if err := rows.Scan(&sol.ID, &sol.RequestLogID, &sol.Name, &sol.Code, &sol.Description, &sol.Position, &sol.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan solution: %w", err)
		}
		solutions = append(solutions, &sol)
	}
	return solutions, rows.Err()
}

// --- API Keys ---

func (s *PostgresStore) GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, key_hash, key_prefix, scopes, last_used_at, deleted_at, created_at, updated_at
		 FROM api_keys WHERE key_prefix = $1 AND deleted_at IS NULL`, prefix)
	if err != nil {
		return nil, fmt.Errorf("get api key by prefix: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Scopes,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET last_used_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update api key last used: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (id, name, key_hash, key_prefix, scopes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		key.ID, key.Name, key.KeyHash, key.KeyPrefix, key.Scopes, key.CreatedAt, key.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create api key: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAPIKeys(ctx context.Context) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, key_hash, key_prefix, scopes, last_used_at, deleted_at, created_at, updated_at
		 FROM api_keys WHERE deleted_at IS NULL ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Scopes,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) RevokeAPIKey(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Metrics ---

func (s *PostgresStore) RecordMetric(ctx context.Context, metric *models.Metric) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO metrics (id, operation, duration_ms, success, error_message, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		metric.ID, metric.Operation, metric.DurationMS, metric.Success, metric.ErrorMessage,
		metric.Details, metric.CreatedAt)
	if err != nil {
		return fmt.Errorf("record metric: %w", err)
	}
	return nil
}

func (s *PostgresStore) MetricsSummary(ctx context.Context, period time.Duration) (*models.MetricsSummary, error) {
	since := time.Now().UTC().Add(-period)

	summary := &models.MetricsSummary{
		PeriodHours: int(period.Hours()),
	}

	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE NOT success)
		 FROM metrics WHERE created_at >= $1`, since,
	).Scan(&summary.TotalOperations, &summary.ErrorCount)
	if err != nil {
		return nil, fmt.Errorf("metrics totals: %w", err)
	}

	if summary.TotalOperations > 0 {
		summary.SuccessRate = float64(summary.TotalOperations-summary.ErrorCount) / float64(summary.TotalOperations)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT operation, COUNT(*), AVG(duration_ms), AVG(CASE WHEN success THEN 1.0 ELSE 0.0 END)
		 FROM metrics WHERE created_at >= $1
		 GROUP BY operation ORDER BY COUNT(*) DESC`, since)
	if err != nil {
		return nil, fmt.Errorf("metrics by operation: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var op models.OperationStat
		if err := rows.Scan(&op.Operation, &op.Count, &op.AvgDurationMS, &op.SuccessRate); err != nil {
			return nil, fmt.Errorf("scan operation stat: %w", err)
		}
		summary.Operations = append(summary.Operations, op)
	}
	return summary, rows.Err()
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
