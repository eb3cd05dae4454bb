package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/minyuzhao/rtutor/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	CreateRequestLog(ctx context.Context, log *models.RequestLog) error
	SetRequestLogResponse(ctx context.Context, id uuid.UUID, response string) error
	GetRequestLog(ctx context.Context, id uuid.UUID) (*models.RequestLog, error)
	ListRequestLogs(ctx context.Context, filter RequestLogFilter) ([]*models.RequestLog, int, error)

	CreateSolutions(ctx context.Context, requestLogID uuid.UUID, solutions []*models.Solution) error
	GetSolutions(ctx context.Context, requestLogID uuid.UUID) ([]*models.Solution, error)

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID) error

	RecordMetric(ctx context.Context, metric *models.Metric) error
	MetricsSummary(ctx context.Context, period time.Duration) (*models.MetricsSummary, error)
}

// RequestLogFilter narrows and paginates ListRequestLogs.
type RequestLogFilter struct {
	RequestType models.RequestType
	Since       time.Time
	Page        int
	Limit       int
}
