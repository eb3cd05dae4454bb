package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/minyuzhao/rtutor/internal/api/response"
	"github.com/minyuzhao/rtutor/pkg/models"
)

const (
	defaultMetricsHours = 24
	maxMetricsHours     = 168
)

// MetricsReader defines the interface the metrics handler depends on.
type MetricsReader interface {
	Metrics(ctx context.Context, period time.Duration) (*models.MetricsSummary, error)
}

// NewMetricsHandler returns an http.HandlerFunc for GET /api/v1/metrics.
func NewMetricsHandler(svc MetricsReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hours := parsePositiveInt(r.URL.Query().Get("hours"), defaultMetricsHours)
		if hours > maxMetricsHours {
			hours = maxMetricsHours
		}

		summary, err := svc.Metrics(r.Context(), time.Duration(hours)*time.Hour)
		if err != nil {
			serviceError(w, err)
			return
		}

		response.JSON(w, "查询成功", summary)
	}
}
