package models

import (
	"time"

	"github.com/google/uuid"
)

// Metric records the outcome of one service operation, for the dashboard and
// audit views. Not part of any decision logic.
type Metric struct {
	ID           uuid.UUID      `db:"id"            json:"id"`
	Operation    string         `db:"operation"     json:"operation"`
	DurationMS   float64        `db:"duration_ms"   json:"duration_ms"`
	Success      bool           `db:"success"       json:"success"`
	ErrorMessage *string        `db:"error_message" json:"error_message,omitempty"`
	Details      map[string]any `db:"details"       json:"details,omitempty"`
	CreatedAt    time.Time      `db:"created_at"    json:"created_at"`
}

// OperationStat aggregates metrics for one operation within a window.
type OperationStat struct {
	Operation     string  `json:"operation"`
	Count         int     `json:"count"`
	AvgDurationMS float64 `json:"avg_duration_ms"`
	SuccessRate   float64 `json:"success_rate"`
}

// MetricsSummary is the aggregate view over a time window.
type MetricsSummary struct {
	TotalOperations int             `json:"total_operations"`
	ErrorCount      int             `json:"error_count"`
	SuccessRate     float64         `json:"success_rate"`
	Operations      []OperationStat `json:"operations"`
	PeriodHours     int             `json:"period_hours"`
}
