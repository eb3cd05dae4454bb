package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/minyuzhao/rtutor/internal/api/response"
	"github.com/minyuzhao/rtutor/internal/store"
	"github.com/minyuzhao/rtutor/pkg/models"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// HistoryReader defines the interface the history handlers depend on.
type HistoryReader interface {
	History(ctx context.Context, filter store.RequestLogFilter) ([]*models.RequestLog, int, error)
	GetRequest(ctx context.Context, id uuid.UUID) (*models.RequestLog, []*models.Solution, error)
}

// NewHistoryHandler returns an http.HandlerFunc for GET /api/v1/history.
func NewHistoryHandler(svc HistoryReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		filter := store.RequestLogFilter{
			Page:  parsePositiveInt(q.Get("page"), 1),
			Limit: parsePositiveInt(q.Get("limit"), defaultPageLimit),
		}
		if filter.Limit > maxPageLimit {
			filter.Limit = maxPageLimit
		}

		if t := q.Get("type"); t != "" {
			reqType := models.RequestType(t)
			if !reqType.Valid() {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"type must be a known request type", nil)
				return
			}
			filter.RequestType = reqType
		}

		if hours := parsePositiveInt(q.Get("since_hours"), 0); hours > 0 {
			filter.Since = time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
		}

		logs, total, err := svc.History(r.Context(), filter)
		if err != nil {
			serviceError(w, err)
			return
		}

		response.Collection(w, "查询成功", logs, response.PaginationMeta{
			Page:    filter.Page,
			Limit:   filter.Limit,
			Total:   total,
			HasNext: filter.Page*filter.Limit < total,
		})
	}
}

// NewRequestDetailHandler returns an http.HandlerFunc for
// GET /api/v1/history/{requestID}.
func NewRequestDetailHandler(svc HistoryReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "requestID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"requestID must be a valid UUID", nil)
			return
		}

		log, solutions, err := svc.GetRequest(r.Context(), id)
		if err != nil {
			serviceError(w, err)
			return
		}

		response.JSON(w, "查询成功", map[string]any{
			"request":   log,
			"solutions": solutions,
		})
	}
}

func parsePositiveInt(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
