package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/minyuzhao/rtutor/internal/analysis"
	"github.com/minyuzhao/rtutor/internal/api/response"
)

// QualityAnalyzer defines the interface the handler depends on.
type QualityAnalyzer interface {
	AnalyzeQuality(ctx context.Context, code string) (*analysis.QualityReport, bool, error)
}

// NewQualityHandler returns an http.HandlerFunc for POST /api/v1/quality.
func NewQualityHandler(svc QualityAnalyzer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Code string `json:"code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Code == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "code is required", nil)
			return
		}

		report, cached, err := svc.AnalyzeQuality(r.Context(), req.Code)
		if err != nil {
			serviceError(w, err)
			return
		}

		response.JSON(w, "代码质量分析完成", map[string]any{
			"report": report,
			"cached": cached,
		})
	}
}
