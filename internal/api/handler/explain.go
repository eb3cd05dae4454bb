package handler

import (
	"context"
	"encoding/json"
	"net/http"

	mw "github.com/minyuzhao/rtutor/internal/api/middleware"
	"github.com/minyuzhao/rtutor/internal/api/response"
	"github.com/minyuzhao/rtutor/internal/service"
)

// CodeExplainer defines the interface the handler depends on.
type CodeExplainer interface {
	ExplainCode(ctx context.Context, code, userQuery, fileContent string, selectedLines []int, clientIP string) (*service.ExplanationResult, error)
}

// NewExplainHandler returns an http.HandlerFunc for POST /api/v1/explain.
func NewExplainHandler(svc CodeExplainer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Code          string `json:"code"`
			Query         string `json:"query"`
			FileContent   string `json:"file_content"`
			SelectedLines []int  `json:"selected_lines"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Code == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "code is required", nil)
			return
		}

		result, err := svc.ExplainCode(r.Context(), req.Code, req.Query, req.FileContent, req.SelectedLines, mw.GetClientIP(r))
		if err != nil {
			serviceError(w, err)
			return
		}

		response.JSON(w, "代码解释生成成功", result)
	}
}
