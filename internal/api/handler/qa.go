package handler

import (
	"context"
	"encoding/json"
	"net/http"

	mw "github.com/minyuzhao/rtutor/internal/api/middleware"
	"github.com/minyuzhao/rtutor/internal/api/response"
	"github.com/minyuzhao/rtutor/internal/service"
)

// QuestionAnswerer defines the interface the handler depends on.
type QuestionAnswerer interface {
	AnswerQuestion(ctx context.Context, query, clientIP string) (*service.QAResult, error)
}

// NewQAHandler returns an http.HandlerFunc for POST /api/v1/qa.
func NewQAHandler(svc QuestionAnswerer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Question string `json:"question"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Question == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "question is required", nil)
			return
		}

		result, err := svc.AnswerQuestion(r.Context(), req.Question, mw.GetClientIP(r))
		if err != nil {
			serviceError(w, err)
			return
		}

		response.JSON(w, "问题回答成功", result)
	}
}
