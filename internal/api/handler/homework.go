package handler

import (
	"context"
	"encoding/json"
	"net/http"

	mw "github.com/minyuzhao/rtutor/internal/api/middleware"
	"github.com/minyuzhao/rtutor/internal/api/response"
	"github.com/minyuzhao/rtutor/internal/service"
)

// HomeworkSolver defines the interface the handler depends on.
type HomeworkSolver interface {
	SolveHomework(ctx context.Context, question, clientIP string) (*service.HomeworkResult, error)
}

// NewHomeworkHandler returns an http.HandlerFunc for POST /api/v1/homework.
func NewHomeworkHandler(svc HomeworkSolver) http.HandlerFunc {
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

		result, err := svc.SolveHomework(r.Context(), req.Question, mw.GetClientIP(r))
		if err != nil {
			serviceError(w, err)
			return
		}

		response.JSON(w, "解决方案生成成功", result)
	}
}
