package handler

import (
	"context"
	"encoding/json"
	"net/http"

	mw "github.com/minyuzhao/rtutor/internal/api/middleware"
	"github.com/minyuzhao/rtutor/internal/api/response"
	"github.com/minyuzhao/rtutor/internal/service"
	"github.com/minyuzhao/rtutor/pkg/models"
)

const maxHistoryTurns = 20

// ChatService defines the interface the handler depends on.
type ChatService interface {
	Chat(ctx context.Context, message string, history []models.ChatMessage, clientIP string) (*service.ChatResult, error)
}

// NewChatHandler returns an http.HandlerFunc for POST /api/v1/chat.
func NewChatHandler(svc ChatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Message string               `json:"message"`
			History []models.ChatMessage `json:"history"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Message == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "message is required", nil)
			return
		}
		if len(req.History) > maxHistoryTurns {
			req.History = req.History[len(req.History)-maxHistoryTurns:]
		}

		result, err := svc.Chat(r.Context(), req.Message, req.History, mw.GetClientIP(r))
		if err != nil {
			serviceError(w, err)
			return
		}

		response.JSON(w, "回复生成成功", result)
	}
}
