package response

import (
	"encoding/json"
	"net/http"
	"time"
)

type envelope struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
}

type collectionData struct {
	Items any            `json:"items"`
	Meta  PaginationMeta `json:"meta"`
}

type errorData struct {
	ErrorCode string `json:"error_code"`
	Details   any    `json:"details,omitempty"`
}

type PaginationMeta struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasNext bool `json:"has_next"`
}

func JSON(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, envelope{
		Success:   true,
		Message:   message,
		Timestamp: now(),
		Data:      data,
	})
}

func Created(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusCreated, envelope{
		Success:   true,
		Message:   message,
		Timestamp: now(),
		Data:      data,
	})
}

func Collection(w http.ResponseWriter, message string, items any, meta PaginationMeta) {
	writeJSON(w, http.StatusOK, envelope{
		Success:   true,
		Message:   message,
		Timestamp: now(),
		Data:      collectionData{Items: items, Meta: meta},
	})
}

func Error(w http.ResponseWriter, status int, code, message string, details any) {
	writeJSON(w, status, envelope{
		Success:   false,
		Message:   message,
		Timestamp: now(),
		Data:      errorData{ErrorCode: code, Details: details},
	})
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
