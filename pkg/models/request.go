// Package models contains shared data models used across the rtutor codebase.
package models

import (
	"time"

	"github.com/google/uuid"
)

// RequestType tags a user-facing request with the kind of AI work it asks for.
type RequestType string

const (
	RequestTypeHomework     RequestType = "homework"
	RequestTypeExplanation  RequestType = "explanation"
	RequestTypeChat         RequestType = "chat"
	RequestTypeAnalysis     RequestType = "analysis"
	RequestTypeGeneration   RequestType = "code_generation"
	RequestTypeOptimization RequestType = "optimization"
)

// Valid reports whether t is one of the known request types.
func (t RequestType) Valid() bool {
	switch t {
	case RequestTypeHomework, RequestTypeExplanation, RequestTypeChat,
		RequestTypeAnalysis, RequestTypeGeneration, RequestTypeOptimization:
		return true
	}
	return false
}

// ChatMessage is one turn of a conversation as sent by the client.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RequestLog is one row per user-facing action. The input is captured when the
// row is created; AIResponse is set exactly once after the pipeline (or the
// fallback) completes.
type RequestLog struct {
	ID          uuid.UUID   `db:"id"           json:"id"`
	RequestType RequestType `db:"request_type" json:"request_type"`
	UserInput   string      `db:"user_input"   json:"user_input"`
	AIResponse  *string     `db:"ai_response"  json:"ai_response,omitempty"`
	IPAddress   *string     `db:"ip_address"   json:"ip_address,omitempty"`
	CreatedAt   time.Time   `db:"created_at"   json:"created_at"`
}

// Solution is one of the (usually three) R solutions generated for a homework
// request. Solutions are deleted by cascade with their parent request log.
type Solution struct {
	ID           uuid.UUID `db:"id"             json:"id"`
	RequestLogID uuid.UUID `db:"request_log_id" json:"request_log_id"`
	Name         string    `db:"name"           json:"name"`
	Code         string    `db:"code"           json:"code"`
	Description  string    `db:"description"    json:"description"`
	Position     int       `db:"position"       json:"position"`
	CreatedAt    time.Time `db:"created_at"     json:"created_at"`
}
