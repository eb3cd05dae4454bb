package models

import (
	"context"
	"errors"
)

var (
	ErrProviderUnavailable = errors.New("ai provider unavailable")
	ErrInferenceTimeout    = errors.New("ai inference timeout")
	ErrInvalidResponse     = errors.New("ai provider returned invalid response")
)

// CompletionRequest carries one prompt plus the sampling parameters for it.
type CompletionRequest struct {
	Prompt      string
	RequestType RequestType
	MaxTokens   int
	Temperature float32
}

// AIProvider is the core interface that all completion integrations must implement.
// Implementations live in internal/ai/<provider>/.
type AIProvider interface {
	// Name returns the provider identifier, e.g. "deepseek".
	Name() string

	// Complete sends a prompt and returns the model's text response.
	// Implementations must respect ctx cancellation.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
