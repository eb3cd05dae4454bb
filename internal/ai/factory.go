package ai

import (
	"fmt"

	"github.com/minyuzhao/rtutor/internal/ai/deepseek"
	"github.com/minyuzhao/rtutor/internal/ai/mock"
	"github.com/minyuzhao/rtutor/internal/ai/openai"
	"github.com/minyuzhao/rtutor/internal/config"
	"github.com/minyuzhao/rtutor/pkg/models"
)

// NewProvider constructs the appropriate AI provider based on config.
// Called once at server startup.
func NewProvider(cfg config.AIConfig) (models.AIProvider, error) {
	switch cfg.Provider {
	case "deepseek":
		return deepseek.NewProvider(cfg.DeepSeek), nil
	case "openai":
		return openai.NewProvider(cfg.OpenAI), nil
	case "mock":
		return mock.NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of deepseek, openai, mock", cfg.Provider)
	}
}
