// Package deepseek implements models.AIProvider against the DeepSeek
// chat completion API, which speaks the OpenAI wire protocol.
package deepseek

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/minyuzhao/rtutor/internal/config"
	"github.com/minyuzhao/rtutor/pkg/models"
)

// Provider implements models.AIProvider using DeepSeek.
type Provider struct {
	client *openai.Client
	model  string
}

func NewProvider(cfg config.DeepSeekConfig) *Provider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	return &Provider{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
}

func (p *Provider) Name() string { return "deepseek" }

func (p *Provider) Complete(ctx context.Context, req models.CompletionRequest) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", models.ErrInferenceTimeout
		}
		return "", fmt.Errorf("deepseek chat completion: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", models.ErrInvalidResponse
	}

	return resp.Choices[0].Message.Content, nil
}

var _ models.AIProvider = (*Provider)(nil)
