package pipeline

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/minyuzhao/rtutor/internal/prompt"
	"github.com/minyuzhao/rtutor/pkg/models"
)

// Knowledge is the static reference material handed to the response stage.
type Knowledge struct {
	Concepts   []string `json:"concepts"`
	Examples   []string `json:"examples"`
	References []string `json:"references"`
}

// ConversationRecord carries one chat turn through the conversation flow.
type ConversationRecord struct {
	Query          string
	ContextSummary string
	History        []models.ChatMessage

	Intent       string
	ResponseType string
	Knowledge    Knowledge

	FinalResponse string
	Confidence    float64
}

// Conversation is the three-stage chat flow: intent, knowledge, response.
type Conversation struct {
	provider models.AIProvider
}

func NewConversation(provider models.AIProvider) *Conversation {
	return &Conversation{provider: provider}
}

// Run executes the conversation stages in order.
func (c *Conversation) Run(ctx context.Context, rec ConversationRecord) ConversationRecord {
	rec = c.analyzeIntent(ctx, rec)
	rec = c.retrieveKnowledge(rec)
	rec = c.generateResponse(ctx, rec)
	return rec
}

func (c *Conversation) complete(ctx context.Context, promptText string) (string, error) {
	cfg := prompt.ConfigFor(models.RequestTypeChat)
	return c.provider.Complete(ctx, models.CompletionRequest{
		Prompt:      promptText,
		RequestType: models.RequestTypeChat,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	})
}

func (c *Conversation) analyzeIntent(ctx context.Context, rec ConversationRecord) ConversationRecord {
	historyJSON, _ := json.Marshal(lastMessages(rec.History, 5))

	result, err := c.complete(ctx, prompt.IntentAnalysis(rec.Query, rec.ContextSummary, string(historyJSON)))
	if err != nil {
		rec.Intent = "general_inquiry"
		rec.ResponseType = "informative"
		return rec
	}

	rec.Intent = extractIntent(result)
	rec.ResponseType = responseTypeFor(rec.Intent)
	return rec
}

func (c *Conversation) retrieveKnowledge(rec ConversationRecord) ConversationRecord {
	rec.Knowledge = Knowledge{
		Concepts:   []string{"变量赋值", "数据类型", "函数定义", "数据框操作"},
		Examples:   []string{"data <- read.csv('file.csv')", "summary(data)", "plot(x, y)"},
		References: []string{"官方文档", "CRAN手册", "R语言实战"},
	}
	return rec
}

func (c *Conversation) generateResponse(ctx context.Context, rec ConversationRecord) ConversationRecord {
	knowledgeJSON, _ := json.Marshal(rec.Knowledge)
	historyJSON, _ := json.Marshal(lastMessages(rec.History, 3))

	result, err := c.complete(ctx, prompt.ContextualResponse(
		rec.Query, rec.Intent, rec.ResponseType,
		string(knowledgeJSON), rec.ContextSummary, string(historyJSON)))
	if err != nil {
		rec.FinalResponse = "抱歉，我在处理您的请求时遇到了一些问题。请稍后再试。"
		rec.Confidence = 0.3
		return rec
	}

	rec.FinalResponse = result
	rec.Confidence = 0.85
	return rec
}

// extractIntent finds the first known intent named in a model response.
func extractIntent(result string) string {
	lower := strings.ToLower(result)
	for _, intent := range []string{"code_help", "concept_explanation", "debugging", "general_inquiry"} {
		if strings.Contains(lower, intent) || strings.Contains(lower, strings.ReplaceAll(intent, "_", " ")) {
			return intent
		}
	}
	return "general_inquiry"
}

func responseTypeFor(intent string) string {
	switch intent {
	case "code_help":
		return "tutorial"
	case "concept_explanation":
		return "informative"
	case "debugging":
		return "problem_solving"
	default:
		return "conversational"
	}
}

func lastMessages(history []models.ChatMessage, n int) []models.ChatMessage {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

// ContextSummary condenses the last three turns of a conversation into
// the short summary the intent and response prompts receive. A fresh
// conversation gets a fixed marker the prompts recognize.
func ContextSummary(history []models.ChatMessage) string {
	if len(history) == 0 {
		return "这是一个新的对话"
	}

	var parts []string
	for _, msg := range lastMessages(history, 3) {
		switch msg.Role {
		case "user":
			parts = append(parts, "用户询问: "+clipRunes(msg.Content, 50)+"...")
		case "assistant":
			parts = append(parts, "助手回复: "+clipRunes(msg.Content, 50)+"...")
		}
	}
	return strings.Join(parts, " ")
}

func clipRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
