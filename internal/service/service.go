// Package service orchestrates the tutoring operations: it validates
// input, consults the cache, drives the analysis pipelines, persists
// request logs, and falls back to degraded single-call answers when a
// pipeline cannot complete.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/minyuzhao/rtutor/internal/analysis"
	"github.com/minyuzhao/rtutor/internal/cache"
	"github.com/minyuzhao/rtutor/internal/pipeline"
	"github.com/minyuzhao/rtutor/internal/prompt"
	"github.com/minyuzhao/rtutor/internal/store"
	"github.com/minyuzhao/rtutor/pkg/models"
)

// Input limits enforced before any model call, counted in characters.
const (
	MaxQuestionLen = 2000
	MaxCodeLen     = 5000
)

var (
	ErrEmptyInput   = errors.New("input must not be empty")
	ErrInputTooLong = errors.New("input exceeds maximum length")
	ErrUnsafeCode   = errors.New("code failed safety validation")
)

// Workflow labels reported alongside each answer.
const (
	WorkflowEnhanced = "langgraph_enhanced"
	WorkflowFallback = "fallback"
	WorkflowError    = "error"
)

// Service is the application core. All handlers call into it.
type Service struct {
	provider models.AIProvider
	store    store.Store
	cache    cache.Cache

	codeAnalysis *pipeline.CodeAnalysis
	conversation *pipeline.Conversation
	qa           *pipeline.QA

	cacheTTL time.Duration
	timeout  time.Duration
}

// New wires a Service from its dependencies.
func New(provider models.AIProvider, st store.Store, ca cache.Cache, cacheTTL, timeout time.Duration) *Service {
	return &Service{
		provider:     provider,
		store:        st,
		cache:        ca,
		codeAnalysis: pipeline.NewCodeAnalysis(provider),
		conversation: pipeline.NewConversation(provider),
		qa:           pipeline.NewQA(provider),
		cacheTTL:     cacheTTL,
		timeout:      timeout,
	}
}

// HomeworkResult is the outcome of a homework request.
type HomeworkResult struct {
	RequestID uuid.UUID         `json:"request_id"`
	Solutions []SolutionPayload `json:"solutions"`
	Cached    bool              `json:"cached"`
}

// SolveHomework generates three R solutions for a homework question.
// Responses are memoized by question hash; every request is logged.
func (s *Service) SolveHomework(ctx context.Context, question, clientIP string) (*HomeworkResult, error) {
	question = analysis.SanitizeInput(question)
	if question == "" {
		return nil, ErrEmptyInput
	}
	if utf8.RuneCountInString(question) > MaxQuestionLen {
		return nil, ErrInputTooLong
	}

	start := time.Now()
	logID := s.logRequest(ctx, models.RequestTypeHomework, question, clientIP)

	key := cache.ResponseKey(models.RequestTypeHomework, cache.PayloadHash(question))
	solutions, cached, err := cache.GetOrCompute(ctx, s.cache, key, s.cacheTTL,
		func(ctx context.Context) ([]SolutionPayload, error) {
			return s.generateSolutions(ctx, question), nil
		})
	if err != nil {
		return nil, err
	}

	if logID != uuid.Nil {
		responseJSON, _ := json.Marshal(solutions)
		s.setLogResponse(ctx, logID, string(responseJSON))
		s.persistSolutions(ctx, logID, solutions)
	}

	s.recordMetric(ctx, "homework", start, true, nil, map[string]any{"cached": cached})

	return &HomeworkResult{RequestID: logID, Solutions: solutions, Cached: cached}, nil
}

func (s *Service) generateSolutions(ctx context.Context, question string) []SolutionPayload {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cfg := prompt.ConfigFor(models.RequestTypeHomework)
	response, err := s.provider.Complete(ctx, models.CompletionRequest{
		Prompt:      prompt.Homework(question),
		RequestType: models.RequestTypeHomework,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	})
	if err != nil {
		slog.Warn("homework generation failed, using fallback solutions", "error", err)
		return FallbackSolutions()
	}
	return ParseSolutions(response)
}

// ExplanationResult is the outcome of a code explanation request.
type ExplanationResult struct {
	RequestID      uuid.UUID `json:"request_id"`
	Explanation    string    `json:"explanation"`
	Confidence     float64   `json:"confidence"`
	Workflow       string    `json:"workflow_type"`
	Suggestions    []string  `json:"suggestions"`
	ReasoningChain []string  `json:"reasoning_chain"`
	Cached         bool      `json:"cached"`
}

// explanationPayload is the cacheable portion of an ExplanationResult.
type explanationPayload struct {
	Explanation    string   `json:"explanation"`
	Confidence     float64  `json:"confidence"`
	Workflow       string   `json:"workflow_type"`
	Suggestions    []string `json:"suggestions"`
	ReasoningChain []string `json:"reasoning_chain"`
}

// ExplainCode runs the staged analysis flow over R code and returns the
// synthesized explanation, degrading to a single direct call when the
// flow cannot produce one.
func (s *Service) ExplainCode(ctx context.Context, code, userQuery, fileContent string, selectedLines []int, clientIP string) (*ExplanationResult, error) {
	if code == "" {
		return nil, ErrEmptyInput
	}
	if utf8.RuneCountInString(code) > MaxCodeLen {
		return nil, ErrInputTooLong
	}
	if safety := analysis.ValidateRCode(code); !safety.IsSafe {
		return nil, fmt.Errorf("%w: %v", ErrUnsafeCode, safety.Issues)
	}

	start := time.Now()
	logID := s.logRequest(ctx, models.RequestTypeExplanation, code, clientIP)

	lineKey, _ := json.Marshal(selectedLines)
	key := cache.ResponseKey(models.RequestTypeExplanation,
		cache.PayloadHash(code, userQuery, string(lineKey)))

	// Degraded answers are served but never memoized, so a later call
	// can recover to the full flow.
	payload, cached, err := cache.GetOrComputeIf(ctx, s.cache, key, s.cacheTTL,
		func(ctx context.Context) (explanationPayload, error) {
			return s.explain(ctx, code, userQuery, fileContent, selectedLines), nil
		},
		func(p explanationPayload) bool { return p.Workflow == WorkflowEnhanced })
	if err != nil {
		return nil, err
	}

	s.setLogResponse(ctx, logID, payload.Explanation)
	s.recordMetric(ctx, "explanation", start, payload.Workflow != WorkflowError,
		nil, map[string]any{"cached": cached, "workflow": payload.Workflow})

	return &ExplanationResult{
		RequestID:      logID,
		Explanation:    payload.Explanation,
		Confidence:     payload.Confidence,
		Workflow:       payload.Workflow,
		Suggestions:    payload.Suggestions,
		ReasoningChain: payload.ReasoningChain,
		Cached:         cached,
	}, nil
}

func (s *Service) explain(ctx context.Context, code, userQuery, fileContent string, selectedLines []int) explanationPayload {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rec := pipeline.NewRecord(code, userQuery, selectedLines)
	rec.FileContent = fileContent
	rec = s.codeAnalysis.Run(ctx, rec)
	if rec.FinalExplanation != "" {
		return explanationPayload{
			Explanation:    rec.FinalExplanation,
			Confidence:     rec.Confidence,
			Workflow:       WorkflowEnhanced,
			Suggestions:    rec.Suggestions,
			ReasoningChain: rec.ReasoningChain,
		}
	}

	slog.Warn("analysis flow produced no explanation, falling back to direct call")

	cfg := prompt.ConfigFor(models.RequestTypeExplanation)
	response, err := s.provider.Complete(ctx, models.CompletionRequest{
		Prompt:      prompt.SimpleExplanation(code, userQuery, selectedLines),
		RequestType: models.RequestTypeExplanation,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	})
	if err != nil {
		return explanationPayload{
			Explanation: prompt.FallbackMessage(models.RequestTypeExplanation),
			Confidence:  0.1,
			Workflow:    WorkflowError,
		}
	}

	return explanationPayload{
		Explanation: response,
		Confidence:  0.7,
		Workflow:    WorkflowFallback,
	}
}

// ChatResult is the outcome of a chat turn.
type ChatResult struct {
	RequestID    uuid.UUID `json:"request_id"`
	Response     string    `json:"response"`
	Confidence   float64   `json:"confidence"`
	Workflow     string    `json:"workflow_type"`
	Intent       string    `json:"intent"`
	ResponseType string    `json:"response_type"`
	Cached       bool      `json:"cached"`
}

type chatPayload struct {
	Response     string  `json:"response"`
	Confidence   float64 `json:"confidence"`
	Workflow     string  `json:"workflow_type"`
	Intent       string  `json:"intent"`
	ResponseType string  `json:"response_type"`
}

// Chat answers a free-form message through the conversation flow.
// Chat answers are cached for half the standard TTL.
func (s *Service) Chat(ctx context.Context, message string, history []models.ChatMessage, clientIP string) (*ChatResult, error) {
	message = analysis.SanitizeInput(message)
	if message == "" {
		return nil, ErrEmptyInput
	}
	if utf8.RuneCountInString(message) > MaxQuestionLen {
		return nil, ErrInputTooLong
	}

	start := time.Now()
	logID := s.logRequest(ctx, models.RequestTypeChat, message, clientIP)

	historyJSON, _ := json.Marshal(history)
	key := cache.ResponseKey(models.RequestTypeChat, cache.PayloadHash(message, string(historyJSON)))

	payload, cached, err := cache.GetOrComputeIf(ctx, s.cache, key, s.cacheTTL/2,
		func(ctx context.Context) (chatPayload, error) {
			return s.chat(ctx, message, history), nil
		},
		func(p chatPayload) bool { return p.Workflow == WorkflowEnhanced })
	if err != nil {
		return nil, err
	}

	s.setLogResponse(ctx, logID, payload.Response)
	s.recordMetric(ctx, "chat", start, payload.Workflow != WorkflowError,
		nil, map[string]any{"cached": cached, "workflow": payload.Workflow})

	return &ChatResult{
		RequestID:    logID,
		Response:     payload.Response,
		Confidence:   payload.Confidence,
		Workflow:     payload.Workflow,
		Intent:       payload.Intent,
		ResponseType: payload.ResponseType,
		Cached:       cached,
	}, nil
}

func (s *Service) chat(ctx context.Context, message string, history []models.ChatMessage) chatPayload {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rec := s.conversation.Run(ctx, pipeline.ConversationRecord{
		Query:          message,
		ContextSummary: pipeline.ContextSummary(history),
		History:        history,
	})
	if rec.Confidence > 0.3 {
		return chatPayload{
			Response:     rec.FinalResponse,
			Confidence:   rec.Confidence,
			Workflow:     WorkflowEnhanced,
			Intent:       rec.Intent,
			ResponseType: rec.ResponseType,
		}
	}

	slog.Warn("conversation flow failed, falling back to direct call")

	cfg := prompt.ConfigFor(models.RequestTypeChat)
	response, err := s.provider.Complete(ctx, models.CompletionRequest{
		Prompt:      prompt.Chat(message),
		RequestType: models.RequestTypeChat,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	})
	if err != nil {
		return chatPayload{
			Response:     prompt.FallbackMessage(models.RequestTypeChat),
			Confidence:   0.1,
			Workflow:     WorkflowError,
			Intent:       "unknown",
			ResponseType: "error",
		}
	}

	return chatPayload{
		Response:     response,
		Confidence:   0.7,
		Workflow:     WorkflowFallback,
		Intent:       "general_inquiry",
		ResponseType: "conversational",
	}
}

// QAResult is the outcome of an intelligent question-answering run.
type QAResult struct {
	Answer            string                   `json:"answer"`
	Confidence        float64                  `json:"confidence"`
	Complexity        string                   `json:"complexity"`
	QueryType         string                   `json:"query_type"`
	SubQuestions      []string                 `json:"sub_questions"`
	PartialAnswers    []pipeline.PartialAnswer `json:"partial_answers"`
	Sources           []string                 `json:"sources"`
	FollowUpQuestions []string                 `json:"follow_up_questions"`
	ReasoningSteps    []string                 `json:"reasoning_steps"`
}

// AnswerQuestion runs the decomposing QA flow over a standalone question.
func (s *Service) AnswerQuestion(ctx context.Context, query, clientIP string) (*QAResult, error) {
	query = analysis.SanitizeInput(query)
	if query == "" {
		return nil, ErrEmptyInput
	}
	if utf8.RuneCountInString(query) > MaxQuestionLen {
		return nil, ErrInputTooLong
	}

	start := time.Now()
	logID := s.logRequest(ctx, models.RequestTypeAnalysis, query, clientIP)

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rec := s.qa.Run(runCtx, pipeline.QARecord{Query: query})

	s.setLogResponse(ctx, logID, rec.FinalAnswer)
	s.recordMetric(ctx, "qa", start, rec.Confidence > 0.2, nil, map[string]any{
		"complexity": rec.Complexity,
		"query_type": rec.QueryType,
	})

	return &QAResult{
		Answer:            rec.FinalAnswer,
		Confidence:        rec.Confidence,
		Complexity:        rec.Complexity,
		QueryType:         rec.QueryType,
		SubQuestions:      rec.SubQuestions,
		PartialAnswers:    rec.PartialAnswers,
		Sources:           rec.Sources,
		FollowUpQuestions: rec.FollowUpQuestions,
		ReasoningSteps:    rec.ReasoningSteps,
	}, nil
}

// AnalyzeQuality computes the local quality report for R code. Reports
// are memoized by code hash.
func (s *Service) AnalyzeQuality(ctx context.Context, code string) (*analysis.QualityReport, bool, error) {
	if code == "" {
		return nil, false, ErrEmptyInput
	}
	if safety := analysis.ValidateRCode(code); !safety.IsSafe {
		return nil, false, fmt.Errorf("%w: %v", ErrUnsafeCode, safety.Issues)
	}

	key := cache.QualityKey(cache.PayloadHash(code))
	report, cached, err := cache.GetOrCompute(ctx, s.cache, key, s.cacheTTL,
		func(context.Context) (analysis.QualityReport, error) {
			return analysis.AnalyzeQuality(code), nil
		})
	if err != nil {
		return nil, false, err
	}
	return &report, cached, nil
}

// GenerateTestCases asks the model for a testthat suite covering code.
func (s *Service) GenerateTestCases(ctx context.Context, code, functionName string) (string, error) {
	if code == "" {
		return "", ErrEmptyInput
	}
	if utf8.RuneCountInString(code) > MaxCodeLen {
		return "", ErrInputTooLong
	}

	start := time.Now()

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cfg := prompt.ConfigFor(models.RequestTypeGeneration)
	response, err := s.provider.Complete(runCtx, models.CompletionRequest{
		Prompt:      prompt.TestCases(code, functionName),
		RequestType: models.RequestTypeGeneration,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	})
	s.recordMetric(ctx, "test_cases", start, err == nil, err, nil)
	if err != nil {
		return "", fmt.Errorf("generating test cases: %w", err)
	}
	return response, nil
}

// OptimizationResult pairs the model's advice with the local heuristics.
type OptimizationResult struct {
	Suggestions      string   `json:"suggestions"`
	LocalSuggestions []string `json:"local_suggestions"`
}

// SuggestOptimizations asks the model for performance advice on code and
// attaches the locally detected improvement opportunities.
func (s *Service) SuggestOptimizations(ctx context.Context, code string) (*OptimizationResult, error) {
	if code == "" {
		return nil, ErrEmptyInput
	}
	if utf8.RuneCountInString(code) > MaxCodeLen {
		return nil, ErrInputTooLong
	}

	start := time.Now()

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cfg := prompt.ConfigFor(models.RequestTypeOptimization)
	response, err := s.provider.Complete(runCtx, models.CompletionRequest{
		Prompt:      prompt.Optimization(code),
		RequestType: models.RequestTypeOptimization,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	})
	s.recordMetric(ctx, "optimization", start, err == nil, err, nil)
	if err != nil {
		return nil, fmt.Errorf("suggesting optimizations: %w", err)
	}

	return &OptimizationResult{
		Suggestions:      response,
		LocalSuggestions: analysis.PerformanceSuggestions(code),
	}, nil
}

// History lists past request logs, newest first.
func (s *Service) History(ctx context.Context, filter store.RequestLogFilter) ([]*models.RequestLog, int, error) {
	return s.store.ListRequestLogs(ctx, filter)
}

// GetRequest returns one request log with its stored solutions, if any.
func (s *Service) GetRequest(ctx context.Context, id uuid.UUID) (*models.RequestLog, []*models.Solution, error) {
	log, err := s.store.GetRequestLog(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	solutions, err := s.store.GetSolutions(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return log, solutions, nil
}

// Metrics summarizes recorded operations over the given window.
func (s *Service) Metrics(ctx context.Context, period time.Duration) (*models.MetricsSummary, error) {
	return s.store.MetricsSummary(ctx, period)
}

// logRequest persists the request log row before any model call, so the
// request is on record even if the pipeline dies. Persistence failures
// are logged but never fail the user-facing operation.
func (s *Service) logRequest(ctx context.Context, reqType models.RequestType, input, clientIP string) uuid.UUID {
	log := &models.RequestLog{
		ID:          uuid.New(),
		RequestType: reqType,
		UserInput:   input,
		CreatedAt:   time.Now().UTC(),
	}
	if clientIP != "" {
		log.IPAddress = &clientIP
	}

	if err := s.store.CreateRequestLog(ctx, log); err != nil {
		slog.Error("persisting request log failed", "type", reqType, "error", err)
		return uuid.Nil
	}
	return log.ID
}

// setLogResponse fills in the response on an existing log row.
func (s *Service) setLogResponse(ctx context.Context, logID uuid.UUID, response string) {
	if logID == uuid.Nil || response == "" {
		return
	}
	if err := s.store.SetRequestLogResponse(ctx, logID, response); err != nil {
		slog.Error("updating request log response failed", "request_id", logID, "error", err)
	}
}

func (s *Service) persistSolutions(ctx context.Context, logID uuid.UUID, payloads []SolutionPayload) {
	solutions := make([]*models.Solution, len(payloads))
	now := time.Now().UTC()
	for i, p := range payloads {
		solutions[i] = &models.Solution{
			ID:           uuid.New(),
			RequestLogID: logID,
			Name:         p.Name,
			Code:         p.Code,
			Description:  p.Description,
			Position:     i + 1,
			CreatedAt:    now,
		}
	}
	if err := s.store.CreateSolutions(ctx, logID, solutions); err != nil {
		slog.Error("persisting solutions failed", "request_id", logID, "error", err)
	}
}

func (s *Service) recordMetric(ctx context.Context, operation string, start time.Time, success bool, opErr error, details map[string]any) {
	metric := &models.Metric{
		ID:         uuid.New(),
		Operation:  operation,
		DurationMS: float64(time.Since(start)) / float64(time.Millisecond),
		Success:    success,
		Details:    details,
		CreatedAt:  time.Now().UTC(),
	}
	if opErr != nil {
		msg := opErr.Error()
		metric.ErrorMessage = &msg
	}
	if err := s.store.RecordMetric(ctx, metric); err != nil {
		slog.Warn("recording metric failed", "operation", operation, "error", err)
	}
}
