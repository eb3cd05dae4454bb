package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/minyuzhao/rtutor/internal/api/response"
	"github.com/minyuzhao/rtutor/internal/service"
)

// TestCaseGenerator defines the interface the test-case handler depends on.
type TestCaseGenerator interface {
	GenerateTestCases(ctx context.Context, code, functionName string) (string, error)
}

// Optimizer defines the interface the optimization handler depends on.
type Optimizer interface {
	SuggestOptimizations(ctx context.Context, code string) (*service.OptimizationResult, error)
}

// NewTestCasesHandler returns an http.HandlerFunc for POST /api/v1/testcases.
func NewTestCasesHandler(svc TestCaseGenerator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Code         string `json:"code"`
			FunctionName string `json:"function_name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Code == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "code is required", nil)
			return
		}

		testCases, err := svc.GenerateTestCases(r.Context(), req.Code, req.FunctionName)
		if err != nil {
			serviceError(w, err)
			return
		}

		response.JSON(w, "测试用例生成成功", map[string]string{
			"test_cases": testCases,
		})
	}
}

// NewOptimizeHandler returns an http.HandlerFunc for POST /api/v1/optimize.
func NewOptimizeHandler(svc Optimizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Code string `json:"code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Code == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "code is required", nil)
			return
		}

		result, err := svc.SuggestOptimizations(r.Context(), req.Code)
		if err != nil {
			serviceError(w, err)
			return
		}

		response.JSON(w, "优化建议生成成功", result)
	}
}
