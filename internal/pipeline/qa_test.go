package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minyuzhao/rtutor/internal/ai/mock"
	"github.com/minyuzhao/rtutor/pkg/models"
)

func TestQA_AnalyzeComplexity(t *testing.T) {
	q := NewQA(okProvider("ok"))

	tests := []struct {
		name     string
		query    string
		expected string
	}{
		{"simple question", "什么是向量", "简单"},
		{"moderate question", "比较dplyr和data.table", "中等"},
		{"complex question", "设计一个数据处理架构", "复杂"},
		{"stronger tier wins", "如何深入分析数据", "复杂"},
		{"no indicator", "向量", "简单"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := q.analyzeComplexity(QARecord{Query: tt.query})
			assert.Equal(t, tt.expected, rec.Complexity)
		})
	}
}

func TestQA_DetermineType(t *testing.T) {
	q := NewQA(okProvider("ok"))

	tests := []struct {
		name     string
		query    string
		expected string
	}{
		{"concept", "什么是因子", "概念解释"},
		{"howto", "如何读取CSV", "操作指导"},
		{"debugging", "这个错误怎么解决", "问题解决"},
		{"code", "这个函数做什么", "代码分析"},
		{"fallback", "你好", "通用查询"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := q.determineType(QARecord{Query: tt.query})
			assert.Equal(t, tt.expected, rec.QueryType)
		})
	}
}

func TestQA_SimpleQueryNotDecomposed(t *testing.T) {
	calls := 0
	q := NewQA(&mock.MockProvider{
		Name_: "mock",
		CompleteFunc: func(_ context.Context, _ models.CompletionRequest) (string, error) {
			calls++
			return "ok", nil
		},
	})

	rec := q.decompose(context.Background(), QARecord{Query: "什么是向量", Complexity: "简单"})

	assert.Equal(t, []string{"什么是向量"}, rec.SubQuestions)
	assert.Zero(t, calls)
}

func TestQA_ComplexQueryDecomposedFromJSON(t *testing.T) {
	q := NewQA(okProvider(`{"sub_questions": ["什么是向量化", "为什么向量化更快", "怎么改写循环"]}`))

	rec := q.decompose(context.Background(), QARecord{Query: "优化我的循环", Complexity: "复杂", QueryType: "最佳实践"})

	assert.Equal(t, []string{"什么是向量化", "为什么向量化更快", "怎么改写循环"}, rec.SubQuestions)
}

func TestQA_DecompositionFallsBackToLines(t *testing.T) {
	q := NewQA(okProvider("第一个子问题\n\n第二个子问题"))

	rec := q.decompose(context.Background(), QARecord{Query: "优化", Complexity: "中等"})

	assert.Equal(t, []string{"第一个子问题", "第二个子问题"}, rec.SubQuestions)
}

func TestQA_DecompositionCapsAtFive(t *testing.T) {
	q := NewQA(okProvider("1\n2\n3\n4\n5\n6\n7"))

	rec := q.decompose(context.Background(), QARecord{Query: "优化", Complexity: "中等"})

	assert.Len(t, rec.SubQuestions, 5)
}

func TestQA_DecompositionErrorUsesOriginalQuery(t *testing.T) {
	q := NewQA(mock.NewFailingProvider(errors.New("upstream down")))

	rec := q.decompose(context.Background(), QARecord{Query: "优化我的代码", Complexity: "复杂"})

	assert.Equal(t, []string{"优化我的代码"}, rec.SubQuestions)
}

func TestQA_RetrieveKnowledge(t *testing.T) {
	q := NewQA(okProvider("ok"))

	rec := q.retrieveKnowledge(QARecord{Query: "怎么用dplyr处理数据"})
	require.Contains(t, rec.Knowledge, "高级功能")
	assert.Contains(t, rec.Knowledge["高级功能"], "数据处理")

	rec = q.retrieveKnowledge(QARecord{Query: "完全无关"})
	assert.Empty(t, rec.Knowledge)
}

func TestQA_RunHappyPath(t *testing.T) {
	q := NewQA(&mock.MockProvider{
		Name_: "mock",
		CompleteFunc: func(_ context.Context, req models.CompletionRequest) (string, error) {
			if strings.Contains(req.Prompt, "分解以下复杂查询") {
				return `{"sub_questions": ["子问题一", "子问题二"]}`, nil
			}
			return "详细回答", nil
		},
	})

	rec := q.Run(context.Background(), QARecord{Query: "比较dplyr和data.table"})

	assert.Equal(t, "中等", rec.Complexity)
	assert.Equal(t, "比较分析", rec.QueryType)
	require.Len(t, rec.PartialAnswers, 2)
	assert.Equal(t, "详细回答", rec.FinalAnswer)
	// all partial answers succeeded at 0.8
	assert.InDelta(t, 0.8, rec.Confidence, 0.001)
	assert.NotEmpty(t, rec.Sources)
	assert.Len(t, rec.FollowUpQuestions, 3)
}

func TestQA_SubAnswerFailureLowersConfidence(t *testing.T) {
	q := NewQA(&mock.MockProvider{
		Name_: "mock",
		CompleteFunc: func(_ context.Context, req models.CompletionRequest) (string, error) {
			if strings.Contains(req.Prompt, "基于以下信息回答子问题") {
				return "", errors.New("upstream down")
			}
			return "综合答案", nil
		},
	})

	rec := q.Run(context.Background(), QARecord{Query: "什么是向量"})

	require.Len(t, rec.PartialAnswers, 1)
	assert.InDelta(t, 0.1, rec.PartialAnswers[0].Confidence, 0.001)
	assert.InDelta(t, 0.1, rec.Confidence, 0.001)
}

func TestQA_SynthesisFailure(t *testing.T) {
	q := NewQA(&mock.MockProvider{
		Name_: "mock",
		CompleteFunc: func(_ context.Context, req models.CompletionRequest) (string, error) {
			if strings.Contains(req.Prompt, "综合性的最终答案") {
				return "", errors.New("upstream down")
			}
			return "回答", nil
		},
	})

	rec := q.Run(context.Background(), QARecord{Query: "什么是向量"})

	assert.Contains(t, rec.FinalAnswer, "答案综合失败")
	assert.InDelta(t, 0.2, rec.Confidence, 0.001)
	assert.Empty(t, rec.FollowUpQuestions)
}

func TestFollowUpQuestions(t *testing.T) {
	assert.Len(t, followUpQuestions("向量", "概念解释"), 3)
	assert.Contains(t, followUpQuestions("向量", "概念解释")[0], "向量")
	assert.Len(t, followUpQuestions("x", "未知类型"), 3)
}
