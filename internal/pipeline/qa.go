package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/minyuzhao/rtutor/internal/analysis"
	"github.com/minyuzhao/rtutor/internal/prompt"
	"github.com/minyuzhao/rtutor/pkg/models"
)

const maxSubQuestions = 5

// PartialAnswer is one sub-question's answer within the QA flow.
type PartialAnswer struct {
	Question   string   `json:"question"`
	Answer     string   `json:"answer"`
	Confidence float64  `json:"confidence"`
	Sources    []string `json:"sources"`
}

// QARecord carries a question through the intelligent QA flow.
type QARecord struct {
	Query string

	Complexity   string
	QueryType    string
	SubQuestions []string
	Knowledge    map[string]map[string][]string

	PartialAnswers    []PartialAnswer
	FinalAnswer       string
	Confidence        float64
	Sources           []string
	FollowUpQuestions []string
	ReasoningSteps    []string
}

// QA answers complex questions by tiering them, decomposing the hard
// ones into sub-questions, answering each, and synthesizing the result.
type QA struct {
	provider models.AIProvider
}

func NewQA(provider models.AIProvider) *QA {
	return &QA{provider: provider}
}

// Run executes the QA stages in order.
func (q *QA) Run(ctx context.Context, rec QARecord) QARecord {
	rec = q.analyzeComplexity(rec)
	rec = q.determineType(rec)
	rec = q.decompose(ctx, rec)
	rec = q.retrieveKnowledge(rec)
	rec = q.answerSubQuestions(ctx, rec)
	rec = q.synthesize(ctx, rec)
	return rec
}

func (q *QA) complete(ctx context.Context, reqType models.RequestType, promptText string) (string, error) {
	cfg := prompt.ConfigFor(reqType)
	return q.provider.Complete(ctx, models.CompletionRequest{
		Prompt:      promptText,
		RequestType: reqType,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	})
}

// complexityIndicators is checked in ascending order, so a query that
// names both a 中等 and a 复杂 indicator lands in the stronger tier.
var complexityIndicators = []struct {
	level      string
	indicators []string
}{
	{analysis.ComplexitySimple, []string{"什么是", "如何", "为什么", "解释"}},
	{analysis.ComplexityModerate, []string{"比较", "分析", "评估", "讨论", "实现"}},
	{analysis.ComplexityComplex, []string{"设计", "优化", "深入分析", "全面评估", "架构"}},
}

func (q *QA) analyzeComplexity(rec QARecord) QARecord {
	complexity := analysis.ComplexitySimple
	for _, tier := range complexityIndicators {
		for _, indicator := range tier.indicators {
			if strings.Contains(rec.Query, indicator) {
				complexity = tier.level
				break
			}
		}
	}
	rec.Complexity = complexity
	rec.ReasoningSteps = append(rec.ReasoningSteps, "查询复杂度分析: "+complexity)
	return rec
}

var queryTypes = []struct {
	name     string
	keywords []string
}{
	{"概念解释", []string{"什么是", "定义", "概念", "解释"}},
	{"操作指导", []string{"如何", "怎么", "步骤", "方法"}},
	{"问题解决", []string{"错误", "问题", "调试", "解决"}},
	{"代码分析", []string{"代码", "函数", "算法", "语法"}},
	{"最佳实践", []string{"最佳", "推荐", "建议", "优化"}},
	{"比较分析", []string{"比较", "差异", "区别", "对比"}},
}

func (q *QA) determineType(rec QARecord) QARecord {
	detected := "通用查询"
outer:
	for _, qt := range queryTypes {
		for _, kw := range qt.keywords {
			if strings.Contains(rec.Query, kw) {
				detected = qt.name
				break outer
			}
		}
	}
	rec.QueryType = detected
	rec.ReasoningSteps = append(rec.ReasoningSteps, "查询类型确定: "+detected)
	return rec
}

func (q *QA) decompose(ctx context.Context, rec QARecord) QARecord {
	if rec.Complexity != analysis.ComplexityModerate && rec.Complexity != analysis.ComplexityComplex {
		rec.SubQuestions = []string{rec.Query}
		rec.ReasoningSteps = append(rec.ReasoningSteps, "简单查询，无需分解")
		return rec
	}

	result, err := q.complete(ctx, models.RequestTypeAnalysis, prompt.Decomposition(rec.Query, rec.QueryType))
	if err != nil {
		rec.SubQuestions = []string{rec.Query}
		rec.ReasoningSteps = append(rec.ReasoningSteps, fmt.Sprintf("查询分解失败，使用原始查询: %v", err))
		return rec
	}

	subQuestions := parseSubQuestions(result)
	if len(subQuestions) > maxSubQuestions {
		subQuestions = subQuestions[:maxSubQuestions]
	}
	rec.SubQuestions = subQuestions
	rec.ReasoningSteps = append(rec.ReasoningSteps, fmt.Sprintf("查询分解完成，生成%d个子问题", len(subQuestions)))
	return rec
}

// parseSubQuestions reads a {"sub_questions": [...]} payload, falling back
// to non-empty lines when the model did not return valid JSON.
func parseSubQuestions(result string) []string {
	var parsed struct {
		SubQuestions []string `json:"sub_questions"`
	}
	if err := json.Unmarshal([]byte(result), &parsed); err == nil && len(parsed.SubQuestions) > 0 {
		return parsed.SubQuestions
	}

	questions := []string{}
	for _, line := range strings.Split(result, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			questions = append(questions, trimmed)
		}
	}
	return questions
}

var rKnowledgeBase = map[string]map[string][]string{
	"基础概念": {
		"数据类型": {"numeric", "character", "logical", "factor"},
		"数据结构": {"vector", "matrix", "data.frame", "list"},
		"基本操作": {"赋值", "索引", "函数调用", "包加载"},
	},
	"高级功能": {
		"数据处理": {"dplyr", "tidyr", "data.table"},
		"可视化":  {"ggplot2", "plotly", "lattice"},
		"统计分析": {"回归分析", "假设检验", "方差分析"},
		"机器学习": {"caret", "randomForest", "e1071"},
	},
	"最佳实践": {
		"代码风格": {"变量命名", "注释规范", "函数设计"},
		"性能优化": {"向量化", "内存管理", "并行计算"},
		"错误处理": {"异常捕获", "输入验证", "调试技巧"},
	},
}

func (q *QA) retrieveKnowledge(rec QARecord) QARecord {
	relevant := map[string]map[string][]string{}
	queryLower := strings.ToLower(rec.Query)

	for category, subcategories := range rKnowledgeBase {
		for subcategory, items := range subcategories {
			for _, item := range items {
				if strings.Contains(queryLower, strings.ToLower(item)) {
					if relevant[category] == nil {
						relevant[category] = map[string][]string{}
					}
					relevant[category][subcategory] = items
					break
				}
			}
		}
	}

	rec.Knowledge = relevant
	rec.ReasoningSteps = append(rec.ReasoningSteps, fmt.Sprintf("知识检索完成，找到%d个相关类别", len(relevant)))
	return rec
}

func (q *QA) answerSubQuestions(ctx context.Context, rec QARecord) QARecord {
	knowledgeJSON, _ := json.Marshal(rec.Knowledge)
	answers := make([]PartialAnswer, 0, len(rec.SubQuestions))

	for i, sub := range rec.SubQuestions {
		answer, err := q.complete(ctx, models.RequestTypeExplanation,
			prompt.SubAnswer(sub, string(knowledgeJSON), rec.QueryType))
		if err != nil {
			answers = append(answers, PartialAnswer{
				Question:   sub,
				Answer:     fmt.Sprintf("回答生成失败: %v", err),
				Confidence: 0.1,
				Sources:    []string{},
			})
			continue
		}

		answers = append(answers, PartialAnswer{
			Question:   sub,
			Answer:     answer,
			Confidence: 0.8,
			Sources:    []string{"R官方文档", "专业知识库"},
		})
		rec.ReasoningSteps = append(rec.ReasoningSteps, fmt.Sprintf("子问题%d回答完成", i+1))
	}

	rec.PartialAnswers = answers
	return rec
}

func (q *QA) synthesize(ctx context.Context, rec QARecord) QARecord {
	partialJSON, _ := json.Marshal(rec.PartialAnswers)
	knowledgeJSON, _ := json.Marshal(rec.Knowledge)

	result, err := q.complete(ctx, models.RequestTypeExplanation, prompt.QASynthesis(
		rec.Query, rec.QueryType, rec.Complexity, string(partialJSON), string(knowledgeJSON)))
	if err != nil {
		rec.FinalAnswer = fmt.Sprintf("答案综合失败: %v", err)
		rec.Confidence = 0.2
		rec.Sources = []string{}
		rec.FollowUpQuestions = []string{}
		return rec
	}

	rec.FinalAnswer = result
	rec.Confidence = averageConfidence(rec.PartialAnswers)
	rec.Sources = []string{"R官方文档", "专业教程", "最佳实践指南"}
	rec.FollowUpQuestions = followUpQuestions(rec.Query, rec.QueryType)
	rec.ReasoningSteps = append(rec.ReasoningSteps, "最终答案综合完成")
	return rec
}

func averageConfidence(answers []PartialAnswer) float64 {
	if len(answers) == 0 {
		return 0.5
	}
	sum := 0.0
	for _, a := range answers {
		sum += a.Confidence
	}
	return sum / float64(len(answers))
}

func followUpQuestions(query, queryType string) []string {
	switch queryType {
	case "概念解释":
		return []string{
			fmt.Sprintf("如何在实际项目中应用%s？", query),
			fmt.Sprintf("与%s相关的常见错误有哪些？", query),
			fmt.Sprintf("有没有更高级的%s用法？", query),
		}
	case "操作指导":
		return []string{
			fmt.Sprintf("执行%s时可能遇到什么问题？", query),
			fmt.Sprintf("有没有%s的替代方法？", query),
			fmt.Sprintf("如何优化%s的性能？", query),
		}
	case "问题解决":
		return []string{
			"如何预防类似的问题？",
			"这个问题的根本原因是什么？",
			"有没有自动化解决方案？",
		}
	default:
		return []string{
			"这个主题还有什么需要了解的？",
			"如何深入学习相关知识？",
			"有什么实际应用案例？",
		}
	}
}
