package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/minyuzhao/rtutor/internal/analysis"
	"github.com/minyuzhao/rtutor/internal/prompt"
	"github.com/minyuzhao/rtutor/pkg/models"
)

// Stage is one step of a flow. It receives the record by value and
// returns the updated copy.
type Stage struct {
	Name string
	Run  func(ctx context.Context, rec Record) Record
}

// CodeAnalysis is the five-stage explanation flow: structure, syntax,
// semantic, targeted, synthesis. Stages always run in order; a failed
// model call is recorded on the record and the flow continues.
type CodeAnalysis struct {
	provider models.AIProvider
	stages   []Stage
}

// NewCodeAnalysis wires the stage list against the given provider.
func NewCodeAnalysis(provider models.AIProvider) *CodeAnalysis {
	p := &CodeAnalysis{provider: provider}
	p.stages = []Stage{
		{Name: "extract_structure", Run: p.extractStructure},
		{Name: "analyze_syntax", Run: p.analyzeSyntax},
		{Name: "semantic_analysis", Run: p.semanticAnalysis},
		{Name: "targeted_analysis", Run: p.targetedAnalysis},
		{Name: "synthesize_explanation", Run: p.synthesize},
	}
	return p
}

// Stages exposes the ordered stage names, for logging and tests.
func (p *CodeAnalysis) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name
	}
	return names
}

// Run executes every stage in order and returns the final record.
func (p *CodeAnalysis) Run(ctx context.Context, rec Record) Record {
	for _, stage := range p.stages {
		rec = stage.Run(ctx, rec)
	}
	return rec
}

func (p *CodeAnalysis) complete(ctx context.Context, reqType models.RequestType, promptText string) (string, error) {
	cfg := prompt.ConfigFor(reqType)
	return p.provider.Complete(ctx, models.CompletionRequest{
		Prompt:      promptText,
		RequestType: reqType,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	})
}

func (p *CodeAnalysis) extractStructure(_ context.Context, rec Record) Record {
	rec = rec.withReasoning(fmt.Sprintf("开始分析代码结构: %d 字符", len(rec.OriginalCode)))
	rec.Structure = analysis.ExtractStructure(rec.OriginalCode)
	rec.Confidence = 0.8
	return rec
}

func (p *CodeAnalysis) analyzeSyntax(_ context.Context, rec Record) Record {
	rec = rec.withReasoning("进行语法分析，检查R语言语法正确性")
	rec.Syntax = analysis.CheckSyntax(rec.OriginalCode)
	return rec
}

func (p *CodeAnalysis) semanticAnalysis(ctx context.Context, rec Record) Record {
	rec = rec.withReasoning("执行语义分析，理解代码含义和逻辑")

	structureJSON, _ := json.Marshal(rec.Structure)
	result, err := p.complete(ctx, models.RequestTypeExplanation,
		prompt.SemanticAnalysis(rec.OriginalCode, string(structureJSON)))
	if err != nil {
		return rec.withError(fmt.Sprintf("语义分析失败: %v", err))
	}

	rec.Semantic = SemanticAnalysis{
		MainPurpose:       analysis.MainPurpose(result),
		DataFlow:          analysis.DataFlow(rec.OriginalCode),
		AlgorithmPatterns: analysis.AlgorithmPatterns(rec.OriginalCode),
		PotentialIssues:   analysis.PotentialIssues(rec.OriginalCode),
	}
	return rec
}

func (p *CodeAnalysis) targetedAnalysis(ctx context.Context, rec Record) Record {
	if rec.UserQuery == "" && len(rec.SelectedLines) == 0 {
		rec.Targeted = TargetedAnalysis{RelatedConcepts: []string{}, Recommendations: []string{}}
		return rec
	}

	rec = rec.withReasoning("根据用户查询和选定行生成针对性分析")

	var promptText string
	if len(rec.SelectedLines) > 0 {
		selected := analysis.SelectedLines(rec.OriginalCode, rec.SelectedLines)
		promptText = prompt.LineSpecific(selected, rec.SelectedLines, rec.UserQuery)
	} else {
		promptText = prompt.QueryFocused(rec.OriginalCode, rec.UserQuery)
	}

	result, err := p.complete(ctx, models.RequestTypeExplanation, promptText)
	if err != nil {
		return rec.withError(fmt.Sprintf("针对性分析失败: %v", err))
	}

	rec.Targeted = TargetedAnalysis{
		FocusedExplanation: result,
		RelatedConcepts:    []string{"R语言基础", "数据分析", "统计建模"},
		Recommendations:    []string{"优化代码结构", "添加错误处理", "改进变量命名"},
	}
	return rec
}

func (p *CodeAnalysis) synthesize(ctx context.Context, rec Record) Record {
	rec = rec.withReasoning("综合所有分析结果，生成最终的代码解释")

	structureJSON, _ := json.Marshal(rec.Structure)
	syntaxJSON, _ := json.Marshal(rec.Syntax)
	semanticJSON, _ := json.Marshal(rec.Semantic)
	targetedJSON, _ := json.Marshal(rec.Targeted)

	result, err := p.complete(ctx, models.RequestTypeExplanation, prompt.Synthesis(
		rec.OriginalCode, string(structureJSON), string(syntaxJSON),
		string(semanticJSON), string(targetedJSON), rec.UserQuery, rec.SelectedLines))
	if err != nil {
		rec = rec.withError(fmt.Sprintf("最终解释生成失败: %v", err))
		rec.Confidence = 0.3
		return rec
	}

	rec.FinalExplanation = result
	rec.Suggestions = improvementSuggestions(rec)

	if len(rec.ErrorMessages) == 0 {
		rec.Confidence = math.Min(0.95, rec.Confidence+0.1)
	} else {
		rec.Confidence = math.Max(0.4, rec.Confidence-0.2)
	}
	return rec
}

func improvementSuggestions(rec Record) []string {
	suggestions := []string{}
	if len(rec.Structure.Comments) == 0 {
		suggestions = append(suggestions, "建议添加代码注释以提高可读性")
	}
	if rec.Syntax.EstimatedComplexity == analysis.ComplexityComplex {
		suggestions = append(suggestions, "考虑将复杂代码拆分为多个函数")
	}
	return suggestions
}
