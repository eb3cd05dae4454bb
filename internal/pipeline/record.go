// Package pipeline runs the staged analysis flows behind code explanation,
// conversation, and intelligent question answering. Each flow is a fixed,
// ordered list of stages; every stage takes the record by value and returns
// an updated copy, so a stage can never mutate its predecessor's view.
package pipeline

import (
	"github.com/minyuzhao/rtutor/internal/analysis"
)

// SemanticAnalysis is the model-assisted reading of what the code does.
type SemanticAnalysis struct {
	MainPurpose       string   `json:"main_purpose"`
	DataFlow          []string `json:"data_flow"`
	AlgorithmPatterns []string `json:"algorithm_patterns"`
	PotentialIssues   []string `json:"potential_issues"`
}

// TargetedAnalysis answers the user's specific question or selected lines.
type TargetedAnalysis struct {
	FocusedExplanation string   `json:"focused_explanation"`
	RelatedConcepts    []string `json:"related_concepts"`
	Recommendations    []string `json:"recommendations"`
}

// Record carries the inputs and accumulated outputs of a code analysis run.
type Record struct {
	OriginalCode  string
	UserQuery     string
	FileContent   string
	SelectedLines []int

	Structure analysis.Structure
	Syntax    analysis.Syntax
	Semantic  SemanticAnalysis
	Targeted  TargetedAnalysis

	FinalExplanation string
	Suggestions      []string
	ReasoningChain   []string
	ErrorMessages    []string
	Confidence       float64
}

// NewRecord starts a code analysis record at the neutral confidence level.
func NewRecord(code, userQuery string, selectedLines []int) Record {
	return Record{
		OriginalCode:  code,
		UserQuery:     userQuery,
		SelectedLines: selectedLines,
		Confidence:    0.5,
	}
}

func (r Record) withReasoning(step string) Record {
	r.ReasoningChain = append(append([]string{}, r.ReasoningChain...), step)
	return r
}

func (r Record) withError(msg string) Record {
	r.ErrorMessages = append(append([]string{}, r.ErrorMessages...), msg)
	return r
}
