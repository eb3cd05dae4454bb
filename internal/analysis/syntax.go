package analysis

import "strings"

// Complexity tiers reported by EstimateComplexity.
const (
	ComplexitySimple   = "简单"
	ComplexityModerate = "中等"
	ComplexityComplex  = "复杂"
)

// Syntax is the result of the local syntax pass.
type Syntax struct {
	IsValid             bool     `json:"is_valid"`
	Issues              []string `json:"issues"`
	BracketBalance      bool     `json:"bracket_balance"`
	EstimatedComplexity string   `json:"estimated_complexity"`
}

// CheckSyntax runs the bracket-balance check and the line-count
// complexity estimate over R code.
func CheckSyntax(code string) Syntax {
	issues := []string{}
	balanced := BracketsBalanced(code)
	if !balanced {
		issues = append(issues, "括号不平衡")
	}

	return Syntax{
		IsValid:             len(issues) == 0,
		Issues:              issues,
		BracketBalance:      balanced,
		EstimatedComplexity: EstimateComplexity(code),
	}
}

// BracketsBalanced reports whether every (, [ and { in code is closed by
// the matching delimiter in the right order.
func BracketsBalanced(code string) bool {
	pairs := map[rune]rune{'(': ')', '[': ']', '{': '}'}
	closers := map[rune]bool{')': true, ']': true, '}': true}

	stack := []rune{}
	for _, ch := range code {
		if _, ok := pairs[ch]; ok {
			stack = append(stack, ch)
			continue
		}
		if closers[ch] {
			if len(stack) == 0 {
				return false
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if pairs[top] != ch {
				return false
			}
		}
	}
	return len(stack) == 0
}

// EstimateComplexity tiers code by its non-empty line count:
// under 10 lines is 简单, under 50 is 中等, anything larger is 复杂.
func EstimateComplexity(code string) string {
	count := 0
	for _, line := range strings.Split(code, "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	switch {
	case count < 10:
		return ComplexitySimple
	case count < 50:
		return ComplexityModerate
	default:
		return ComplexityComplex
	}
}

// AlgorithmPatterns names the control-flow constructs present in code.
func AlgorithmPatterns(code string) []string {
	patterns := []string{}
	if strings.Contains(code, "for") || strings.Contains(code, "while") {
		patterns = append(patterns, "循环结构")
	}
	if strings.Contains(code, "if") {
		patterns = append(patterns, "条件判断")
	}
	if strings.Contains(code, "function") {
		patterns = append(patterns, "函数定义")
	}
	return patterns
}

// PotentialIssues flags cheap-to-detect problems: mismatched parentheses
// and datasets that are never released with rm().
func PotentialIssues(code string) []string {
	issues := []string{}
	if strings.Count(code, "(") != strings.Count(code, ")") {
		issues = append(issues, "括号不匹配")
	}
	if !strings.Contains(code, "rm(") && strings.Contains(code, "data") {
		issues = append(issues, "可能存在内存泄漏")
	}
	return issues
}

// DataFlow describes the coarse processing phases of a script.
func DataFlow(code string) []string {
	return []string{"数据读取", "数据处理", "结果输出"}
}

// MainPurpose condenses a semantic analysis response to its opening,
// truncated to 200 characters.
func MainPurpose(semanticResult string) string {
	runes := []rune(semanticResult)
	if len(runes) > 200 {
		return string(runes[:200]) + "..."
	}
	return semanticResult
}
