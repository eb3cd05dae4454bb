package analysis

import (
	"math"
	"strings"
)

// ComplexityMetrics are the raw counters behind the quality report.
type ComplexityMetrics struct {
	CyclomaticComplexity int `json:"cyclomatic_complexity"`
	LinesOfCode          int `json:"lines_of_code"`
	FunctionCount        int `json:"function_count"`
	NestingLevel         int `json:"nesting_level"`
}

// QualityReport is the full local quality assessment of an R script.
type QualityReport struct {
	ReadabilityScore       float64           `json:"readability_score"`
	ComplexityMetrics      ComplexityMetrics `json:"complexity_metrics"`
	BestPractices          []string          `json:"best_practices"`
	SecurityIssues         []string          `json:"security_issues"`
	PerformanceSuggestions []string          `json:"performance_suggestions"`
	MaintainabilityScore   float64           `json:"maintainability_score"`
}

// AnalyzeQuality computes every quality dimension for the given code.
func AnalyzeQuality(code string) QualityReport {
	return QualityReport{
		ReadabilityScore:       ReadabilityScore(code),
		ComplexityMetrics:      Complexity(code),
		BestPractices:          BestPractices(code),
		SecurityIssues:         SecurityIssues(code),
		PerformanceSuggestions: PerformanceSuggestions(code),
		MaintainabilityScore:   MaintainabilityScore(code),
	}
}

// ReadabilityScore scores 0..1 from the comment-to-code ratio:
// ratio*2 + 0.3, capped at 1.0, rounded to two decimals.
func ReadabilityScore(code string) float64 {
	lines := strings.Split(code, "\n")
	commentLines := 0
	totalLines := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		totalLines++
		if strings.HasPrefix(trimmed, "#") {
			commentLines++
		}
	}
	if totalLines == 0 {
		return 0.0
	}

	ratio := float64(commentLines) / float64(totalLines)
	return round2(math.Min(1.0, ratio*2+0.3))
}

// Complexity counts control structures, code lines, function keywords
// and brace nesting depth.
func Complexity(code string) ComplexityMetrics {
	nonEmpty := []string{}
	for _, line := range strings.Split(code, "\n") {
		if strings.TrimSpace(line) != "" {
			nonEmpty = append(nonEmpty, line)
		}
	}

	controlStructures := []string{"for", "while", "if", "else", "switch"}
	complexity := 1
	for _, line := range nonEmpty {
		for _, structure := range controlStructures {
			complexity += strings.Count(line, structure)
		}
	}

	return ComplexityMetrics{
		CyclomaticComplexity: complexity,
		LinesOfCode:          len(nonEmpty),
		FunctionCount:        strings.Count(code, "function"),
		NestingLevel:         nestingLevel(code),
	}
}

func nestingLevel(code string) int {
	maxLevel := 0
	current := 0
	for _, ch := range code {
		switch ch {
		case '{':
			current++
			if current > maxLevel {
				maxLevel = current
			}
		case '}':
			if current > 0 {
				current--
			}
		}
	}
	return maxLevel
}

// BestPractices lists the conventions the code follows, plus warnings
// for long scripts without cleanup and loop-heavy code.
func BestPractices(code string) []string {
	practices := []string{}

	if strings.Contains(code, "<-") {
		practices = append(practices, "✓ 使用R风格的赋值操作符 <-")
	}
	if strings.Contains(code, "library(") || strings.Contains(code, "require(") {
		practices = append(practices, "✓ 正确加载R包")
	}
	if strings.Contains(code, "#") {
		practices = append(practices, "✓ 包含代码注释")
	}
	if strings.Contains(code, "function") {
		practices = append(practices, "✓ 使用函数封装逻辑")
	}

	if !strings.Contains(code, "rm(") && len(code) > 500 {
		practices = append(practices, "⚠ 建议添加内存清理代码")
	}
	if strings.Count(code, "for") > 3 {
		practices = append(practices, "⚠ 考虑使用向量化操作替代循环")
	}

	return practices
}

// SecurityIssues flags the risky calls a quality report should surface.
func SecurityIssues(code string) []string {
	issues := []string{}

	if strings.Contains(code, "eval(") {
		issues = append(issues, "⚠ 使用eval()可能存在安全风险")
	}
	if strings.Contains(code, "system(") {
		issues = append(issues, "⚠ 系统调用需要谨慎处理")
	}
	if strings.Contains(code, "source(") && strings.Contains(code, "http") {
		issues = append(issues, "⚠ 从网络源加载代码存在风险")
	}

	return issues
}

// PerformanceSuggestions proposes R-idiomatic speedups based on the
// patterns present in the code.
func PerformanceSuggestions(code string) []string {
	suggestions := []string{}

	if strings.Contains(code, "for") && strings.Contains(code, "append") {
		suggestions = append(suggestions, "建议预分配向量大小，避免频繁append操作")
	}
	if strings.Contains(code, "data.frame") && strings.Count(code, "rbind") > 1 {
		suggestions = append(suggestions, "考虑使用do.call(rbind, list)替代多次rbind")
	}
	if !strings.Contains(code, "apply") && strings.Contains(code, "for") {
		suggestions = append(suggestions, "考虑使用apply族函数替代for循环")
	}
	if !strings.Contains(code, "library(data.table)") && strings.Contains(code, "data.frame") {
		suggestions = append(suggestions, "对于大数据集，考虑使用data.table包")
	}

	return suggestions
}

// MaintainabilityScore blends comment ratio (30%), function density (30%)
// and a complexity penalty (40%) into a 0..1 score.
func MaintainabilityScore(code string) float64 {
	lines := strings.Split(code, "\n")
	totalLines := 0
	commentLines := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		totalLines++
		if strings.HasPrefix(trimmed, "#") {
			commentLines++
		}
	}
	if totalLines == 0 {
		return 0.0
	}

	commentRatio := float64(commentLines) / float64(totalLines)
	functionRatio := float64(strings.Count(code, "function")) / math.Max(1, float64(totalLines)/10)
	complexityPenalty := math.Max(0, 1-float64(Complexity(code).CyclomaticComplexity)/20)

	score := commentRatio*0.3 + functionRatio*0.3 + complexityPenalty*0.4
	return round2(math.Min(1.0, score))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
