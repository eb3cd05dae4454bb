package analysis

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// maxCodeBytes is the upper bound accepted by safety validation (50KB).
const maxCodeBytes = 50000

// Dangerous R call patterns rejected before any code reaches a model.
var dangerousRPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)system\s*\(`),
	regexp.MustCompile(`(?i)shell\s*\(`),
	regexp.MustCompile(`(?i)source\s*\([^)]*http`),
	regexp.MustCompile(`(?i)eval\s*\(`),
	regexp.MustCompile(`(?i)parse\s*\(`),
	regexp.MustCompile(`(?i)file\.\w+\s*\(`),
	regexp.MustCompile(`(?i)download\.file\s*\(`),
	regexp.MustCompile(`(?i)install\.packages\s*\(`),
	regexp.MustCompile(`(?i)library\s*\([^)]*http`),
}

var reCollapseSpace = regexp.MustCompile(`\s+`)

// SafetyResult reports whether R code passed validation and why not.
type SafetyResult struct {
	IsSafe     bool     `json:"is_safe"`
	Issues     []string `json:"issues"`
	CodeLength int      `json:"code_length"`
}

// ValidateRCode checks R code for size, encoding, dangerous calls and
// delimiter balance before it is accepted for processing.
func ValidateRCode(code string) SafetyResult {
	if code == "" {
		return SafetyResult{IsSafe: false, Issues: []string{"代码不能为空"}}
	}

	issues := []string{}

	if len(code) > maxCodeBytes {
		issues = append(issues, "代码长度超过限制（最大50KB）")
	}

	for _, pattern := range dangerousRPatterns {
		if pattern.MatchString(code) {
			issues = append(issues, fmt.Sprintf("检测到潜在危险操作: %s", pattern.String()))
		}
	}

	if !utf8.ValidString(code) {
		issues = append(issues, "代码包含无效字符编码")
	}

	if strings.Count(code, "(") != strings.Count(code, ")") {
		issues = append(issues, "括号不匹配")
	}
	if strings.Count(code, "{") != strings.Count(code, "}") {
		issues = append(issues, "大括号不匹配")
	}

	return SafetyResult{
		IsSafe:     len(issues) == 0,
		Issues:     issues,
		CodeLength: len(code),
	}
}

// SanitizeInput strips angle-bracket markup and collapses whitespace in
// free-form user text.
func SanitizeInput(input string) string {
	if input == "" {
		return ""
	}

	var b strings.Builder
	inTag := false
	for _, ch := range input {
		switch {
		case ch == '<':
			inTag = true
		case ch == '>':
			inTag = false
		case !inTag:
			b.WriteRune(ch)
		}
	}

	return reCollapseSpace.ReplaceAllString(strings.TrimSpace(b.String()), " ")
}
