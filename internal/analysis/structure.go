// Package analysis provides pure, local analysis of R source code:
// structure extraction, syntax checks, quality scoring, and safety
// validation. Nothing here calls the network.
package analysis

import (
	"fmt"
	"regexp"
	"strings"
)

// Extraction regexes compiled once at package init.
var (
	reFunction = regexp.MustCompile(`(\w+)\s*<-\s*function\s*\(`)
	reVariable = regexp.MustCompile(`(\w+)\s*<-\s*[^f]`)
	reLibrary  = regexp.MustCompile(`library\((\w+)\)`)
	reRequire  = regexp.MustCompile(`require\((\w+)\)`)
)

// Structure summarizes the static shape of an R script.
type Structure struct {
	TotalLines    int      `json:"total_lines"`
	NonEmptyLines int      `json:"non_empty_lines"`
	Functions     []string `json:"functions"`
	Variables     []string `json:"variables"`
	Libraries     []string `json:"libraries"`
	Comments      []string `json:"comments"`
}

// ExtractStructure scans R code and reports its lines, function and
// variable definitions, loaded libraries, and comments.
func ExtractStructure(code string) Structure {
	lines := strings.Split(code, "\n")

	nonEmpty := 0
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			nonEmpty++
		}
	}

	return Structure{
		TotalLines:    len(lines),
		NonEmptyLines: nonEmpty,
		Functions:     extractFunctions(code),
		Variables:     extractVariables(code),
		Libraries:     extractLibraries(code),
		Comments:      extractComments(code),
	}
}

func extractFunctions(code string) []string {
	return firstGroups(reFunction, code)
}

// extractVariables matches assignments whose right-hand side does not
// start with "function", so function definitions are not double-counted.
func extractVariables(code string) []string {
	return firstGroups(reVariable, code)
}

func extractLibraries(code string) []string {
	libs := firstGroups(reLibrary, code)
	libs = append(libs, firstGroups(reRequire, code)...)
	return libs
}

func extractComments(code string) []string {
	comments := []string{}
	for _, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			comments = append(comments, trimmed)
		}
	}
	return comments
}

func firstGroups(re *regexp.Regexp, code string) []string {
	matches := re.FindAllStringSubmatch(code, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// SelectedLines formats the requested 1-based line numbers of code as
// "N: <line>" entries, skipping numbers outside the valid range.
func SelectedLines(code string, lineNumbers []int) string {
	lines := strings.Split(code, "\n")
	selected := []string{}
	for _, num := range lineNumbers {
		if num >= 1 && num <= len(lines) {
			selected = append(selected, fmt.Sprintf("%d: %s", num, lines[num-1]))
		}
	}
	return strings.Join(selected, "\n")
}
