package service

import (
	"encoding/json"
	"regexp"
	"strings"
)

// SolutionPayload is one parsed homework solution before persistence.
type SolutionPayload struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

var reJSONBlock = regexp.MustCompile(`(?s)\{.*\}`)
var reSchemeMarker = regexp.MustCompile(`方案.*(一|二|三|1|2|3)`)

// ParseSolutions extracts the three homework solutions from a model
// response. It tries the embedded JSON object first, then a line-based
// text parse, and finally falls back to the static placeholder set so
// the caller always gets three usable solutions.
func ParseSolutions(response string) []SolutionPayload {
	if response == "" {
		return FallbackSolutions()
	}

	if match := reJSONBlock.FindString(response); match != "" {
		var parsed struct {
			Solutions []SolutionPayload `json:"solutions"`
		}
		if err := json.Unmarshal([]byte(match), &parsed); err == nil && len(parsed.Solutions) > 0 {
			return parsed.Solutions
		}
	}

	return parseTextResponse(response)
}

// parseTextResponse splits a plain-text response on 方案 headings.
func parseTextResponse(response string) []SolutionPayload {
	solutions := []SolutionPayload{}
	current := SolutionPayload{}

	for _, line := range strings.Split(response, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case reSchemeMarker.MatchString(line):
			if current.Name != "" {
				solutions = append(solutions, current)
			}
			current = SolutionPayload{Name: trimmed}
		case strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "```"):
			current.Code += line + "\n"
		case current.Name != "" && current.Description == "" && trimmed != "":
			current.Description = trimmed
		}
	}
	if current.Name != "" {
		solutions = append(solutions, current)
	}

	if len(solutions) < 3 {
		return FallbackSolutions()
	}
	return solutions[:3]
}

// FallbackSolutions is the static answer set used when the model call
// failed or its response could not be parsed.
func FallbackSolutions() []SolutionPayload {
	return []SolutionPayload{
		{
			Name:        "基础方法",
			Code:        "# 请提供具体的作业题目以获得详细的解决方案\n# 这里是示例代码结构\ndata <- data.frame()\nresult <- summary(data)",
			Description: "使用R语言基础函数解决问题的方法",
		},
		{
			Name:        "进阶方法",
			Code:        "# 使用tidyverse包的解决方案\nlibrary(tidyverse)\n# 具体代码需要根据题目要求编写",
			Description: "使用现代R语言工具包的解决方法",
		},
		{
			Name:        "可视化方法",
			Code:        "# 结合数据可视化的解决方案\nlibrary(ggplot2)\n# 根据具体需求添加绘图代码",
			Description: "结合图表展示结果的综合方法",
		},
	}
}
