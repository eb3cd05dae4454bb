package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSolutions_JSON(t *testing.T) {
	response := `好的，以下是三种解决方案：
{"solutions": [
  {"name": "基础方法", "code": "mean(x)", "description": "基础实现"},
  {"name": "dplyr方法", "code": "summarise(df, m = mean(x))", "description": "管道实现"},
  {"name": "向量化方法", "code": "sum(x) / length(x)", "description": "手动实现"}
]}`

	solutions := ParseSolutions(response)
	require.Len(t, solutions, 3)
	assert.Equal(t, "基础方法", solutions[0].Name)
	assert.Equal(t, "mean(x)", solutions[0].Code)
	assert.Equal(t, "管道实现", solutions[1].Description)
}

func TestParseSolutions_Text(t *testing.T) {
	response := `方案一：基础R实现
使用内置函数求均值
# result <- mean(x)
方案二：dplyr实现
使用管道操作
# library(dplyr)
方案三：向量化实现
手动向量化
# result <- sum(x) / length(x)`

	solutions := ParseSolutions(response)
	require.Len(t, solutions, 3)
	assert.Equal(t, "方案一：基础R实现", solutions[0].Name)
	assert.Equal(t, "使用内置函数求均值", solutions[0].Description)
	assert.Contains(t, solutions[0].Code, "mean(x)")
	assert.Equal(t, "方案三：向量化实现", solutions[2].Name)
}

func TestParseSolutions_TextCapsAtThree(t *testing.T) {
	response := `方案1：第一种
描述一
方案2：第二种
描述二
方案3：第三种
描述三
方案1：多余的
描述四`

	solutions := ParseSolutions(response)
	require.Len(t, solutions, 3)
	assert.Equal(t, "方案3：第三种", solutions[2].Name)
}

func TestParseSolutions_Fallbacks(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"empty response", ""},
		{"unparseable text", "这里没有任何可识别的方案结构"},
		{"broken json", `{"solutions": [{"name": "基础方法"`},
		{"too few schemes", "方案一：只有一个\n描述"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			solutions := ParseSolutions(tt.response)
			require.Len(t, solutions, 3)
			assert.Equal(t, "基础方法", solutions[0].Name)
			assert.Equal(t, "进阶方法", solutions[1].Name)
			assert.Equal(t, "可视化方法", solutions[2].Name)
		})
	}
}

func TestFallbackSolutions_Content(t *testing.T) {
	solutions := FallbackSolutions()
	require.Len(t, solutions, 3)
	assert.Contains(t, solutions[1].Code, "tidyverse")
	assert.Contains(t, solutions[2].Code, "ggplot2")
	for _, s := range solutions {
		assert.NotEmpty(t, s.Description)
	}
}
