// Package prompt centralizes every template sent to the completion service,
// plus the per-request-type model configuration. Keeping them in one place
// makes wording changes reviewable without touching pipeline logic.
package prompt

import (
	"fmt"
	"strings"

	"github.com/minyuzhao/rtutor/pkg/models"
)

// ModelConfig is the token-limit/temperature pair applied to one request type.
type ModelConfig struct {
	MaxTokens   int
	Temperature float32
}

var modelConfigs = map[models.RequestType]ModelConfig{
	models.RequestTypeHomework:    {MaxTokens: 3000, Temperature: 0.7},
	models.RequestTypeExplanation: {MaxTokens: 2000, Temperature: 0.6},
	models.RequestTypeChat:        {MaxTokens: 2500, Temperature: 0.8},
}

var defaultModelConfig = ModelConfig{MaxTokens: 2000, Temperature: 0.7}

// ConfigFor returns the model configuration for a request type, falling back
// to the default for types without an explicit entry.
func ConfigFor(t models.RequestType) ModelConfig {
	if cfg, ok := modelConfigs[t]; ok {
		return cfg
	}
	return defaultModelConfig
}

var fallbackMessages = map[models.RequestType]string{
	models.RequestTypeHomework:    "抱歉，暂时无法为您生成解决方案。请稍后再试或检查您的题目描述是否清晰。",
	models.RequestTypeExplanation: "抱歉，暂时无法为您解释这段代码。请稍后再试或检查您的代码格式。",
	models.RequestTypeChat:        "抱歉，我现在无法回答您的问题。请稍后再试，或者尝试重新表达您的问题。",
}

// FallbackMessage is the user-visible apology shown when both the primary
// path and the single-shot fallback have failed.
func FallbackMessage(t models.RequestType) string {
	if msg, ok := fallbackMessages[t]; ok {
		return msg
	}
	return fallbackMessages[models.RequestTypeChat]
}

// Homework asks for three distinct R solutions in a strict JSON shape.
func Homework(question string) string {
	return fmt.Sprintf(`你是一位专业的R语言教师，请为以下作业题提供三种不同的R语言解决方案。

作业题目：%s

请按照以下格式返回，每种方案都要包含：
1. 方案名称（简洁明了，体现解决思路）
2. 完整的R语言代码（包含详细的中文注释）
3. 方法说明（解释这种方法的特点和适用场景）

请严格按照以下JSON格式返回：
{
    "solutions": [
        {
            "name": "方案一名称",
            "code": "# 这里是带中文注释的R代码\n# 注释要详细解释每一步\ndata <- read.csv('file.csv')\n# 更多代码...",
            "description": "这种方法的特点和说明"
        },
        {
            "name": "方案二名称",
            "code": "# 第二种方法的R代码\n# 详细注释...",
            "description": "第二种方法的说明"
        },
        {
            "name": "方案三名称",
            "code": "# 第三种方法的R代码\n# 详细注释...",
            "description": "第三种方法的说明"
        }
    ]
}

要求：
1. 三种方案要体现不同的解决思路或使用不同的R包/函数
2. 代码注释必须用中文，要详细解释每一步的作用
3. 确保代码的正确性和实用性
4. 方案名称要简洁有意义，体现各自特点
5. 每个方案都应该是完整可运行的代码`, question)
}

// Explanation asks for a beginner-friendly walkthrough of a code sample.
func Explanation(code string) string {
	return fmt.Sprintf(`你是一位亲切的R语言老师，请用平易近人、形象具体的语气来解释以下R语言代码。

R代码：
`+"```r\n%s\n```"+`

请按照以下要求解释：
1. 用通俗易懂的语言，就像对朋友讲解一样
2. 逐步分析代码的功能和作用
3. 对于复杂的概念，用生活中的比喻来说明
4. 指出代码中的关键部分和注意事项
5. 如果代码有问题，友好地指出并给出建议
6. 解释要详细但不冗长，重点突出

请用温暖、耐心的语气，让初学者也能理解。解释应该包含：
- 代码的整体目的
- 每个主要步骤的作用
- 使用的函数和包的说明
- 可能的改进建议`, code)
}

// Chat wraps a free-form user message in the tutor persona.
func Chat(message string) string {
	return fmt.Sprintf(`你是一位经验丰富、亲切友善的R语言专家和数据科学导师。你精通R语言、统计学、数据分析和机器学习，善于用简单的语言解释复杂的概念。

用户说：%s

请根据用户的问题或话题，提供有帮助的回答。你可以：
- 回答R语言相关的技术问题
- 提供数据分析的建议和指导
- 解释统计概念和方法
- 推荐学习资源和最佳实践
- 如果是非技术话题，也可以适当聊聊，但要引导回到学习话题

回答要求：
1. 语气亲切自然，像朋友一样交流
2. 内容专业准确，有理有据
3. 如果涉及代码，提供清晰的示例
4. 鼓励用户继续学习和探索

请用中文回答，保持专业性的同时要平易近人。`, message)
}

// SemanticAnalysis embeds the code and its extracted structure for the
// semantic stage of the analysis pipeline.
func SemanticAnalysis(code, structureJSON string) string {
	return fmt.Sprintf(`作为R语言专家，请对以下代码进行深度语义分析：

代码内容：
%s

代码结构信息：
%s

请从以下几个维度进行分析：
1. 代码的主要功能和目的
2. 数据处理流程
3. 使用的算法或统计方法
4. 可能的应用场景
5. 代码质量评估

请提供详细且专业的分析结果。`, code, structureJSON)
}

// LineSpecific targets the stage-four analysis at a set of selected lines.
func LineSpecific(selectedCode string, lineNumbers []int, userQuery string) string {
	return fmt.Sprintf(`请针对以下选定的代码行进行详细分析：

选定行号：%s
选定代码：
%s

用户查询：%s

请重点解释：
1. 这些代码行的具体作用
2. 与用户查询的关联
3. 在整体代码中的重要性
4. 可能的改进建议

请提供针对性的详细解释。`, formatLineNumbers(lineNumbers), selectedCode, userQuery)
}

// QueryFocused targets the stage-four analysis at the user's question.
func QueryFocused(code, userQuery string) string {
	return fmt.Sprintf(`根据用户的具体问题，对以下R代码进行针对性分析：

代码：
%s

用户查询：%s

请围绕用户的问题进行回答，包括：
1. 与查询相关的代码部分解释
2. 回答用户的具体问题
3. 提供相关的学习建议
4. 给出实际应用示例

确保回答直接回应用户的疑问。`, code, userQuery)
}

// Synthesis feeds every prior stage output into the final explanation call.
func Synthesis(code, structureJSON, syntaxJSON, semanticJSON, targetedJSON, userQuery string, selectedLines []int) string {
	return fmt.Sprintf(`作为R语言专家，请综合以下所有分析结果，生成一个完整、清晰的代码解释：

原始代码：
%s

代码结构分析：
%s

语法分析：
%s

语义分析：
%s

针对性分析：
%s

用户查询：%s
选定行：%s

请生成一个综合性的解释，包括：
1. 代码整体概述
2. 关键部分详细解释
3. 技术要点说明
4. 学习建议
5. 实践应用

确保解释既专业又易懂，适合不同水平的学习者。`,
		code, structureJSON, syntaxJSON, semanticJSON, targetedJSON, userQuery, formatLineNumbers(selectedLines))
}

// SimpleExplanation is the degraded single-call fallback template.
func SimpleExplanation(code, userQuery string, selectedLines []int) string {
	query := userQuery
	if query == "" {
		query = "无特定查询"
	}
	lines := "未选择"
	if len(selectedLines) > 0 {
		lines = formatLineNumbers(selectedLines)
	}
	return fmt.Sprintf(`请解释以下R代码：

代码：
%s

用户查询：%s
选中行：%s

请提供详细的代码解释。`, code, query, lines)
}

// IntentAnalysis classifies what a chat message is asking for.
func IntentAnalysis(query, context, historyJSON string) string {
	return fmt.Sprintf(`分析用户的意图和需求：

用户查询：%s
对话上下文：%s
历史记录：%s

请判断用户的主要意图类型：
- code_help: 需要编程帮助
- concept_explanation: 需要概念解释
- debugging: 需要调试帮助
- general_inquiry: 一般性询问

分析结果请包含：
1. 主要意图类型
2. 具体需求描述
3. 期望的回复风格`, query, context, historyJSON)
}

// ContextualResponse generates the final chat reply from intent + knowledge.
func ContextualResponse(query, intent, responseType, knowledgeJSON, context, historyJSON string) string {
	return fmt.Sprintf(`基于以下信息生成合适的回复：

用户查询：%s
用户意图：%s
回复类型：%s
知识库信息：%s
对话上下文：%s
历史记录：%s

请生成一个：
1. 针对性强的回复
2. 结合上下文的连贯响应
3. 包含实用信息的回答
4. 符合用户期望的风格

确保回复专业、友好且有帮助。`, query, intent, responseType, knowledgeJSON, context, historyJSON)
}

// Decomposition splits a complex question into answerable sub-questions.
func Decomposition(query, queryType string) string {
	return fmt.Sprintf(`分解以下复杂查询为多个子问题：

原始查询: %s
查询类型: %s

请将查询分解为3-5个具体的子问题，每个子问题应该：
1. 相对独立
2. 可以具体回答
3. 有助于回答原始问题

返回JSON格式的子问题列表，键名为 sub_questions。`, query, queryType)
}

// SubAnswer answers one decomposed sub-question with retrieved knowledge.
func SubAnswer(subQuestion, knowledgeJSON, queryType string) string {
	return fmt.Sprintf(`基于以下信息回答子问题：

子问题: %s
相关知识: %s
查询类型: %s

请提供详细、准确的回答。`, subQuestion, knowledgeJSON, queryType)
}

// QASynthesis merges the partial answers into one final answer.
func QASynthesis(query, queryType, complexity, partialAnswersJSON, knowledgeJSON string) string {
	return fmt.Sprintf(`基于以下信息，为原始查询提供综合性的最终答案：

原始查询: %s
查询类型: %s
复杂度: %s

子问题及答案:
%s

检索到的知识:
%s

请提供一个完整、连贯、准确的最终答案，包括：
1. 直接回答原始问题
2. 提供相关背景信息
3. 给出实用建议或示例
4. 总结关键点`, query, queryType, complexity, partialAnswersJSON, knowledgeJSON)
}

// TestCases asks for a testthat suite covering the given code.
func TestCases(code, functionName string) string {
	target := ""
	if functionName != "" {
		target = "目标函数: " + functionName
	}
	return fmt.Sprintf(`作为R语言测试专家，为以下代码生成全面的测试用例：

代码：
%s

%s

请生成：
1. 正常情况测试用例
2. 边界值测试用例
3. 异常情况测试用例
4. 性能测试建议

返回完整的R语言测试代码，使用testthat包。`, code, target)
}

// Optimization asks for R-specific performance advice on the given code.
func Optimization(code string) string {
	return fmt.Sprintf(`作为R语言性能优化专家，分析以下代码并提供优化建议：

代码：
%s

请提供：
1. 性能瓶颈分析
2. 内存使用优化
3. 算法改进建议
4. 并行化可能性
5. 包选择建议
6. 优化后的代码示例

重点关注R语言特有的优化技巧。`, code)
}

func formatLineNumbers(nums []int) string {
	if len(nums) == 0 {
		return "[]"
	}
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
