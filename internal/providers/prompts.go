package providers

import (
	"fmt"

	"github.com/geelink/docingest/internal/pipeline"
)

// MaxAnalysisRunes truncates document text before it goes into a prompt.
const MaxAnalysisRunes = 4000

// BuildPrompt maps an analysis task to its Chinese instruction prompt.
func BuildPrompt(text string, task pipeline.AnalysisTask) string {
	switch task {
	case pipeline.TaskSummary:
		return "你是一个中文文档摘要助手。\n请对下面的文本生成简洁、准确的摘要：\n\n" + text
	case pipeline.TaskKeywords:
		return "请从下面的文本中抽取 3~10 个关键词，并用 JSON 数组返回，例如 [\"关键词A\", \"关键词B\"]：\n\n" + text
	case pipeline.TaskBusinessGlossary:
		return "你是一个企业术语抽取专家。\n请从下面文本中抽取“业务术语”：要求格式为 JSON，例如：\n" +
			"{\n   \"供应链\": \"企业中用于管理货物流转的系统\",\n   \"库存周转率\": \"衡量库存效率的财务指标\"\n}\n\n下面是文本：\n\n" + text
	default:
		return fmt.Sprintf("请执行任务 `%s`，对以下文本进行分析：\n\n%s", task, text)
	}
}

// TruncateForAnalysis bounds text to MaxAnalysisRunes characters.
func TruncateForAnalysis(text string) string {
	runes := []rune(text)
	if len(runes) <= MaxAnalysisRunes {
		return text
	}
	return string(runes[:MaxAnalysisRunes])
}
