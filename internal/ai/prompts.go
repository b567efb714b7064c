package ai

import "fmt"

// summarizeSystemPrompt 构建摘要系统提示词，嵌入句数上限
func summarizeSystemPrompt(maxSentences int) string {
	return fmt.Sprintf(`你是一个专业的AI研究摘要生成器。请将给定的内容总结为%d句话以内的中文摘要，重点关注：
1. 核心研究内容和创新点
2. 主要技术方法
3. 重要发现或结论
4. 对LLM评估领域的意义

请保持摘要简洁、准确且易于理解。`, maxSentences)
}

// summarizeUserPrompt 构建用户消息
func summarizeUserPrompt(title, content string) string {
	return fmt.Sprintf(`请为以下内容生成摘要：

标题：%s

内容：%s

请生成一个简洁的中文摘要。`, title, content)
}
