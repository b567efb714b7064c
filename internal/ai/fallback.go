package ai

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"llm-news/internal/models"
)

var (
	fallbackCleanExpr = regexp.MustCompile(`[^\p{Han}a-zA-Z0-9\s.,!?;:]`)
	fallbackSpaceExpr = regexp.MustCompile(`\s+`)
	sentenceSplitExpr = regexp.MustCompile(`[.!?。！？]`)
)

// FallbackSummary 在摘要服务失败时用原文前几句生成备用摘要
// 论文取前3句，新闻取前2句
func FallbackSummary(content, source string) string {
	if content == "" {
		return "暂无摘要"
	}

	// 清理文本
	clean := fallbackSpaceExpr.ReplaceAllString(content, " ")
	clean = strings.TrimSpace(fallbackCleanExpr.ReplaceAllString(clean, ""))

	// 按句子分割，丢弃过短的片段
	var sentences []string
	for _, s := range sentenceSplitExpr.Split(clean, -1) {
		s = strings.TrimSpace(s)
		if utf8.RuneCountInString(s) > 10 {
			sentences = append(sentences, s)
		}
	}

	if len(sentences) == 0 {
		return "内容摘要暂不可用"
	}

	maxSentences := 2
	if source == models.SourceArxiv {
		maxSentences = 3
	}
	if len(sentences) > maxSentences {
		sentences = sentences[:maxSentences]
	}

	summary := strings.Join(sentences, "。") + "。"

	// 限制摘要长度
	if utf8.RuneCountInString(summary) > 200 {
		summary = string([]rune(summary)[:197]) + "..."
	}

	return summary
}
