package fetcher

import (
	"strings"

	"llm-news/internal/models"
)

// 论文相关性关键词
var paperKeywords = []string{
	"llm", "language model", "large language model", "transformer",
	"evaluation", "assessment", "benchmark", "comparison",
	"linguistic diversity", "lexical diversity", "syntactic diversity", "semantic diversity",
	"synthetic text", "iterative generation", "generation degradation",
	"hallucination", "faithfulness", "factual consistency",
	"alignment", "bias", "robustness", "generalization", "calibration",
	"memory", "forgetting", "multilingual", "consistency",
	"style transfer", "reasoning", "long-term", "recursive",
	"broken telephone", "semantic drift", "prompt robustness",
}

// 新闻相关性关键词
var newsKeywords = []string{
	"llm evaluation",
	"language model evaluation",
	"benchmark",
	"benchmarked",
	"evaluation metrics",
	"performance metrics",
	"model assessment",
	"tested",
	"model accuracy",
	"model performance",
	"comparison of models",
	"leaderboard",
	"open llm leaderboard",
	"model ranking",
	"chatbot evaluation",
	"conversational ai",
	"generation quality",
	"factual consistency",
	"hallucination",
	"prompt evaluation",
	"output diversity",
	"synthetic text",
	"robustness test",
	"alignment evaluation",
	"zero-shot evaluation",
	"multilingual performance",
	"model fine-tuning evaluation",
	"real-world performance",
	"ai evaluation",
}

// FilterRelevantPapers 过滤与LLM评估高度相关的论文
// 单个关键词过于宽泛，至少命中2个才算相关
func FilterRelevantPapers(papers []models.ContentItem) []models.ContentItem {
	var relevant []models.ContentItem
	for _, paper := range papers {
		text := strings.ToLower(paper.Title + " " + paper.Content)

		score := 0
		for _, keyword := range paperKeywords {
			if strings.Contains(text, keyword) {
				score++
			}
		}

		if score >= 2 {
			relevant = append(relevant, paper)
		}
	}
	return relevant
}

// FilterRelevantNews 过滤相关新闻，命中任意关键词即可
func FilterRelevantNews(news []models.ContentItem) []models.ContentItem {
	var relevant []models.ContentItem
	for _, item := range news {
		text := strings.ToLower(item.Title + " " + item.Content)

		for _, keyword := range newsKeywords {
			if strings.Contains(text, keyword) {
				relevant = append(relevant, item)
				break
			}
		}
	}
	return relevant
}
