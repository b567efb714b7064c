package ai

import (
	"strings"
	"testing"
	"unicode/utf8"

	"llm-news/internal/models"
)

func TestFallbackSummaryArxiv(t *testing.T) {
	t.Parallel()

	content := "This paper studies language model evaluation in depth. " +
		"We propose a new benchmark for measuring robustness. " +
		"Experiments show consistent improvements across tasks. " +
		"Finally we discuss limitations and future work directions."

	summary := FallbackSummary(content, models.SourceArxiv)

	// 论文最多保留3句
	if got := strings.Count(summary, "。"); got != 3 {
		t.Errorf("期望3个句号，实际 %d: %q", got, summary)
	}
	if !strings.HasSuffix(summary, "。") {
		t.Errorf("摘要应以句号结尾: %q", summary)
	}
	if strings.Contains(summary, "future work") {
		t.Errorf("第4句不应出现在摘要中: %q", summary)
	}
}

func TestFallbackSummaryNews(t *testing.T) {
	t.Parallel()

	content := "一家公司今天发布了全新的大语言模型评估工具。该工具支持多语言基准测试和幻觉检测。官方表示未来还会加入更多评估维度。"

	summary := FallbackSummary(content, models.SourceNews)

	// 新闻最多保留2句
	if got := strings.Count(summary, "。"); got != 2 {
		t.Errorf("期望2个句号，实际 %d: %q", got, summary)
	}
}

func TestFallbackSummaryEmpty(t *testing.T) {
	t.Parallel()

	if got := FallbackSummary("", models.SourceArxiv); got != "暂无摘要" {
		t.Errorf("空内容应返回占位文案，实际 %q", got)
	}

	// 清理后没有足够长的句子
	if got := FallbackSummary("短. 句. 也短.", models.SourceNews); got != "内容摘要暂不可用" {
		t.Errorf("无有效句子时应返回占位文案，实际 %q", got)
	}
}

func TestFallbackSummaryLengthCap(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("这是一段非常长的测试文本内容用来验证截断逻辑", 10) + "。"
	summary := FallbackSummary(long, models.SourceArxiv)

	if utf8.RuneCountInString(summary) > 200 {
		t.Errorf("摘要长度超出上限: %d", utf8.RuneCountInString(summary))
	}
	if !strings.HasSuffix(summary, "...") {
		t.Errorf("超长摘要应以省略号结尾: %q", summary)
	}
}
