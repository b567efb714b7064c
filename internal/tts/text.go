package tts

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	quoteExpr      = regexp.MustCompile("[“”‘’]")
	dashExpr       = regexp.MustCompile("[–—]")
	whitespaceExpr = regexp.MustCompile(`\s+`)
	hardPauseExpr  = regexp.MustCompile("([。！？])")
	semiPauseExpr  = regexp.MustCompile("([；;])")
	simplifyExpr   = regexp.MustCompile(`[^\p{Han}a-zA-Z0-9\s.,!?;:，。！？；：]`)
	splitExpr      = regexp.MustCompile(`[.!?。！？]`)
)

// PreprocessText 预处理文本以优化朗读效果
func PreprocessText(text string) string {
	// 统一引号和破折号，合并空白
	processed := quoteExpr.ReplaceAllString(text, `"`)
	processed = dashExpr.ReplaceAllString(processed, "-")
	processed = strings.TrimSpace(whitespaceExpr.ReplaceAllString(processed, " "))

	// 在句末标点后插入停顿
	processed = hardPauseExpr.ReplaceAllString(processed, "$1，")
	processed = semiPauseExpr.ReplaceAllString(processed, "$1，")
	processed = strings.ReplaceAll(processed, "，，", "，")

	// 限制文本长度，过长的输入是TTS已知的失败原因
	if utf8.RuneCountInString(processed) > 1000 {
		processed = string([]rune(processed)[:997]) + "..."
	}

	return processed
}

// SimplifyText 更激进地清理并缩短文本，用于TTS失败后的二次尝试
func SimplifyText(text string) string {
	simplified := simplifyExpr.ReplaceAllString(text, "")
	simplified = strings.TrimSpace(whitespaceExpr.ReplaceAllString(simplified, " "))

	// 只保留前2句
	var sentences []string
	for _, s := range splitExpr.Split(simplified, -1) {
		s = strings.TrimSpace(s)
		if utf8.RuneCountInString(s) > 5 {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) > 2 {
		simplified = strings.Join(sentences[:2], "。") + "。"
	}

	if utf8.RuneCountInString(simplified) > 500 {
		simplified = string([]rune(simplified)[:497]) + "..."
	}

	if simplified == "" {
		return "内容摘要"
	}
	return simplified
}

// EstimateDuration 根据文本长度估算音频时长（秒）
// 中文朗读速度约为4-5字/秒
func EstimateDuration(text string) int {
	charCount := utf8.RuneCountInString(text)
	seconds := int(math.Ceil(float64(charCount) / 4.5))
	if seconds < 5 {
		return 5
	}
	return seconds
}
