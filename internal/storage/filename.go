package storage

import (
	"regexp"
	"strings"
)

var (
	unsafeCharExpr = regexp.MustCompile(`[^\p{Han}a-zA-Z0-9\s]`)
	filenameSpace  = regexp.MustCompile(`\s+`)
)

// GenerateAudioFilename 根据标题和条目ID生成安全的音频文件名
func GenerateAudioFilename(title, id string) string {
	// 清理标题：去除特殊字符，空格转下划线，限制长度
	clean := unsafeCharExpr.ReplaceAllString(title, "")
	clean = filenameSpace.ReplaceAllString(strings.TrimSpace(clean), "_")

	runes := []rune(clean)
	if len(runes) > 30 {
		clean = string(runes[:30])
	}

	return clean + "_" + id + ".mp3"
}

// ValidateAudioBuffer 粗略校验音频数据是否是有效的MP3
func ValidateAudioBuffer(data []byte) bool {
	if len(data) == 0 {
		return false
	}

	if len(data) >= 4 {
		// MP3帧同步字节
		if data[0] == 0xFF && data[1]&0xE0 == 0xE0 {
			return true
		}
		// ID3标签
		if string(data[:3]) == "ID3" {
			return true
		}
	}

	// 其他格式也可能有效，只要求一个最小体积
	return len(data) > 1000
}
