package tts

import (
	"context"

	"llm-news/config"
)

// SpeechRequest 一次语音合成请求
type SpeechRequest struct {
	Text    string
	VoiceID string
	Speed   float64
	Volume  float64
}

// Service 定义TTS服务接口
type Service interface {
	// SynthesizeSpeech 将文本转换为语音，返回MP3音频数据
	SynthesizeSpeech(ctx context.Context, req SpeechRequest) ([]byte, error)

	// Provider 返回TTS提供商名称
	Provider() string
}

// Factory 创建TTS服务
func Factory(cfg *config.TTSConfig) (Service, error) {
	// 根据配置选择TTS服务
	switch cfg.Provider {
	case "edge":
		return NewEdgeTTS(cfg.EdgeTTS)
	case "minimax":
		return NewMiniMaxTTS(cfg.MiniMax)
	default:
		// 默认使用MiniMax
		return NewMiniMaxTTS(cfg.MiniMax)
	}
}
