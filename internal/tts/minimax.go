package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"llm-news/config"
)

const defaultMiniMaxVoice = "female-tianmei-jingpin"

// MiniMaxTTS 实现MiniMax语音合成服务
type MiniMaxTTS struct {
	apiURL string
	apiKey string
	client *http.Client
}

// NewMiniMaxTTS 创建一个新的MiniMax TTS服务
func NewMiniMaxTTS(cfg config.MiniMaxTTSConfig) (*MiniMaxTTS, error) {
	return &MiniMaxTTS{
		apiURL: cfg.APIURL,
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// SynthesizeSpeech 将文本转换为语音
func (m *MiniMaxTTS) SynthesizeSpeech(ctx context.Context, req SpeechRequest) ([]byte, error) {
	voiceID := req.VoiceID
	if voiceID == "" {
		voiceID = defaultMiniMaxVoice
	}
	speed := req.Speed
	if speed == 0 {
		speed = 1.0
	}
	vol := req.Volume
	if vol == 0 {
		vol = 1.0
	}

	body, err := json.Marshal(map[string]interface{}{
		"text":         req.Text,
		"voice_id":     voiceID,
		"speed":        speed,
		"vol":          vol,
		"audio_format": "mp3",
		"bitrate":      128000,
	})
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+m.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("发送请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("MiniMax TTS 响应错误: %d %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取音频数据失败: %w", err)
	}

	log.Printf("TTS转换成功，音频大小: %d 字节", len(audio))
	return audio, nil
}

// Provider 返回TTS提供商名称
func (m *MiniMaxTTS) Provider() string {
	return "minimax"
}
