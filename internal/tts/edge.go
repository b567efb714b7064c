package tts

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"llm-news/config"
)

const defaultEdgeVoice = "zh-CN-XiaoxiaoNeural"

// EdgeTTS 实现Edge TTS服务，作为MiniMax的备选提供商
type EdgeTTS struct {
	outputFormat string
	client       *http.Client
}

// NewEdgeTTS 创建一个新的Edge TTS服务
func NewEdgeTTS(cfg config.EdgeTTSConfig) (*EdgeTTS, error) {
	return &EdgeTTS{
		outputFormat: cfg.OutputFormat,
		client:       &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// SynthesizeSpeech 将文本转换为语音
func (e *EdgeTTS) SynthesizeSpeech(ctx context.Context, req SpeechRequest) ([]byte, error) {
	// MiniMax的voice id对Edge无效，回退到默认中文语音
	voiceID := req.VoiceID
	if !strings.HasPrefix(voiceID, "zh-CN-") {
		voiceID = defaultEdgeVoice
	}

	// 语速换算为百分比偏移
	rate := 0
	if req.Speed > 0 {
		rate = int((req.Speed - 1.0) * 100)
	}

	// 使用微软官方Edge TTS服务
	baseURL := "https://speech.platform.bing.com/consumer/speech/synthesize/readaloud/edge/v1"

	// 构建SSML文本
	ssml := fmt.Sprintf(`
<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis" xml:lang="zh-CN">
	<voice name="%s">
		<prosody rate="%d%%" pitch="0%%">%s</prosody>
	</voice>
</speak>`, voiceID, rate, escapeXML(req.Text))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL, strings.NewReader(ssml))
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/ssml+xml")
	httpReq.Header.Set("X-Microsoft-OutputFormat", e.outputFormat)
	httpReq.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/93.0.4577.63 Safari/537.36 Edg/93.0.961.47")
	httpReq.Header.Set("Origin", "https://speech.platform.bing.com")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("发送请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("TTS请求失败，状态码: %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应内容失败: %w", err)
	}

	log.Printf("TTS转换成功，音频大小: %d 字节", len(audio))
	return audio, nil
}

// Provider 返回TTS提供商名称
func (e *EdgeTTS) Provider() string {
	return "edge"
}

// escapeXML 转义XML特殊字符
func escapeXML(text string) string {
	text = strings.ReplaceAll(text, "&", "&amp;")
	text = strings.ReplaceAll(text, "<", "&lt;")
	text = strings.ReplaceAll(text, ">", "&gt;")
	text = strings.ReplaceAll(text, "\"", "&quot;")
	text = strings.ReplaceAll(text, "'", "&apos;")
	return text
}
