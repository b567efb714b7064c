package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"llm-news/config"
)

// SummarizeError 摘要生成错误，区分服务端返回的错误和网络传输错误
type SummarizeError struct {
	Transport bool
	Err       error
}

func (e *SummarizeError) Error() string {
	if e.Transport {
		return fmt.Sprintf("摘要服务网络错误: %v", e.Err)
	}
	return fmt.Sprintf("摘要服务返回错误: %v", e.Err)
}

func (e *SummarizeError) Unwrap() error {
	return e.Err
}

// Client 是摘要服务的客户端
type Client struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewClient 创建一个新的摘要客户端
func NewClient(cfg *config.OpenAIConfig) *Client {
	if cfg.APIKey == "" {
		log.Println("警告: 未设置DEEPSEEK_API_KEY环境变量")
	}

	// DeepSeek兼容OpenAI接口，只需替换BaseURL
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = cfg.BaseURL

	return &Client{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

// Summarize 为单条内容生成摘要，maxSentences为摘要句数上限
func (c *Client) Summarize(ctx context.Context, title, content string, maxSentences int) (string, error) {
	// 限制内容长度，防止超过token限制
	if len(content) > 8000 {
		content = content[:8000]
	}

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: summarizeSystemPrompt(maxSentences),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: summarizeUserPrompt(title, content),
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: 0.3,
	}

	return c.generateText(ctx, req)
}

// generateText 发送请求并获取生成的文本
func (c *Client) generateText(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	// 添加重试逻辑
	maxRetries := 3
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		timeoutCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		resp, err := c.client.CreateChatCompletion(timeoutCtx, req)
		cancel()

		if err != nil {
			lastErr = classifyError(err)
			if i < maxRetries-1 {
				log.Printf("摘要请求失败，正在重试 (%d/%d): %v", i+1, maxRetries, err)
				time.Sleep(time.Duration(i+1) * 2 * time.Second)
				continue
			}
			return "", lastErr
		}

		if len(resp.Choices) == 0 {
			lastErr = &SummarizeError{Err: errors.New("API 返回空摘要")}
			if i < maxRetries-1 {
				log.Printf("摘要响应无效，正在重试 (%d/%d)", i+1, maxRetries)
				time.Sleep(time.Duration(i+1) * 2 * time.Second)
				continue
			}
			return "", lastErr
		}

		summary := strings.TrimSpace(resp.Choices[0].Message.Content)
		if summary == "" {
			return "", &SummarizeError{Err: errors.New("API 返回空摘要")}
		}

		log.Printf("摘要生成成功，使用tokens: %d", resp.Usage.TotalTokens)
		return summary, nil
	}

	return "", lastErr
}

// classifyError 把底层错误归类为服务端错误或网络错误
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &SummarizeError{Err: err}
	}
	return &SummarizeError{Transport: true, Err: err}
}
