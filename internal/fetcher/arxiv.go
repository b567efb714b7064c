package fetcher

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed/atom"

	"llm-news/config"
	"llm-news/internal/models"
)

// LLM评估相关的搜索关键词
var arxivSearchTerms = []string{
	"language model evaluation",
	"linguistic diversity LLM",
	"synthetic text training LLM",
	"iterative generation degradation",
	"broken telephone language model",
	"long-term LLM robustness",
	"hallucination detection LLM",
	"reasoning faithfulness evaluation",
	"LLM information distortion",
	"language model calibration",
	"out-of-distribution LLM evaluation",
	"semantic diversity language model",
	"bias and ethics in LLMs",
	"LLM temporal generalization",
	"alignment drift in language models",
	"continual finetuning evaluation",
	"language model memory forgetting",
	"multilingual consistency evaluation",
}

var spaceExpr = regexp.MustCompile(`\s+`)

// ArxivClient 用于访问Arxiv API的客户端
type ArxivClient struct {
	apiURL string
	client *http.Client
}

// NewArxivClient 创建一个新的Arxiv客户端
func NewArxivClient(cfg *config.ArxivConfig) *ArxivClient {
	return &ArxivClient{
		apiURL: cfg.APIURL,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchPapers 抓取最新的相关论文
func (c *ArxivClient) FetchPapers(ctx context.Context, maxResults int) ([]models.ContentItem, error) {
	// 构建搜索查询
	terms := make([]string, 0, len(arxivSearchTerms))
	for _, term := range arxivSearchTerms {
		terms = append(terms, fmt.Sprintf("all:%q", term))
	}
	searchQuery := strings.Join(terms, " OR ")

	params := url.Values{}
	params.Set("search_query", searchQuery)
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")

	log.Println("正在抓取 Arxiv 论文...")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Arxiv 抓取失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Arxiv API 响应错误: %d", resp.StatusCode)
	}

	// Arxiv API 返回Atom格式
	feed, err := (&atom.Parser{}).Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("解析Atom响应失败: %w", err)
	}

	if feed == nil || len(feed.Entries) == 0 {
		log.Println("未找到相关论文")
		return nil, nil
	}

	papers := make([]models.ContentItem, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		published := time.Now().UTC()
		if entry.PublishedParsed != nil {
			published = *entry.PublishedParsed
		} else if entry.UpdatedParsed != nil {
			published = *entry.UpdatedParsed
		}

		title := collapseWhitespace(entry.Title)
		if title == "" {
			title = "Untitled"
		}

		papers = append(papers, models.ContentItem{
			Title:     title,
			Content:   collapseWhitespace(entry.Summary),
			Link:      preferPDFLink(entry),
			Source:    models.SourceArxiv,
			Published: published,
		})
	}

	log.Printf("成功抓取 %d 篇 Arxiv 论文", len(papers))
	return papers, nil
}

// preferPDFLink 优先返回PDF链接
func preferPDFLink(entry *atom.Entry) string {
	link := entry.ID
	for _, l := range entry.Links {
		if l == nil {
			continue
		}
		if l.Type == "application/pdf" {
			return l.Href
		}
		if link == "" && l.Href != "" {
			link = l.Href
		}
	}
	if link == "" && len(entry.Links) > 0 && entry.Links[0] != nil {
		link = entry.Links[0].Href
	}
	return link
}

// collapseWhitespace 合并连续空白字符
func collapseWhitespace(s string) string {
	return strings.TrimSpace(spaceExpr.ReplaceAllString(s, " "))
}
