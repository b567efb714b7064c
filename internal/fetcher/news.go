package fetcher

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"llm-news/internal/models"
)

// NewsSource 新闻源配置
type NewsSource struct {
	Name    string
	FeedURL string
}

// 新闻源列表
var defaultNewsSources = []NewsSource{
	{
		Name:    "Hugging Face Blog",
		FeedURL: "https://huggingface.co/blog.rss",
	},
	{
		Name:    "The Decoder",
		FeedURL: "https://the-decoder.com/feed/",
	},
}

// NewsClient 用于抓取AI新闻的客户端
type NewsClient struct {
	parser  *gofeed.Parser
	sources []NewsSource
}

// NewNewsClient 创建一个新的新闻客户端
func NewNewsClient() *NewsClient {
	return newNewsClientWithSources(defaultNewsSources)
}

// newNewsClientWithSources 便于测试时替换新闻源
func newNewsClientWithSources(sources []NewsSource) *NewsClient {
	parser := gofeed.NewParser()
	parser.UserAgent = "Mozilla/5.0 (compatible; LLM-News-Bot/1.0)"
	return &NewsClient{
		parser:  parser,
		sources: sources,
	}
}

// FetchNews 抓取所有新闻源并返回相关条目
// 单个新闻源失败不会中断其余新闻源的抓取
func (c *NewsClient) FetchNews(ctx context.Context, maxResults int) ([]models.ContentItem, error) {
	var allNews []models.ContentItem

	for _, source := range c.sources {
		log.Printf("正在抓取 %s 新闻...", source.Name)

		feed, err := c.parser.ParseURLWithContext(source.FeedURL, ctx)
		if err != nil {
			log.Printf("从 %s 抓取新闻失败: %v", source.Name, err)
			continue
		}

		for _, item := range feed.Items {
			if item == nil {
				continue
			}

			published := time.Now().UTC()
			if item.PublishedParsed != nil {
				published = *item.PublishedParsed
			} else if item.UpdatedParsed != nil {
				published = *item.UpdatedParsed
			}

			content := item.Description
			if content == "" {
				content = item.Content
			}

			allNews = append(allNews, models.ContentItem{
				Title:     collapseWhitespace(item.Title),
				Content:   stripHTML(content),
				Link:      item.Link,
				Source:    models.SourceNews,
				Published: published,
			})
		}
	}

	// 过滤相关新闻
	relevantNews := FilterRelevantNews(allNews)

	// 按发布时间降序排序并限制数量
	sort.Slice(relevantNews, func(i, j int) bool {
		return relevantNews[i].Published.After(relevantNews[j].Published)
	})
	if len(relevantNews) > maxResults {
		relevantNews = relevantNews[:maxResults]
	}

	return relevantNews, nil
}

// stripHTML 去除RSS描述中的HTML标签
func stripHTML(s string) string {
	if !strings.Contains(s, "<") {
		return collapseWhitespace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return collapseWhitespace(s)
	}
	return collapseWhitespace(doc.Text())
}
