package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"llm-news/config"
	"llm-news/internal/ai"
	"llm-news/internal/fetcher"
	"llm-news/internal/models"
	"llm-news/internal/storage"
	"llm-news/internal/tts"
)

// PaperSource 抓取论文
type PaperSource interface {
	FetchPapers(ctx context.Context, maxResults int) ([]models.ContentItem, error)
}

// NewsSource 抓取新闻
type NewsSource interface {
	FetchNews(ctx context.Context, maxResults int) ([]models.ContentItem, error)
}

// Summarizer 生成摘要
type Summarizer interface {
	Summarize(ctx context.Context, title, content string, maxSentences int) (string, error)
}

// SpeechService 语音合成
type SpeechService interface {
	SynthesizeSpeech(ctx context.Context, req tts.SpeechRequest) ([]byte, error)
}

// Uploader 上传音频文件
type Uploader interface {
	UploadAudio(ctx context.Context, data []byte, filename string) (string, string, error)
}

// Store 持久化与统计
type Store interface {
	SaveNewsItems(ctx context.Context, items []models.NewsItem) (int, int)
	GetStats(ctx context.Context) (*models.Stats, error)
}

// Deps 流水线的全部外部依赖，便于测试时替换
type Deps struct {
	Papers     PaperSource
	News       NewsSource
	Summarizer Summarizer
	Speech     SpeechService
	Uploader   Uploader
	Store      Store
}

// Pipeline 串联抓取、过滤、摘要、语音合成、上传和入库
type Pipeline struct {
	papers     PaperSource
	news       NewsSource
	summarizer Summarizer
	speech     SpeechService
	uploader   Uploader
	store      Store

	voiceID    string
	maxItems   int
	arxivMax   int
	newsMax    int
	sumLimiter *Limiter
	ttsLimiter *Limiter
}

// New 创建流水线
func New(cfg *config.Config, deps Deps) *Pipeline {
	return &Pipeline{
		papers:     deps.Papers,
		news:       deps.News,
		summarizer: deps.Summarizer,
		speech:     deps.Speech,
		uploader:   deps.Uploader,
		store:      deps.Store,
		voiceID:    cfg.TTS.VoiceID,
		maxItems:   cfg.Pipeline.MaxItems,
		arxivMax:   cfg.Arxiv.MaxResults,
		newsMax:    cfg.News.MaxResults,
		sumLimiter: NewLimiter(cfg.Pipeline.SummarizeInterval),
		ttsLimiter: NewLimiter(cfg.Pipeline.TTSInterval),
	}
}

// Run 执行完整的每日抓取流水线
// 任何未被下层兜住的异常都在这里转换成失败的RunResult，不会向上抛出
func (p *Pipeline) Run(ctx context.Context) (result models.RunResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("流水线执行异常: %v", r)
			result.Successful = 0
			result.Failed = result.TotalProcessed
			result.Errors = append(result.Errors, fmt.Sprintf("流水线执行异常: %v", r))
		}
	}()

	log.Println("开始执行每日新闻抓取任务...")

	// 步骤1: 抓取Arxiv论文
	papers, err := p.papers.FetchPapers(ctx, p.arxivMax)
	if err != nil {
		log.Printf("抓取Arxiv论文失败: %v", err)
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	relevantPapers := fetcher.FilterRelevantPapers(papers)
	log.Printf("找到 %d 篇相关论文", len(relevantPapers))

	// 步骤2: 抓取AI新闻
	news, err := p.news.FetchNews(ctx, p.newsMax)
	if err != nil {
		log.Printf("抓取新闻失败: %v", err)
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	log.Printf("找到 %d 条相关新闻", len(news))

	// 步骤3: 合并并限制处理数量，控制API成本
	contents := make([]models.ContentItem, 0, len(relevantPapers)+len(news))
	contents = append(contents, relevantPapers...)
	contents = append(contents, news...)
	if len(contents) > p.maxItems {
		contents = contents[:p.maxItems]
	}
	result.TotalProcessed = len(contents)

	if len(contents) == 0 {
		log.Println("没有找到需要处理的内容")
		result.Errors = append(result.Errors, "没有找到需要处理的内容")
		return result
	}
	log.Printf("将处理 %d 个项目", len(contents))

	// 步骤4: 生成摘要
	summarized := p.summarizeAll(ctx, contents)

	// 步骤5: 生成音频
	tasks := make([]models.TTSTask, len(summarized))
	for i, item := range summarized {
		tasks[i] = models.TTSTask{
			ID:    uuid.NewString(),
			Title: item.Title,
			Text:  item.Summary,
		}
	}
	audioResults := p.synthesizeAll(ctx, tasks)

	// 步骤6: 上传音频
	uploads := p.uploadAll(ctx, audioResults)

	// 步骤7: 入库，音频缺失的记录audio_url为空
	audioByID := make(map[string]string, len(uploads))
	for _, upload := range uploads {
		audioByID[upload.ID] = upload.URL
	}

	items := make([]models.NewsItem, len(summarized))
	for i, item := range summarized {
		var audioURL *string
		if url, ok := audioByID[tasks[i].ID]; ok {
			audioURL = &url
		}
		items[i] = models.NewsItem{
			Title:         item.Title,
			Summary:       item.Summary,
			Link:          item.Link,
			AudioURL:      audioURL,
			Source:        item.Source,
			PublishedDate: item.Published,
		}
	}

	result.Successful, result.Failed = p.store.SaveNewsItems(ctx, items)

	// 步骤8: 输出统计报告
	if stats, err := p.store.GetStats(ctx); err != nil {
		log.Printf("获取统计信息失败: %v", err)
	} else {
		log.Printf("统计信息: 总记录数 %d, 今日新增 %d, 包含音频 %d", stats.Total, stats.Today, stats.WithAudio)
	}

	log.Printf("任务执行完成，耗时 %d 秒", int(time.Since(start).Seconds()))
	return result
}

// RunTest 执行缩减版流水线：少量条目，只走摘要和入库，跳过音频
func (p *Pipeline) RunTest(ctx context.Context) (result models.RunResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("测试模式执行异常: %v", r)
			result = models.RunResult{Failed: 1, Errors: []string{fmt.Sprintf("测试模式执行异常: %v", r)}}
		}
	}()

	log.Println("运行测试模式 - 处理较少数据")

	papers, err := p.papers.FetchPapers(ctx, 2)
	if err != nil {
		log.Printf("测试模式抓取论文失败: %v", err)
		return models.RunResult{Failed: 1, Errors: []string{err.Error()}}
	}
	news, err := p.news.FetchNews(ctx, 1)
	if err != nil {
		log.Printf("测试模式抓取新闻失败: %v", err)
		return models.RunResult{Failed: 1, Errors: []string{err.Error()}}
	}

	var contents []models.ContentItem
	if len(papers) > 0 {
		contents = append(contents, papers[0])
	}
	if len(news) > 0 {
		contents = append(contents, news[0])
	}

	if len(contents) == 0 {
		result.Errors = append(result.Errors, "测试: 没有内容")
		return result
	}

	result.TotalProcessed = len(contents)
	log.Printf("测试模式: 处理 %d 个项目", len(contents))

	summarized := p.summarizeAll(ctx, contents)

	items := make([]models.NewsItem, len(summarized))
	for i, item := range summarized {
		items[i] = models.NewsItem{
			Title:         item.Title,
			Summary:       item.Summary,
			Link:          item.Link,
			Source:        item.Source,
			PublishedDate: item.Published,
		}
	}

	result.Successful, result.Failed = p.store.SaveNewsItems(ctx, items)
	return result
}

// summarizeAll 顺序生成摘要，远程失败时退回本地备用摘要，保证不丢条目
func (p *Pipeline) summarizeAll(ctx context.Context, contents []models.ContentItem) []models.SummarizedContent {
	summarized := make([]models.SummarizedContent, 0, len(contents))

	log.Printf("开始对 %d 个内容项生成摘要...", len(contents))

	for i, item := range contents {
		log.Printf("[%d/%d] 正在生成摘要: %s", i+1, len(contents), truncateTitle(item.Title))

		if err := p.sumLimiter.Wait(ctx); err != nil {
			log.Printf("摘要限速等待中断: %v", err)
		}

		// 论文摘要稍长一些
		maxSentences := 3
		if item.Source == models.SourceArxiv {
			maxSentences = 5
		}

		summary, err := p.summarizer.Summarize(ctx, item.Title, item.Content, maxSentences)
		if err != nil {
			log.Printf("摘要生成失败: %s: %v", item.Title, err)
			summary = ai.FallbackSummary(item.Content, item.Source)
		}

		summarized = append(summarized, models.SummarizedContent{ContentItem: item, Summary: summary})
	}

	log.Printf("摘要生成完成，成功处理 %d 个项目", len(summarized))
	return summarized
}

// synthesizeAll 顺序生成音频，两级降级：
// 首次失败后用简化文本稍快语速重试，再失败则放弃该条目的音频
func (p *Pipeline) synthesizeAll(ctx context.Context, tasks []models.TTSTask) []models.TTSResult {
	log.Printf("开始为 %d 个项目生成音频...", len(tasks))

	results, errs := collectResults(tasks, func(task models.TTSTask) (models.TTSResult, error) {
		if err := p.ttsLimiter.Wait(ctx); err != nil {
			log.Printf("TTS限速等待中断: %v", err)
		}

		audio, err := p.speech.SynthesizeSpeech(ctx, tts.SpeechRequest{
			Text:    tts.PreprocessText(task.Text),
			VoiceID: p.voiceID,
			Speed:   1.0,
			Volume:  1.0,
		})
		if err != nil {
			log.Printf("音频生成失败: %s: %v，尝试生成简化版本...", task.Title, err)
			audio, err = p.speech.SynthesizeSpeech(ctx, tts.SpeechRequest{
				Text:    tts.SimplifyText(task.Text),
				VoiceID: p.voiceID,
				Speed:   1.1,
				Volume:  1.0,
			})
			if err != nil {
				return models.TTSResult{}, fmt.Errorf("简化版音频也生成失败 %s: %w", task.Title, err)
			}
		}

		return models.TTSResult{
			TTSTask:  task,
			Audio:    audio,
			Duration: tts.EstimateDuration(task.Text),
		}, nil
	})

	for _, e := range errs {
		log.Printf("音频条目被跳过: %s", e)
	}
	log.Printf("音频生成完成，成功处理 %d/%d 个项目", len(results), len(tasks))
	return results
}

// uploadAll 逐个上传音频，单个失败不影响其余条目
func (p *Pipeline) uploadAll(ctx context.Context, audioResults []models.TTSResult) []models.AudioUpload {
	log.Printf("开始批量上传 %d 个音频文件...", len(audioResults))

	uploads, errs := collectResults(audioResults, func(result models.TTSResult) (models.AudioUpload, error) {
		if !storage.ValidateAudioBuffer(result.Audio) {
			return models.AudioUpload{}, fmt.Errorf("无效的音频数据: %s", result.Title)
		}

		filename := storage.GenerateAudioFilename(result.Title, result.ID)
		url, path, err := p.uploader.UploadAudio(ctx, result.Audio, filename)
		if err != nil {
			return models.AudioUpload{}, fmt.Errorf("音频上传失败 %s: %w", filename, err)
		}

		return models.AudioUpload{ID: result.ID, URL: url, Path: path}, nil
	})

	for _, e := range errs {
		log.Printf("%s", e)
	}
	log.Printf("批量上传完成，成功上传 %d/%d 个文件", len(uploads), len(audioResults))
	return uploads
}

// truncateTitle 日志用的标题截断
func truncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) > 50 {
		return string(runes[:50]) + "..."
	}
	return title
}
