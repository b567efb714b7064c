package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"llm-news/config"
	"llm-news/internal/models"
	"llm-news/internal/tts"
)

type fakePapers struct {
	items []models.ContentItem
	err   error
}

func (f *fakePapers) FetchPapers(ctx context.Context, maxResults int) ([]models.ContentItem, error) {
	return f.items, f.err
}

type fakeNews struct {
	items []models.ContentItem
	err   error
}

func (f *fakeNews) FetchNews(ctx context.Context, maxResults int) ([]models.ContentItem, error) {
	return f.items, f.err
}

type fakeSummarizer struct {
	err   error
	calls int
}

func (f *fakeSummarizer) Summarize(ctx context.Context, title, content string, maxSentences int) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "摘要: " + title, nil
}

type fakeSpeech struct {
	err   error
	calls int
}

func (f *fakeSpeech) SynthesizeSpeech(ctx context.Context, req tts.SpeechRequest) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte{0xFF, 0xFB, 0x90, 0x00}, nil
}

type fakeUploader struct {
	err   error
	calls int
}

func (f *fakeUploader) UploadAudio(ctx context.Context, data []byte, filename string) (string, string, error) {
	f.calls++
	if f.err != nil {
		return "", "", f.err
	}
	return "http://minio.local/audio/" + filename, "audio/" + filename, nil
}

type fakeStore struct {
	saved     []models.NewsItem
	seenLinks map[string]bool
}

// 与真实存储层一致：重复link静默跳过，既不算成功也不算失败
func (f *fakeStore) SaveNewsItems(ctx context.Context, items []models.NewsItem) (int, int) {
	success := 0
	for _, item := range items {
		if f.seenLinks[item.Link] {
			continue
		}
		f.saved = append(f.saved, item)
		success++
	}
	return success, 0
}

func (f *fakeStore) GetStats(ctx context.Context) (*models.Stats, error) {
	return &models.Stats{Total: len(f.saved), BySource: map[string]int{}}, nil
}

// 论文需要命中至少2个相关关键词才能通过过滤
func relevantPaper() models.ContentItem {
	return models.ContentItem{
		Title:     "Hallucination Benchmark for LLM Evaluation",
		Content:   "A benchmark measuring hallucination in language model evaluation.",
		Link:      "http://arxiv.org/abs/1",
		Source:    models.SourceArxiv,
		Published: time.Now(),
	}
}

func newsItem() models.ContentItem {
	return models.ContentItem{
		Title:     "Leaderboard Update",
		Content:   "New results on the open llm leaderboard.",
		Link:      "http://news.local/1",
		Source:    models.SourceNews,
		Published: time.Now(),
	}
}

func testConfig() *config.Config {
	return &config.Config{
		TTS: config.TTSConfig{VoiceID: "test-voice"},
		Pipeline: config.PipelineConfig{
			MaxItems: 5,
		},
		Arxiv: config.ArxivConfig{MaxResults: 15},
		News:  config.NewsConfig{MaxResults: 10},
	}
}

func TestRunFullPipeline(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	speech := &fakeSpeech{}
	uploader := &fakeUploader{}

	p := New(testConfig(), Deps{
		Papers:     &fakePapers{items: []models.ContentItem{relevantPaper()}},
		News:       &fakeNews{items: []models.ContentItem{newsItem()}},
		Summarizer: &fakeSummarizer{},
		Speech:     speech,
		Uploader:   uploader,
		Store:      store,
	})

	result := p.Run(context.Background())

	if result.TotalProcessed != 2 {
		t.Errorf("期望处理2个项目，实际 %d", result.TotalProcessed)
	}
	if result.Successful != 2 || result.Failed != 0 {
		t.Errorf("期望2成功0失败，实际 %d/%d", result.Successful, result.Failed)
	}
	if len(store.saved) != 2 {
		t.Fatalf("期望入库2条记录，实际 %d", len(store.saved))
	}
	for _, item := range store.saved {
		if item.AudioURL == nil {
			t.Errorf("记录 %s 缺少音频URL", item.Title)
		}
	}
	if speech.calls != 2 || uploader.calls != 2 {
		t.Errorf("TTS/上传调用次数错误: %d/%d", speech.calls, uploader.calls)
	}
}

func TestRunSummarizerFallback(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	paper := relevantPaper()

	p := New(testConfig(), Deps{
		Papers:     &fakePapers{items: []models.ContentItem{paper}},
		News:       &fakeNews{},
		Summarizer: &fakeSummarizer{err: errors.New("api unavailable")},
		Speech:     &fakeSpeech{},
		Uploader:   &fakeUploader{},
		Store:      store,
	})

	result := p.Run(context.Background())

	// 摘要失败不丢条目，退回备用摘要后照常入库
	if result.Successful != 1 {
		t.Errorf("期望1条成功，实际 %d", result.Successful)
	}
	if len(store.saved) != 1 {
		t.Fatalf("期望入库1条记录，实际 %d", len(store.saved))
	}
	if store.saved[0].Summary == "" {
		t.Error("备用摘要不应为空")
	}
}

func TestRunTTSDoubleFailure(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	speech := &fakeSpeech{err: errors.New("tts down")}

	p := New(testConfig(), Deps{
		Papers:     &fakePapers{items: []models.ContentItem{relevantPaper()}},
		News:       &fakeNews{},
		Summarizer: &fakeSummarizer{},
		Speech:     speech,
		Uploader:   &fakeUploader{},
		Store:      store,
	})

	result := p.Run(context.Background())

	// 两次TTS尝试都失败时，条目仍然入库，只是没有音频
	if speech.calls != 2 {
		t.Errorf("期望2次TTS尝试（含简化重试），实际 %d", speech.calls)
	}
	if result.Successful != 1 {
		t.Errorf("期望1条成功，实际 %d", result.Successful)
	}
	if len(store.saved) != 1 {
		t.Fatalf("期望入库1条记录，实际 %d", len(store.saved))
	}
	if store.saved[0].AudioURL != nil {
		t.Error("音频失败的记录audio_url应为空")
	}
}

func TestRunDuplicateSkipAccounting(t *testing.T) {
	t.Parallel()

	first := relevantPaper()
	second := relevantPaper()
	second.Link = "http://arxiv.org/abs/2"

	// 第一条的link已入库，入库阶段会被静默跳过
	store := &fakeStore{seenLinks: map[string]bool{first.Link: true}}

	p := New(testConfig(), Deps{
		Papers:     &fakePapers{items: []models.ContentItem{first, second}},
		News:       &fakeNews{},
		Summarizer: &fakeSummarizer{},
		Speech:     &fakeSpeech{},
		Uploader:   &fakeUploader{},
		Store:      store,
	})

	result := p.Run(context.Background())

	if result.TotalProcessed != 2 {
		t.Fatalf("期望处理2个项目，实际 %d", result.TotalProcessed)
	}
	if result.Successful != 1 || result.Failed != 0 {
		t.Errorf("期望1成功0失败，实际 %d/%d", result.Successful, result.Failed)
	}
	// 重复条目被跳过时，成功数加失败数严格小于处理总数
	if result.Successful+result.Failed >= result.TotalProcessed {
		t.Errorf("跳过重复后计数应不满: %d+%d vs %d", result.Successful, result.Failed, result.TotalProcessed)
	}
	if len(store.saved) != 1 {
		t.Errorf("期望只入库1条新记录，实际 %d", len(store.saved))
	}
}

func TestRunNoContent(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	p := New(testConfig(), Deps{
		Papers:     &fakePapers{},
		News:       &fakeNews{},
		Summarizer: &fakeSummarizer{},
		Speech:     &fakeSpeech{},
		Uploader:   &fakeUploader{},
		Store:      store,
	})

	result := p.Run(context.Background())

	if result.TotalProcessed != 0 {
		t.Errorf("期望0个项目，实际 %d", result.TotalProcessed)
	}
	if len(result.Errors) == 0 {
		t.Error("无内容时应返回错误信息")
	}
	if len(store.saved) != 0 {
		t.Error("无内容时不应写入数据库")
	}
}

func TestRunFetchError(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	p := New(testConfig(), Deps{
		Papers:     &fakePapers{err: errors.New("arxiv unreachable")},
		News:       &fakeNews{},
		Summarizer: &fakeSummarizer{},
		Speech:     &fakeSpeech{},
		Uploader:   &fakeUploader{},
		Store:      store,
	})

	result := p.Run(context.Background())

	if len(result.Errors) != 1 {
		t.Fatalf("期望1条错误，实际 %d", len(result.Errors))
	}
	if len(store.saved) != 0 {
		t.Error("抓取失败时不应写入数据库")
	}
}

func TestRunMaxItemsCap(t *testing.T) {
	t.Parallel()

	papers := make([]models.ContentItem, 0, 8)
	for i := 0; i < 8; i++ {
		p := relevantPaper()
		p.Link = p.Link + string(rune('a'+i))
		papers = append(papers, p)
	}

	store := &fakeStore{}
	p := New(testConfig(), Deps{
		Papers:     &fakePapers{items: papers},
		News:       &fakeNews{},
		Summarizer: &fakeSummarizer{},
		Speech:     &fakeSpeech{},
		Uploader:   &fakeUploader{},
		Store:      store,
	})

	result := p.Run(context.Background())

	if result.TotalProcessed != 5 {
		t.Errorf("期望最多处理5个项目，实际 %d", result.TotalProcessed)
	}
}

func TestRunTestSkipsAudio(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	speech := &fakeSpeech{}
	uploader := &fakeUploader{}

	p := New(testConfig(), Deps{
		Papers:     &fakePapers{items: []models.ContentItem{relevantPaper(), relevantPaper()}},
		News:       &fakeNews{items: []models.ContentItem{newsItem()}},
		Summarizer: &fakeSummarizer{},
		Speech:     speech,
		Uploader:   uploader,
		Store:      store,
	})

	result := p.RunTest(context.Background())

	// 测试模式各来源只取1条，且完全跳过音频环节
	if result.TotalProcessed != 2 {
		t.Errorf("期望处理2个项目，实际 %d", result.TotalProcessed)
	}
	if speech.calls != 0 || uploader.calls != 0 {
		t.Errorf("测试模式不应触发TTS或上传: %d/%d", speech.calls, uploader.calls)
	}
	if len(store.saved) != 2 {
		t.Errorf("期望入库2条记录，实际 %d", len(store.saved))
	}
	for _, item := range store.saved {
		if item.AudioURL != nil {
			t.Error("测试模式的记录不应有音频URL")
		}
	}
}

func TestRunTestNoContent(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	p := New(testConfig(), Deps{
		Papers:     &fakePapers{},
		News:       &fakeNews{},
		Summarizer: &fakeSummarizer{},
		Speech:     &fakeSpeech{},
		Uploader:   &fakeUploader{},
		Store:      store,
	})

	result := p.RunTest(context.Background())

	if result.TotalProcessed != 0 {
		t.Errorf("期望0个项目，实际 %d", result.TotalProcessed)
	}
	if len(result.Errors) == 0 {
		t.Error("无内容时应返回错误信息")
	}
	if len(store.saved) != 0 {
		t.Error("无内容时不应写入数据库")
	}
}

func TestRunTestFetchError(t *testing.T) {
	t.Parallel()

	p := New(testConfig(), Deps{
		Papers:     &fakePapers{err: errors.New("timeout")},
		News:       &fakeNews{},
		Summarizer: &fakeSummarizer{},
		Speech:     &fakeSpeech{},
		Uploader:   &fakeUploader{},
		Store:      &fakeStore{},
	})

	result := p.RunTest(context.Background())

	if result.Failed != 1 {
		t.Errorf("期望Failed为1，实际 %d", result.Failed)
	}
	if len(result.Errors) != 1 {
		t.Errorf("期望1条错误，实际 %d", len(result.Errors))
	}
}
