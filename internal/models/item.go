package models

import "time"

// 内容来源类型
const (
	SourceArxiv = "arxiv"
	SourceNews  = "news"
)

// ContentItem 表示一条待处理的原始内容（论文或新闻）
type ContentItem struct {
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Link      string    `json:"link"`
	Source    string    `json:"source"`
	Published time.Time `json:"published"`
}

// SummarizedContent 表示已生成摘要的内容
type SummarizedContent struct {
	ContentItem
	Summary string `json:"summary"`
}

// TTSTask 表示一个文本转语音任务
type TTSTask struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// TTSResult 表示语音合成结果
type TTSResult struct {
	TTSTask
	Audio    []byte `json:"-"`
	Duration int    `json:"duration"`
}

// AudioUpload 表示已上传的音频文件
type AudioUpload struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Path string `json:"path"`
}

// NewsItem 表示数据库中的一条新闻记录
type NewsItem struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Summary       string    `json:"summary"`
	Link          string    `json:"link"`
	AudioURL      *string   `json:"audioUrl"`
	Source        string    `json:"source"`
	PublishedDate time.Time `json:"publishedDate"`
	CreatedAt     time.Time `json:"createdAt"`
}

// RunResult 表示一次流水线执行的结果
type RunResult struct {
	TotalProcessed int      `json:"totalProcessed"`
	Successful     int      `json:"successful"`
	Failed         int      `json:"failed"`
	Errors         []string `json:"errors"`
}

// Stats 表示数据库统计信息
type Stats struct {
	Total     int            `json:"total"`
	Today     int            `json:"today"`
	WithAudio int            `json:"withAudio"`
	BySource  map[string]int `json:"bySource"`
}
