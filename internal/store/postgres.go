package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	sq "github.com/Masterminds/squirrel"

	"llm-news/internal/models"
)

// 建表语句，link唯一约束是全局去重的依据
const schemaSQL = `
CREATE TABLE IF NOT EXISTS news_items (
	id SERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	summary TEXT NOT NULL,
	link TEXT NOT NULL UNIQUE,
	audio_url TEXT,
	source TEXT NOT NULL CHECK (source IN ('arxiv', 'news')),
	published_date TIMESTAMP NOT NULL,
	created_at TIMESTAMP DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_news_items_created_at ON news_items(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_news_items_source ON news_items(source);
`

// NewsStore 负责新闻记录的持久化和统计
type NewsStore struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

// NewNewsStore 创建一个新的存储层
func NewNewsStore(db *sql.DB) *NewsStore {
	return &NewsStore{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// InitSchema 初始化表结构和索引
func (s *NewsStore) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("初始化表结构失败: %w", err)
	}
	return nil
}

// SaveNewsItems 逐条写入新闻记录
// 去重交给link的唯一约束：冲突时静默跳过，既不算成功也不算失败；
// 单条写入失败只计入failed，不中断整批
func (s *NewsStore) SaveNewsItems(ctx context.Context, items []models.NewsItem) (int, int) {
	success := 0
	failed := 0

	log.Printf("开始更新数据库，共 %d 条记录...", len(items))

	for i, item := range items {
		query := s.sb.Insert("news_items").
			Columns("title", "summary", "link", "audio_url", "source", "published_date").
			Values(item.Title, item.Summary, item.Link, item.AudioURL, item.Source, item.PublishedDate).
			Suffix("ON CONFLICT (link) DO NOTHING")

		res, err := query.RunWith(s.db).ExecContext(ctx)
		if err != nil {
			log.Printf("[%d/%d] 插入记录失败: %v", i+1, len(items), err)
			failed++
			continue
		}

		affected, err := res.RowsAffected()
		if err != nil {
			log.Printf("[%d/%d] 读取插入结果失败: %v", i+1, len(items), err)
			failed++
			continue
		}

		if affected == 0 {
			log.Printf("跳过重复记录: %s", item.Link)
			continue
		}
		success++
	}

	log.Printf("数据库更新完成: 成功 %d 条，失败 %d 条", success, failed)
	return success, failed
}

// GetStats 获取统计信息，各项计数相互独立，均为实时查询
func (s *NewsStore) GetStats(ctx context.Context) (*models.Stats, error) {
	stats := &models.Stats{BySource: map[string]int{}}

	total := s.sb.Select("COUNT(*)").From("news_items")
	if err := total.RunWith(s.db).QueryRowContext(ctx).Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("查询总数失败: %w", err)
	}

	today := s.sb.Select("COUNT(*)").From("news_items").Where("created_at >= CURRENT_DATE")
	if err := today.RunWith(s.db).QueryRowContext(ctx).Scan(&stats.Today); err != nil {
		return nil, fmt.Errorf("查询今日新增失败: %w", err)
	}

	withAudio := s.sb.Select("COUNT(*)").From("news_items").Where("audio_url IS NOT NULL")
	if err := withAudio.RunWith(s.db).QueryRowContext(ctx).Scan(&stats.WithAudio); err != nil {
		return nil, fmt.Errorf("查询音频数量失败: %w", err)
	}

	bySource := s.sb.Select("source", "COUNT(*)").From("news_items").GroupBy("source")
	rows, err := bySource.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("按来源统计失败: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("读取来源统计失败: %w", err)
		}
		stats.BySource[source] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历来源统计失败: %w", err)
	}

	return stats, nil
}

// GetLatest 获取最新的新闻记录
func (s *NewsStore) GetLatest(ctx context.Context, limit int) ([]models.NewsItem, error) {
	query := s.sb.Select("id", "title", "summary", "link", "audio_url", "source", "published_date", "created_at").
		From("news_items").
		OrderBy("created_at DESC").
		Limit(uint64(limit))

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("查询最新记录失败: %w", err)
	}
	defer rows.Close()

	var items []models.NewsItem
	for rows.Next() {
		var item models.NewsItem
		var audioURL sql.NullString
		if err := rows.Scan(&item.ID, &item.Title, &item.Summary, &item.Link, &audioURL, &item.Source, &item.PublishedDate, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("读取记录失败: %w", err)
		}
		if audioURL.Valid {
			item.AudioURL = &audioURL.String
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历记录失败: %w", err)
	}

	return items, nil
}

// DeleteOlderThan 删除超过保留期的记录，返回删除条数
func (s *NewsStore) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	query := s.sb.Delete("news_items").
		Where(sq.Expr("created_at < NOW() - ?::interval", fmt.Sprintf("%d days", days)))

	res, err := query.RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("清理旧记录失败: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("读取删除结果失败: %w", err)
	}
	return deleted, nil
}
