package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"llm-news/config"
	"llm-news/internal/storage"
	"llm-news/internal/store"
)

// 清理工具：删除超过保留期的新闻记录及其对应的音频对象
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	days := flag.Int("days", 30, "保留天数，早于该天数的记录和音频将被删除")
	dryRun := flag.Bool("dry-run", false, "只打印将被删除的内容，不实际删除")
	flag.Parse()

	cfg := config.LoadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// 清理数据库记录
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatalf("打开数据库连接失败: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	newsStore := store.NewNewsStore(db)
	if *dryRun {
		log.Printf("dry-run: 跳过数据库清理（保留期 %d 天）", *days)
	} else {
		deleted, err := newsStore.DeleteOlderThan(ctx, *days)
		if err != nil {
			log.Fatalf("清理数据库记录失败: %v", err)
		}
		log.Printf("已删除 %d 条过期记录", deleted)
	}

	// 清理MinIO中的过期音频
	minioClient, err := storage.NewMinioClient(&cfg.MinIO)
	if err != nil {
		log.Fatalf("创建MinIO客户端失败: %v", err)
	}

	objects, err := minioClient.ListFiles(ctx, "audio/")
	if err != nil {
		log.Fatalf("列出音频文件失败: %v", err)
	}
	log.Printf("共找到 %d 个音频文件", len(objects))

	cutoff := time.Now().AddDate(0, 0, -*days).UnixMilli()
	removed := 0
	for _, name := range objects {
		ts, ok := uploadTimestamp(name)
		if !ok {
			log.Printf("跳过无法解析时间戳的对象: %s", name)
			continue
		}
		if ts >= cutoff {
			continue
		}

		if *dryRun {
			log.Printf("dry-run: 将删除 %s", name)
			removed++
			continue
		}

		if err := minioClient.DeleteFile(ctx, name); err != nil {
			log.Printf("删除对象 %s 失败: %v", name, err)
			continue
		}
		removed++
	}

	log.Printf("音频清理完成，共处理 %d 个过期对象", removed)
}

// uploadTimestamp 从对象名中解析上传时间戳(毫秒)
// 对象名形如 audio/1700000000000-Title_id.mp3
func uploadTimestamp(objectName string) (int64, bool) {
	name := strings.TrimPrefix(objectName, "audio/")
	idx := strings.Index(name, "-")
	if idx <= 0 {
		return 0, false
	}
	ts, err := strconv.ParseInt(name[:idx], 10, 64)
	if err != nil {
		return 0, false
	}
	return ts, true
}
