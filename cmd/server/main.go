package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"llm-news/config"
	"llm-news/internal/api"
	"llm-news/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// 加载配置
	cfg := config.LoadConfig()

	// 连接数据库
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatalf("打开数据库连接失败: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := db.PingContext(ctx); err != nil {
		cancel()
		log.Fatalf("数据库连接失败: %v", err)
	}
	cancel()

	// 初始化表结构
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	newsStore := store.NewNewsStore(db)
	if err := newsStore.InitSchema(initCtx); err != nil {
		initCancel()
		log.Fatalf("初始化数据库失败: %v", err)
	}
	initCancel()

	// 创建API服务器
	server, err := api.NewServer(cfg, db)
	if err != nil {
		log.Fatalf("创建服务器失败: %v", err)
	}

	// 启动定时任务，每天凌晨1点执行完整流水线
	c := cron.New(cron.WithSeconds())
	_, err = c.AddFunc(cfg.Cron.Spec, func() {
		log.Println("定时任务触发，开始执行抓取流水线")
		result := server.RunPipeline()
		log.Printf("定时任务完成: 处理 %d，成功 %d，失败 %d", result.TotalProcessed, result.Successful, result.Failed)
	})
	if err != nil {
		log.Fatalf("注册定时任务失败: %v", err)
	}
	c.Start()
	defer c.Stop()

	// 处理退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-quit
		log.Printf("收到退出信号: %v", sig)
		os.Exit(0)
	}()

	log.Printf("服务器启动，监听端口 %s，定时任务: %s", cfg.Server.Port, cfg.Cron.Spec)
	if err := server.Run(); err != nil {
		log.Fatalf("服务器启动失败: %v", err)
	}
}
