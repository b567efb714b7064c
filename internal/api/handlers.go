package api

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"llm-news/config"
	"llm-news/internal/ai"
	"llm-news/internal/fetcher"
	"llm-news/internal/models"
	"llm-news/internal/pipeline"
	"llm-news/internal/storage"
	"llm-news/internal/store"
	"llm-news/internal/tts"
)

// Runner 流水线入口
type Runner interface {
	Run(ctx context.Context) models.RunResult
	RunTest(ctx context.Context) models.RunResult
}

// NewsStore 面向展示层的只读存储接口
type NewsStore interface {
	GetStats(ctx context.Context) (*models.Stats, error)
	GetLatest(ctx context.Context, limit int) ([]models.NewsItem, error)
}

// AudioReader 音频文件读取接口
type AudioReader interface {
	DownloadFile(ctx context.Context, objectName string) ([]byte, error)
	ObjectExists(ctx context.Context, objectName string) (bool, error)
}

// Server 是API服务器结构
type Server struct {
	config *config.Config
	router *gin.Engine
	runner Runner
	store  NewsStore
	audio  AudioReader
}

// NewServer 创建一个新的API服务器，组装全部依赖
func NewServer(cfg *config.Config, db *sql.DB) (*Server, error) {
	// 创建MinIO客户端
	minioClient, err := storage.NewMinioClient(&cfg.MinIO)
	if err != nil {
		return nil, err
	}

	// 创建TTS服务
	ttsService, err := tts.Factory(&cfg.TTS)
	if err != nil {
		return nil, err
	}

	newsStore := store.NewNewsStore(db)

	// 组装流水线
	p := pipeline.New(cfg, pipeline.Deps{
		Papers:     fetcher.NewArxivClient(&cfg.Arxiv),
		News:       fetcher.NewNewsClient(),
		Summarizer: ai.NewClient(&cfg.OpenAI),
		Speech:     ttsService,
		Uploader:   minioClient,
		Store:      newsStore,
	})

	return newServerWith(cfg, p, newsStore, minioClient), nil
}

// newServerWith 便于测试时注入假依赖
func newServerWith(cfg *config.Config, runner Runner, newsStore NewsStore, audio AudioReader) *Server {
	router := gin.Default()

	// 启用CORS
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	server := &Server{
		config: cfg,
		router: router,
		runner: runner,
		store:  newsStore,
		audio:  audio,
	}

	server.registerRoutes()
	return server
}

// registerRoutes 注册API路由
func (s *Server) registerRoutes() {
	// 健康检查
	s.router.GET("/health", s.healthHandler)

	api := s.router.Group("/api")
	{
		// 触发流水线（POST为正式入口，GET仅限非生产环境）
		api.POST("/cron", s.cronHandler)
		api.GET("/cron", s.cronDevHandler)

		// 统计信息
		api.GET("/stats", s.statsHandler)

		// 最新新闻列表
		api.GET("/news", s.newsHandler)
	}

	// 提供音频文件
	s.router.GET("/audio/:filename", s.serveAudioHandler)
}

// Run 启动API服务器
func (s *Server) Run() error {
	return s.router.Run(":" + s.config.Server.Port)
}

// RunPipeline 供定时任务直接触发完整流水线
func (s *Server) RunPipeline() models.RunResult {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Pipeline.RunTimeout)
	defer cancel()
	return s.runner.Run(ctx)
}

// healthHandler 健康检查处理程序
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// cronHandler 触发流水线执行
func (s *Server) cronHandler(c *gin.Context) {
	// 验证请求来源
	secret := s.config.Server.CronSecret
	if secret != "" && c.GetHeader("Authorization") != "Bearer "+secret {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Unauthorized",
		})
		return
	}

	isTest := c.Query("test") == "true"
	mode := "production"
	if isTest {
		mode = "test"
	}
	log.Printf("开始执行 %s 流水线任务", mode)

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.config.Pipeline.RunTimeout)
	defer cancel()

	var result models.RunResult
	if isTest {
		result = s.runner.RunTest(ctx)
	} else {
		result = s.runner.Run(ctx)
	}

	// 部分失败属于正常业务结果，HTTP状态仍为200
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"mode":      mode,
		"result":    result,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// cronDevHandler 开发环境手动触发测试流水线
func (s *Server) cronDevHandler(c *gin.Context) {
	if s.config.Server.Env == "production" {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "GET method only available in development",
		})
		return
	}

	log.Println("开发模式: 手动触发测试流水线")

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.config.Pipeline.RunTimeout)
	defer cancel()

	result := s.runner.RunTest(ctx)

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"mode":      "development-test",
		"result":    result,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// statsHandler 获取统计信息
func (s *Server) statsHandler(c *gin.Context) {
	stats, err := s.store.GetStats(c.Request.Context())
	if err != nil {
		log.Printf("获取统计信息失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"error":     err.Error(),
			"timestamp": time.Now().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      stats,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// newsHandler 获取最新的新闻列表
func (s *Server) newsHandler(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	items, err := s.store.GetLatest(c.Request.Context(), limit)
	if err != nil {
		log.Printf("获取新闻列表失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"error":     err.Error(),
			"timestamp": time.Now().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      items,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// serveAudioHandler 提供音频文件
func (s *Server) serveAudioHandler(c *gin.Context) {
	filename := c.Param("filename")
	if filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "文件名不能为空",
		})
		return
	}

	// 使用统一的路径方式：audio/文件名
	objectName := "audio/" + filename

	// 先区分文件缺失和读取故障
	exists, err := s.audio.ObjectExists(c.Request.Context(), objectName)
	if err != nil {
		log.Printf("检查音频文件失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "读取文件失败",
		})
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "文件不存在",
		})
		return
	}

	data, err := s.audio.DownloadFile(c.Request.Context(), objectName)
	if err != nil {
		log.Printf("获取音频文件失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "读取文件失败",
		})
		return
	}

	c.Writer.Header().Set("Content-Type", "audio/mpeg")
	c.Writer.Header().Set("Content-Disposition", "inline")
	c.Writer.Write(data)
}
