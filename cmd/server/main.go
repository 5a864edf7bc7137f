package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/config"
	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/erp"
	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/handler"
	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/middleware"
	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/notify"
	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/service"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// .env仅本地开发使用，不存在则忽略
	_ = godotenv.Load()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Backend.BaseURL == "" {
		log.Fatal("BACKEND_BASE_URL is required")
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting lapesquerapp-ops service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("backend", cfg.Backend.BaseURL),
	)

	// 初始化Redis（缓存不可用时资源仓退回进程内缓存）
	var rdb *redis.Client
	if cfg.Backend.UseRedisCache {
		rdb = initRedis(cfg.Redis)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			zapLogger.Warn("Redis unavailable, falling back to in-process cache", zap.Error(err))
			rdb = nil
		}
	}

	// 初始化MinIO（归档与分析暂存；未配置则导出仅支持直接下载）
	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			zapLogger.Fatal("Failed to init MinIO client", zap.Error(err))
		}
	}

	// 初始化依赖
	client := erp.NewClient(cfg.Backend.BaseURL, zapLogger)
	hub := notify.NewHub(zapLogger)
	services := service.NewServices(client, rdb, minioClient, hub, cfg, zapLogger)
	handlers := handler.NewHandlers(services, hub)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/v1/events"})))

	// 注册路由
	registerRoutes(router, handlers, cfg)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// API v1（全部接口需登录）
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		// 事件推送
		v1.GET("/events", h.SSE.Stream)

		// 生产记录
		productions := v1.Group("/productions")
		{
			productions.GET("/:id/inputs", h.Production.Inputs)
			productions.POST("/:id/inputs", h.Production.AddInput)
			productions.PUT("/:id/inputs/:inputId", h.Production.UpdateInput)
			productions.DELETE("/:id/inputs/:inputId", h.Production.DeleteInput)
			productions.PUT("/:id/inputs", h.Production.ReselectInputs)

			productions.GET("/:id/consumptions", h.Production.Consumptions)
			productions.PUT("/:id/consumptions", h.Production.SaveConsumptions)

			productions.GET("/:id/export", h.Export.ProductionSummary)
		}

		// 选箱辅助
		boxes := v1.Group("/boxes")
		{
			boxes.GET("/search", h.Production.SearchBoxes)
			boxes.GET("/fill", h.Production.FillToTarget)
			boxes.POST("/scan", h.Production.ScanBoxes)
		}

		// 托盘
		pallets := v1.Group("/pallets")
		{
			pallets.GET("", h.Pallet.List)
			pallets.GET("/:id", h.Pallet.Get)
		}

		// 订单
		orders := v1.Group("/orders")
		{
			orders.GET("", h.Order.List)
			orders.GET("/:id", h.Order.Get)
			orders.GET("/:id/merged-details", h.Order.MergedDetails)
			orders.POST("/:id/planned-details", h.Order.AddPlannedDetail)
			orders.PUT("/:id/planned-details/:detailId", h.Order.UpdatePlannedDetail)
			orders.DELETE("/:id/planned-details/:detailId", h.Order.DeletePlannedDetail)
			orders.GET("/:id/export", h.Export.OrderReport)
		}

		// 考勤
		punches := v1.Group("/punches")
		{
			punches.GET("", h.Punch.List)
			punches.POST("", h.Punch.Create)
			punches.POST("/bulk", middleware.RequireRole("ops_admin"), h.Punch.BulkImport)
			punches.GET("/worker-stats", h.Punch.WorkerStats)
		}

		// 交货单分析
		v1.POST("/delivery-notes/analyze", h.Analysis.AnalyzeDeliveryNote)
	}
}
