package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"qrlink-go/internal/breaker"
	"qrlink-go/internal/handler"
	"qrlink-go/internal/i18n"
	"qrlink-go/internal/metrics"
	"qrlink-go/internal/middleware"
	"qrlink-go/internal/repository"
	"qrlink-go/internal/service"
	"qrlink-go/internal/svgconv"
	"qrlink-go/pkg/logging"
)

func initConfig() {
	wd, _ := os.Getwd()
	log.Printf("Loading config from: %s/config.yaml", wd)

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}
}

func startServer(r *gin.Engine, queue *service.ScanQueue, pool *ants.Pool) {
	addr := viper.GetString("server.addr")
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	// 启动服务器
	go func() {
		logging.Logger.Info("Server is running on " + addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 等待中断信号以优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// 排干扫码写入队列后再退出，已入队的事件全部落库
	queue.Stop()
	pool.Release()

	logging.Logger.Info("Server exiting")
}

func main() {

	initConfig()
	// 初始化日志系统
	logging.InitLoggerFromConfig()

	logging.Logger.Info("Application started")

	repository.InitDB(logging.Logger, logging.AtomicLevel)
	repository.InitRedis()

	// 初始化 i18n（加载 TOML 文件）
	bundle, err := i18n.InitI18n([]string{
		"./i18n/en.toml",
		"./i18n/zh.toml",
	}, "en")
	if err != nil {
		panic(err)
	}

	store := repository.NewStore(repository.DB)

	// 熔断器：所有生成入口共用一个实例，状态迁移上报指标
	failureThreshold := viper.GetInt("breaker.failure_threshold")
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	timeoutSeconds := viper.GetInt("breaker.timeout_seconds")
	if timeoutSeconds <= 0 {
		timeoutSeconds = 30
	}
	brk := breaker.New(failureThreshold, time.Duration(timeoutSeconds)*time.Second, &breaker.Options{
		IsFailure: service.IsBreakerFailure,
		OnTransition: func(from, to breaker.State) {
			metrics.BreakerTransitions.WithLabelValues(from.String(), to.String()).Inc()
			logging.Logger.Warn("Breaker state transition",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	// 渲染工作池：CPU 密集的栅格化不跑在请求协程上
	workers := viper.GetInt("render.workers")
	if workers <= 0 {
		workers = 4
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		logging.Logger.Fatal("Failed to create render pool", zap.Error(err))
	}

	// 可选的 SVG 栅格化能力：关闭时进入降级模式（跳过需要转换的 Logo）
	var conv svgconv.Converter
	if viper.GetBool("render.svg_conversion") {
		conv = svgconv.New()
		metrics.ConversionAvailable.Set(1)
	} else {
		metrics.ConversionAvailable.Set(0)
		logging.Logger.Warn("SVG conversion capability disabled, running in degraded mode")
	}

	assets := service.NewFileAssetLoader(viper.GetString("render.asset_dir"))

	// 扫码写入队列
	queue := service.NewScanQueue(store, repository.RedisPool, viper.GetInt("scan.queue_size"))
	queue.Start(viper.GetInt("scan.writers"))

	qrService := service.NewQRService(store, repository.RedisPool, viper.GetString("server.redirect_base"))
	genService := service.NewGenerationService(brk, pool, conv, assets)
	redirectService := service.NewRedirectService(store, repository.RedisPool, queue)
	statsService := service.NewStatsService(store, repository.RedisPool)

	qrHandler := handler.NewQRCodeHandler(qrService, genService, statsService)
	redirectHandler := handler.NewRedirectHandler(redirectService)

	r := gin.New()
	r.Use(gin.Recovery()) // 显式添加 Recovery 中间件

	// 注册全局错误中间件
	r.Use(middleware.GlobalErrorMiddleware())
	r.Use(middleware.ZapGinLogger(logging.Logger))
	r.Use(middleware.CorsMiddleware())
	// 使用 i18n 中间件
	r.Use(middleware.I18nMiddleware(bundle))

	api := r.Group("/api")
	{
		api.POST("/qrcode", qrHandler.Create)
		api.GET("/qrcode", qrHandler.List)
		api.PUT("/qrcode/status/:id", qrHandler.UpdateStatus)
		api.PUT("/qrcode/:id", qrHandler.UpdateTarget)
		api.GET("/qrcode/:id/image", qrHandler.Image)
		api.GET("/qrcode/:id/stats", qrHandler.Stats)
		api.POST("/qrcode/preview", qrHandler.Preview)
	}

	// 扫码跳转入口（动态码 Content 编码的就是这个路径）
	r.GET("/r/:shortID", redirectHandler.Redirect)

	// 指标接口
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	c := cron.New()

	// 添加定时任务：每十分钟同步一次每日统计
	_, addErr := c.AddFunc("*/10 * * * *", func() {
		if err := statsService.SyncDailyStats(); err != nil {
			logging.Logger.Error("Failed to sync daily stats via cron job", zap.Error(err))
		}
	})

	if addErr != nil {
		logging.Logger.Fatal("Failed to schedule cron job", zap.Error(addErr))
	}

	c.Start()

	startServer(r, queue, pool)
}
