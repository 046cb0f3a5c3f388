package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzzerolog "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/spf13/pflag"

	"resume-structurer/internal/api/handler"
	"resume-structurer/internal/api/router"
	"resume-structurer/internal/config"
	"resume-structurer/internal/logger"
	"resume-structurer/internal/processor"
	"resume-structurer/internal/ratelimit"
	"resume-structurer/internal/storage"
	"resume-structurer/internal/tracing"
)

// 请求体除文件外的余量
const multipartOverhead = 1 << 20

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "Path to config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("加载配置失败")
	}
	initLogger(cfg.Logger)
	logger.Info().Str("address", cfg.Server.Address).Str("pdf_engine", cfg.PDF.Engine).Msg("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.InitProvider(ctx, cfg.Tracing)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化链路追踪失败")
	}

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化存储失败")
	}
	defer storageManager.Close()

	extractor, err := processor.BuildDocumentExtractor(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化文档提取器失败")
	}
	service := processor.NewResumeService(extractor, processor.WithStorage(storageManager))
	resumeHandler := handler.NewResumeHandler(service, cfg.Upload.MaxFileSizeBytes())

	var consumerDone <-chan struct{}
	if service.SupportsAsync() {
		consumerDone, err = storageManager.RabbitMQ.StartConsumer(ctx,
			cfg.RabbitMQ.UploadQueue,
			cfg.RabbitMQ.PrefetchCount,
			cfg.RabbitMQ.ConsumerWorkers,
			service.ConsumeHandler(),
		)
		if err != nil {
			logger.Fatal().Err(err).Msg("启动简历上传消费者失败")
		}
	} else {
		logger.Warn().Msg("MinIO、MySQL或RabbitMQ未启用，异步上传接口不可用")
	}

	serverTracer, tracerCfg := hertztracing.NewServerTracer()
	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		server.WithMaxRequestBodySize(int(cfg.Upload.MaxFileSizeBytes())+multipartOverhead),
		serverTracer,
	)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		start := time.Now()
		ctx.Next(c)
		hlog.CtxInfof(c, "%s %s -> %d (%s)", ctx.Method(), ctx.Path(), ctx.Response.StatusCode(), time.Since(start))
	})
	var resumeMiddlewares []app.HandlerFunc
	if cfg.Server.RateLimitQPM > 0 {
		bucket := ratelimit.NewTokenBucket(cfg.Server.RateLimitQPM, cfg.Server.RateLimitBurst)
		resumeMiddlewares = append(resumeMiddlewares, ratelimit.Middleware(bucket))
		logger.Info().Int("qpm", cfg.Server.RateLimitQPM).Msg("简历接口限流已启用")
	}
	router.RegisterRoutes(h, resumeHandler, resumeMiddlewares...)

	go func() {
		logger.Info().Str("address", cfg.Server.Address).Msg("HTTP 服务器启动中")
		if err := h.Run(); err != nil {
			logger.Fatal().Err(err).Msg("启动HTTP服务器失败")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("接收到终止信号，正在优雅退出...")

	shutdownTimeout := config.GetDuration(cfg.Server.ShutdownTimeout, 10*time.Second)
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP服务器关闭失败")
	}

	cancel()
	if consumerDone != nil {
		select {
		case <-consumerDone:
		case <-shutdownCtx.Done():
			logger.Warn().Msg("等待消费者退出超时")
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("关闭链路追踪失败")
	}
	logger.Info().Msg("优雅退出完成")
}

func initLogger(cfg config.LoggerConfig) {
	logger.Init(logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		TimeFormat:   cfg.TimeFormat,
		ReportCaller: cfg.ReportCaller,
	})

	hlog.SetLogger(hertzzerolog.From(logger.Logger))
	switch cfg.Level {
	case "debug":
		hlog.SetLevel(hlog.LevelDebug)
	case "warn":
		hlog.SetLevel(hlog.LevelWarn)
	case "error":
		hlog.SetLevel(hlog.LevelError)
	default:
		hlog.SetLevel(hlog.LevelInfo)
	}
}
