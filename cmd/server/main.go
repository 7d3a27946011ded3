package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/jengzang/taxi-trips-backend-go/internal/api"
	"github.com/jengzang/taxi-trips-backend-go/internal/config"
	"github.com/jengzang/taxi-trips-backend-go/internal/database"
	"github.com/jengzang/taxi-trips-backend-go/internal/handler"
	"github.com/jengzang/taxi-trips-backend-go/internal/logger"
	"github.com/jengzang/taxi-trips-backend-go/internal/metrics"
	"github.com/jengzang/taxi-trips-backend-go/internal/middleware"
	"github.com/jengzang/taxi-trips-backend-go/internal/repository"
	"github.com/jengzang/taxi-trips-backend-go/internal/service"
	"github.com/jengzang/taxi-trips-backend-go/internal/temporal"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	// 加载配置
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	logCfg := logger.DefaultConfig()
	logCfg.Level = logger.ParseLevel(cfg.Logging.Level)
	logCfg.FilePath = cfg.Logging.FilePath
	log, closer := logger.New(logCfg)
	defer closer.Close()

	loc, err := temporal.LoadLocation(cfg.SourceTZ)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.SourceTZ).Msg("Invalid source timezone")
	}

	// 初始化数据库
	db, err := database.Open(context.Background(), database.Config{Path: cfg.DBPath}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	m, err := metrics.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to register metrics")
	}

	tripRepo := repository.NewTripRepository(db)
	trips := service.NewTripService(tripRepo)
	stats := service.NewStatsService(repository.NewStatsRepository(db))
	loader := service.NewLoadService(tripRepo, repository.NewLoadRunRepository(db), m, log, service.LoadConfig{
		SourcePath:    cfg.DataRawPath,
		BatchSize:     cfg.BatchSize,
		Location:      loc,
		ProgressEvery: cfg.ProgressEvery,
	})

	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
	defer limiter.Stop()

	// 初始化路由
	router := api.SetupRouter(cfg, api.Handlers{
		Trips:  handler.NewTripHandler(trips),
		Stats:  handler.NewStatsHandler(stats),
		Data:   handler.NewDataHandler(loader, trips),
		Health: handler.NewHealthHandler(db, trips),
	}, log, m, limiter)

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 启动服务器
	go func() {
		log.Info().
			Str("addr", cfg.Port).
			Str("db", cfg.DBPath).
			Str("source", cfg.DataRawPath).
			Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Server stopped")
}
