// Command server runs the QEI ranking API.
//
// @title QB Excellence Index API
// @version 1.0
// @description Ranks NFL quarterbacks by the QB Excellence Index under user supplied category weights.
// @BasePath /
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/qb-excellence-index/internal/app"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/config"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/monitoring"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/ratelimit"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := monitoring.NewLogger(monitoring.ParseLevel(cfg.LogLevel))
	slog.SetDefault(logger.Logger)

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	// Redis is optional; the limiter falls back to in-memory buckets.
	redisClient, err := ratelimit.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Warn("Redis unavailable, using in-memory rate limiting", "error", err)
	}
	defer redisClient.Close()

	limiter := ratelimit.NewRateLimiter(redisClient, ratelimit.Config{
		RequestsPerMinute: cfg.RateLimit,
		RankingsPerMinute: cfg.RankingLimit,
	}, a.Metrics)
	defer limiter.Close()

	go func() {
		warmCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		slog.Info("Warming up ranking cache")
		if err := a.Service.WarmUp(warmCtx); err != nil {
			slog.Warn("Cache warm-up failed", "error", err)
		}
	}()

	s := &server{
		service:     a.Service,
		db:          a.DB,
		tables:      a.Tables,
		metrics:     a.Metrics,
		logger:      logger,
		limiter:     limiter,
		corsOrigins: cfg.CORSOrigins,
		startedAt:   time.Now(),
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Starting server", "port", cfg.Port, "source", a.Service.SourceName())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	logger.SystemLogger("shutdown", "server exited")
}
