package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"ratehub/database"
	"ratehub/internal/cache"
	"ratehub/internal/config"
	"ratehub/internal/http-api/handler"
	"ratehub/internal/http-api/middleware"
	"ratehub/internal/http-api/repository"
	"ratehub/internal/http-api/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := newLogger(cfg)

	db, err := database.ConnectDB(cfg, logger)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	var aggCache cache.AggregateCache
	if cfg.RedisAddr != "" {
		aggCache, err = cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			logger.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		logger.Info("Connected to Redis", "addr", cfg.RedisAddr)
	} else {
		aggCache = cache.NewMemoryCache()
		logger.Info("REDIS_ADDR not set, using in-memory aggregate cache")
	}

	ratingRepo := repository.NewRatingRepository(db)
	dedupRepo := repository.NewDedupRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	ratingService := service.NewRatingService(
		ratingRepo, dedupRepo, settingsRepo,
		aggCache, cfg.CacheTTL, cfg.DedupTTL, logger,
	)
	ratingHandler := handler.NewRatingHandler(ratingService)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.VoterToken(cfg.TokenSecret))

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(middleware.RequireVoterToken())
	api.Use(limiter.Middleware())
	ratingHandler.RegisterRoutes(api)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go purgeExpiredDedup(ctx, dedupRepo, logger)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		logger.Info("HTTP server listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(h)
}

// purgeExpiredDedup sweeps spent dedup records once an hour. Expired rows are
// already invisible to the vote gate, the sweep only bounds the table.
func purgeExpiredDedup(ctx context.Context, dedupRepo repository.DedupRepository, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := dedupRepo.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("dedup purge failed", "error", err)
				continue
			}
			if purged > 0 {
				logger.Info("purged expired dedup records", "count", purged)
			}
		}
	}
}
