package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/stitts-dev/tournament-sim/internal/api"
	"github.com/stitts-dev/tournament-sim/internal/api/handlers"
	"github.com/stitts-dev/tournament-sim/internal/api/middleware"
	"github.com/stitts-dev/tournament-sim/internal/models"
	"github.com/stitts-dev/tournament-sim/internal/odds"
	"github.com/stitts-dev/tournament-sim/internal/services"
	"github.com/stitts-dev/tournament-sim/pkg/config"
	"github.com/stitts-dev/tournament-sim/pkg/database"
	"github.com/stitts-dev/tournament-sim/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.GetLogger().Fatalf("Failed to load config: %v", err)
	}

	log := logger.InitLogger(cfg.LogLevel, cfg.IsDevelopment())
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if cfg.IsDevelopment() {
		if err := models.Migrate(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opt)
	defer redisClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The cache is optional: without redis every request is simulated.
	var cacheService *services.CacheService
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("Redis unavailable, result cache disabled")
	} else {
		cacheService = services.NewCacheService(redisClient, log)
	}

	hub := services.NewWebSocketHub(log)
	go hub.Run(ctx)

	var oddsClient *odds.Client
	if cfg.OddsAPIKey != "" {
		oddsClient = odds.NewClient(odds.ClientConfig{
			BaseURL:          cfg.OddsAPIURL,
			APIKey:           cfg.OddsAPIKey,
			SportKey:         cfg.OddsSportKey,
			Regions:          cfg.OddsRegions,
			Timeout:          cfg.ExternalAPITimeout,
			RatePerMinute:    cfg.OddsRateLimitPerMinute,
			BreakerThreshold: cfg.CircuitBreakerThreshold,
		}, log)
	}

	simulations := services.NewSimulationService(db, cacheService, hub, cfg, log)
	strengths := services.NewStrengthService(db, oddsClient, cacheService, hub, cfg.ResultCacheTTL, log)

	var refresher *services.OddsRefresher
	if cfg.EnableBackgroundJobs && oddsClient != nil {
		refresher = services.NewOddsRefresher(strengths, simulations, cfg.OddsRefreshSchedule, log)
		if err := refresher.Start(); err != nil {
			log.Errorf("Failed to start odds refresher: %v", err)
		} else {
			defer refresher.Stop()
		}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.CORS(cfg.CorsOrigins))

	api.SetupProbes(router, handlers.NewHealthHandler(db, cacheService, hub, refresher), hub)
	api.SetupRoutes(router.Group("/api/v1"), simulations, strengths)

	for _, route := range router.Routes() {
		log.Debugf("%s %s", route.Method, route.Path)
	}

	// Large batches run inside the request, so no write timeout.
	srv := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.WithService("tournament-sim").Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}
