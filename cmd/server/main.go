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
	"github.com/sirupsen/logrus"

	"github.com/pitchside/team-balancer/internal/api/handlers"
	"github.com/pitchside/team-balancer/internal/storage"
	"github.com/pitchside/team-balancer/internal/websocket"
	"github.com/pitchside/team-balancer/pkg/cache"
	"github.com/pitchside/team-balancer/pkg/config"
	"github.com/pitchside/team-balancer/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	structuredLogger := logger.InitLogger("info", cfg.IsDevelopment())
	logger.WithService("team-balancer").WithFields(logrus.Fields{
		"version":     "1.0.0",
		"environment": cfg.Env,
		"port":        cfg.Port,
	}).Info("Starting Team Balancer Service")

	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := storage.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logger.WithService("team-balancer").Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.WithService("team-balancer").Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opt)
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.WithService("team-balancer").Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	cacheService := cache.NewBalanceCacheService(redisClient, structuredLogger)
	repo := storage.NewRepository(db)

	wsHub := websocket.NewHub(structuredLogger)
	go wsHub.Run()

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	balanceHandler := handlers.NewBalanceHandler(repo, cacheService, wsHub, cfg, structuredLogger)
	classifyHandler := handlers.NewClassifyHandler(repo, structuredLogger)
	formationHandler := handlers.NewFormationHandler(structuredLogger)
	healthHandler := handlers.NewHealthHandler(db, cacheService)

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/balance/draft", balanceHandler.BalanceByDraft)
		apiV1.POST("/balance/optimal", balanceHandler.BalanceByOptimal)
		apiV1.GET("/balance/runs", balanceHandler.RecentRuns)

		apiV1.POST("/classify", classifyHandler.ClassifyPool)
		apiV1.POST("/formations", formationHandler.SuggestFormations)
	}

	router.GET("/ws/balance-progress/:run_id", wsHub.HandleWebSocket)

	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	go func() {
		logger.WithService("team-balancer").WithField("port", cfg.Port).Info("Team balancer service started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithService("team-balancer").Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.WithService("team-balancer").Info("Shutting down team balancer service...")

	// The server has 5 seconds to finish the request it is currently handling
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithService("team-balancer").Fatalf("Team balancer service forced to shutdown: %v", err)
	}

	logger.WithService("team-balancer").Info("Team balancer service exited")
}
