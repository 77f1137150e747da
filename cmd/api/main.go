package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bootcamp-news/internal/config"
	apihttp "bootcamp-news/internal/http"
	"bootcamp-news/internal/http/handlers"
	"bootcamp-news/internal/pkg/logger"
	"bootcamp-news/internal/pkg/metareader"
	"bootcamp-news/internal/repository/postgres"
	"bootcamp-news/internal/repository/redis"
	"bootcamp-news/internal/service/api"
	"bootcamp-news/internal/service/news"

	_ "github.com/lib/pq"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Validate API-specific configuration
	if err := cfg.ValidateForAPI(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Setup logging
	log := logger.New(cfg.LogLevel)
	log.Info("Starting API service...")

	// Connect to PostgreSQL
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Error("Failed to ping database", "error", err)
		os.Exit(1)
	}

	if err := postgres.RunMigrations(db, log); err != nil {
		log.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(cfg.RedisURL, log)
	if err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// Create repositories and services
	newsRepo := postgres.NewNewsRepository(db, log)
	queueRepo := redis.NewQueueRepository(redisClient, log)
	newsService := news.NewService(newsRepo, queueRepo, log)
	reader := metareader.NewHTTPReader(cfg.FetchOptions(), log)

	router := apihttp.NewRouter(log, apihttp.Dependencies{
		NewsRepo:   newsRepo,
		Submitter:  newsService,
		Reader:     reader,
		QueueStats: queueRepo,
		HealthChecks: map[string]handlers.HealthCheck{
			"postgres": db.PingContext,
			"redis": func(ctx context.Context) error {
				return redis.HealthCheck(ctx, redisClient)
			},
		},
		AdminAPIKey: cfg.AdminAPIKey,
	})

	apiService := api.New(cfg, log, router.SetupRoutes())

	// Create a channel to track shutdown completion
	done := make(chan struct{})

	go func() {
		defer close(done)
		if err := apiService.Start(); err != nil {
			log.Error("API service failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("Shutdown signal received, stopping API service...")
	case <-done:
		log.Info("API service completed")
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiService.Stop(ctx); err != nil {
		log.Error("Error stopping API service", "error", err)
	}

	log.Info("API service shutdown complete")
}
