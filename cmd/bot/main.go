package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bootcamp-news/internal/config"
	"bootcamp-news/internal/pkg/logger"
	"bootcamp-news/internal/pkg/metareader"
	"bootcamp-news/internal/repository/postgres"
	"bootcamp-news/internal/repository/redis"
	"bootcamp-news/internal/service/bot"
	"bootcamp-news/internal/service/news"

	_ "github.com/lib/pq"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Validate bot-specific configuration
	if err := cfg.ValidateForBot(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Setup logging
	log := logger.New(cfg.LogLevel)
	log.Info("Starting Discord bot service...")

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

	if err := redis.HealthCheck(context.Background(), redisClient); err != nil {
		log.Error("Failed to ping Redis", "error", err)
		os.Exit(1)
	}

	// Create repositories and services
	newsRepo := postgres.NewNewsRepository(db, log)
	queueRepo := redis.NewQueueRepository(redisClient, log)
	newsService := news.NewService(newsRepo, queueRepo, log)
	reader := metareader.NewHTTPReader(cfg.FetchOptions(), log)

	botService, err := bot.New(cfg, log, newsService, newsRepo, reader)
	if err != nil {
		log.Error("Failed to create bot service", "error", err)
		os.Exit(1)
	}

	if err := botService.Start(); err != nil {
		log.Error("Bot service failed", "error", err)
		os.Exit(1)
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	log.Info("Bot is running. Press Ctrl+C to stop.")
	<-quit

	log.Info("Shutdown signal received, stopping bot service...")
	if err := botService.Stop(); err != nil {
		log.Error("Error stopping bot service", "error", err)
	}

	log.Info("Bot service shutdown complete")
}
