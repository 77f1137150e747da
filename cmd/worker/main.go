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
	"bootcamp-news/internal/pkg/logger"
	"bootcamp-news/internal/pkg/metareader"
	"bootcamp-news/internal/repository/postgres"
	"bootcamp-news/internal/repository/redis"
	"bootcamp-news/internal/service/worker"

	"github.com/bwmarrin/discordgo"
	_ "github.com/lib/pq"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Validate worker-specific configuration
	if err := cfg.ValidateForWorker(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Setup logging
	log := logger.New(cfg.LogLevel)
	log.Info("Starting worker service...")

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

	// Create repositories
	newsRepo := postgres.NewNewsRepository(db, log)
	queueRepo := redis.NewQueueRepository(redisClient, log)

	// Discord embeds are optional, without a token previews are only stored
	var notifier worker.Notifier
	if cfg.DiscordToken != "" {
		session, err := discordgo.New("Bot " + cfg.DiscordToken)
		if err != nil {
			log.Error("Failed to create Discord session", "error", err)
			os.Exit(1)
		}
		discordNotifier := worker.NewDiscordNotifier(session)
		defer discordNotifier.Close()
		notifier = discordNotifier
	} else {
		log.Warn("DISCORD_TOKEN not set - preview embeds will not be posted")
	}

	reader := metareader.NewHTTPReader(cfg.FetchOptions(), log)
	processor := worker.NewJobProcessor(log, newsRepo, queueRepo, reader, notifier)
	workerService := worker.New(log, queueRepo, processor)

	// Create a channel to track shutdown completion
	done := make(chan struct{})

	go func() {
		defer close(done)
		if err := workerService.Start(); err != nil {
			log.Error("Worker service failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("Shutdown signal received, stopping worker service...")
	case <-done:
		log.Info("Worker service completed")
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := workerService.Stop(ctx); err != nil {
		log.Error("Error stopping worker service", "error", err)
	}

	stats := workerService.GetStats()
	log.Info("Worker service shutdown complete",
		"jobs_processed", stats.JobsProcessed,
		"jobs_failed", stats.JobsFailed,
	)
}
