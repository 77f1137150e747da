package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"bootcamp-news/internal/pkg/fetch"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	DatabaseURL   string
	RedisURL      string
	DiscordToken  string
	NewsChannelID string
	LogLevel      string
	AdminAPIKey   string

	// Page fetching used for link previews
	FetchTimeout      time.Duration
	FetchUserAgent    string
	FetchMaxBodyBytes int64

	// Lets previews fetch loopback, private and link-local hosts
	FetchAllowPrivateNetworks bool
}

// Load reads .env files, the environment and then command line flags
func Load() *Config {
	if err := loadEnvFiles(); err != nil {
		log.Printf("Ignoring env file: %v", err)
	}

	config, err := FromEnv()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Command line flags override environment
	flag.StringVar(&config.Port, "port", config.Port, "Server port")
	flag.StringVar(&config.LogLevel, "log-level", config.LogLevel, "Log level")
	flag.Parse()

	return config
}

// FromEnv builds a Config from environment variables only
func FromEnv() (*Config, error) {
	config := &Config{
		Port:           getEnvWithDefault("PORT", "8080"),
		LogLevel:       getEnvWithDefault("LOG_LEVEL", "info"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		DiscordToken:   os.Getenv("DISCORD_TOKEN"),
		NewsChannelID:  os.Getenv("NEWS_CHANNEL_ID"),
		AdminAPIKey:    os.Getenv("ADMIN_API_KEY"),
		FetchUserAgent: getEnvWithDefault("FETCH_USER_AGENT", "Mozilla/5.0 (compatible; BootcampNews/1.0)"),
	}

	timeout, err := time.ParseDuration(getEnvWithDefault("FETCH_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_TIMEOUT: %w", err)
	}
	config.FetchTimeout = timeout

	maxBody, err := strconv.ParseInt(getEnvWithDefault("FETCH_MAX_BODY_BYTES", "1048576"), 10, 64)
	if err != nil || maxBody <= 0 {
		return nil, fmt.Errorf("invalid FETCH_MAX_BODY_BYTES: %q", os.Getenv("FETCH_MAX_BODY_BYTES"))
	}
	config.FetchMaxBodyBytes = maxBody

	allowPrivate, err := strconv.ParseBool(getEnvWithDefault("FETCH_ALLOW_PRIVATE_NETWORKS", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_ALLOW_PRIVATE_NETWORKS: %w", err)
	}
	config.FetchAllowPrivateNetworks = allowPrivate

	return config, nil
}

// loadEnvFiles loads .env.local then .env, missing files are ignored.
// godotenv never overrides variables that are already set.
func loadEnvFiles() error {
	for _, file := range []string{".env.local", ".env"} {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FetchOptions returns the page fetching settings
func (c *Config) FetchOptions() fetch.Options {
	return fetch.Options{
		Timeout:      c.FetchTimeout,
		UserAgent:    c.FetchUserAgent,
		MaxBodyBytes: c.FetchMaxBodyBytes,

		AllowPrivateNetworks: c.FetchAllowPrivateNetworks,
	}
}

// ValidateForBot ensures all required fields for bot service are present
func (c *Config) ValidateForBot() error {
	if c.DiscordToken == "" {
		return fmt.Errorf("environment variable DISCORD_TOKEN is required for bot service")
	}
	return c.requireStorage()
}

// ValidateForWorker ensures all required fields for worker service are present
func (c *Config) ValidateForWorker() error {
	// Discord token is optional, without it no embeds are posted
	return c.requireStorage()
}

// ValidateForAPI ensures all required fields for API service are present
func (c *Config) ValidateForAPI() error {
	return c.requireStorage()
}

func (c *Config) requireStorage() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("environment variable DATABASE_URL is required")
	}
	if c.RedisURL == "" {
		return fmt.Errorf("environment variable REDIS_URL is required")
	}
	return nil
}
