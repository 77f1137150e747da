package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "LOG_LEVEL", "DATABASE_URL", "REDIS_URL", "DISCORD_TOKEN",
		"NEWS_CHANNEL_ID", "ADMIN_API_KEY", "FETCH_TIMEOUT", "FETCH_USER_AGENT", "FETCH_MAX_BODY_BYTES", "FETCH_ALLOW_PRIVATE_NETWORKS"} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.Port != "8080" || cfg.LogLevel != "info" {
		t.Errorf("Port/LogLevel = %q/%q, want 8080/info", cfg.Port, cfg.LogLevel)
	}
	if cfg.FetchTimeout != 10*time.Second {
		t.Errorf("FetchTimeout = %v, want 10s", cfg.FetchTimeout)
	}
	if cfg.FetchMaxBodyBytes != 1048576 {
		t.Errorf("FetchMaxBodyBytes = %d, want 1048576", cfg.FetchMaxBodyBytes)
	}
	if cfg.FetchAllowPrivateNetworks || cfg.FetchOptions().AllowPrivateNetworks {
		t.Error("private networks should be blocked by default")
	}
	if err := cfg.ValidateForAPI(); err == nil {
		t.Error("ValidateForAPI() expected error without DATABASE_URL")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://localhost/news")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("FETCH_TIMEOUT", "3s")
	t.Setenv("FETCH_MAX_BODY_BYTES", "2048")
	t.Setenv("FETCH_ALLOW_PRIVATE_NETWORKS", "true")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.Port != "9090" || cfg.FetchTimeout != 3*time.Second || cfg.FetchMaxBodyBytes != 2048 {
		t.Errorf("FromEnv() = %+v", cfg)
	}
	if err := cfg.ValidateForAPI(); err != nil {
		t.Errorf("ValidateForAPI() error = %v", err)
	}
	if err := cfg.ValidateForWorker(); err != nil {
		t.Errorf("ValidateForWorker() error = %v", err)
	}
	if err := cfg.ValidateForBot(); err == nil {
		t.Error("ValidateForBot() expected error without DISCORD_TOKEN")
	}

	opts := cfg.FetchOptions()
	if opts.Timeout != 3*time.Second || opts.MaxBodyBytes != 2048 || opts.UserAgent != cfg.FetchUserAgent ||
		!opts.AllowPrivateNetworks {
		t.Errorf("FetchOptions() = %+v", opts)
	}
}

func TestFromEnvInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"Bad timeout", "FETCH_TIMEOUT", "soon"},
		{"Bad body size", "FETCH_MAX_BODY_BYTES", "-1"},
		{"Bad private network switch", "FETCH_ALLOW_PRIVATE_NETWORKS", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("FETCH_TIMEOUT", "")
			t.Setenv("FETCH_MAX_BODY_BYTES", "")
			t.Setenv("FETCH_ALLOW_PRIVATE_NETWORKS", "")
			t.Setenv(tt.key, tt.value)
			if _, err := FromEnv(); err == nil {
				t.Errorf("FromEnv() expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}
