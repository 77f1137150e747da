package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"bootcamp-news/internal/config"
)

// APIService runs the HTTP API
type APIService struct {
	config *config.Config
	logger *slog.Logger

	// HTTP server
	server *http.Server
}

// New creates a new API service serving handler
func New(config *config.Config, logger *slog.Logger, handler http.Handler) *APIService {
	return &APIService{
		config: config,
		logger: logger,
		server: &http.Server{
			Addr:        ":" + config.Port,
			Handler:     handler,
			ReadTimeout: 15 * time.Second,
			// Previews fetch a remote page before answering
			WriteTimeout: config.FetchTimeout + 15*time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Start begins serving the API and blocks until the server stops
func (s *APIService) Start() error {
	s.logger.Info("Starting API server", "port", s.config.Port)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("API server failed: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the API server
func (s *APIService) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server...")
	return s.server.Shutdown(ctx)
}
