package http

import (
	"log/slog"
	"net/http"

	"bootcamp-news/internal/domain"
	"bootcamp-news/internal/http/handlers"
	"bootcamp-news/internal/http/middleware"
)

// Dependencies are the collaborators the API routes need
type Dependencies struct {
	NewsRepo     domain.NewsRepository
	Submitter    handlers.Submitter
	Reader       handlers.PreviewReader
	QueueStats   handlers.QueueStats
	HealthChecks map[string]handlers.HealthCheck
	AdminAPIKey  string
}

type Router struct {
	mux            *http.ServeMux
	auth           *middleware.AdminAuth
	healthHandler  *handlers.HealthHandler
	statsHandler   *handlers.StatsHandler
	previewHandler *handlers.PreviewsHandler
	newsHandler    *handlers.NewsHandler
}

func NewRouter(logger *slog.Logger, deps Dependencies) *Router {
	return &Router{
		mux:            http.NewServeMux(),
		auth:           middleware.NewAdminAuth(deps.AdminAPIKey, logger),
		healthHandler:  handlers.NewHealthHandler(logger, deps.HealthChecks),
		statsHandler:   handlers.NewStatsHandler(logger, deps.QueueStats),
		previewHandler: handlers.NewPreviewsHandler(logger, deps.Reader),
		newsHandler:    handlers.NewNewsHandler(logger, deps.Submitter, deps.NewsRepo),
	}
}

func (r *Router) SetupRoutes() http.Handler {
	// Health check
	r.mux.HandleFunc("GET /health", r.healthHandler.HandleHealth)

	// API v1 routes - Previews, protected since they fetch caller supplied URLs
	r.mux.Handle("POST /api/v1/previews", r.auth.HandlerFunc(r.previewHandler.CreatePreview))

	// API v1 routes - News posts
	r.mux.Handle("POST /api/v1/news", r.auth.HandlerFunc(r.newsHandler.CreateNews))
	r.mux.HandleFunc("GET /api/v1/news", r.newsHandler.ListNews)
	r.mux.HandleFunc("GET /api/v1/news/{id}", r.newsHandler.GetNews)

	// API v1 routes - Stats
	r.mux.HandleFunc("GET /api/v1/stats", r.statsHandler.HandleStats)

	return middleware.CORS(r.mux)
}
