package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"bootcamp-news/internal/domain"
	"bootcamp-news/internal/service/news"

	"github.com/google/uuid"
)

const (
	DefaultPaginationLimit = 25
	MaxPaginationLimit     = 100
)

// Submitter stores news text and queues its preview
type Submitter interface {
	Submit(ctx context.Context, sub news.Submission) (*news.Result, error)
}

type NewsHandler struct {
	logger    *slog.Logger
	submitter Submitter
	newsRepo  domain.NewsRepository
}

// CreateNewsRequest is the body of POST /api/v1/news
type CreateNewsRequest struct {
	Text string `json:"text"`
}

// NewsResponse represents the paginated response for news posts
type NewsResponse struct {
	Posts   []*NewsPostDto `json:"posts"`
	HasMore bool           `json:"has_more"`
	Cursor  *string        `json:"cursor,omitempty"`
}

type NewsPostDto struct {
	ID            string          `json:"id"`
	Text          string          `json:"text"`
	URL           string          `json:"url,omitempty"`
	Preview       domain.Metadata `json:"preview"`
	PreviewStatus string          `json:"preview_status"`
	PreviewError  *string         `json:"preview_error,omitempty"`
	PostedAt      time.Time       `json:"posted_at"`
}

func NewNewsHandler(logger *slog.Logger, submitter Submitter, newsRepo domain.NewsRepository) *NewsHandler {
	return &NewsHandler{
		logger:    logger,
		submitter: submitter,
		newsRepo:  newsRepo,
	}
}

func newsPostDto(post *domain.NewsPost) *NewsPostDto {
	return &NewsPostDto{
		ID:            post.ID.String(),
		Text:          post.Text,
		URL:           post.URL,
		Preview:       post.Preview,
		PreviewStatus: post.PreviewStatus,
		PreviewError:  post.PreviewError,
		PostedAt:      post.PostedAt,
	}
}

// parseCursor parses a cursor string into a time.Time pointer
func parseCursor(cursorStr string) (*time.Time, error) {
	if cursorStr == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, cursorStr)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// parseLimit reads the limit query parameter, 0 means invalid
func parseLimit(limitStr string) int {
	if limitStr == "" {
		return DefaultPaginationLimit
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 {
		return 0
	}
	return min(limit, MaxPaginationLimit)
}

// buildNewsResponse creates a paginated response, posts holds one extra row
// when more results exist
func buildNewsResponse(posts []*domain.NewsPost, requestedLimit int) *NewsResponse {
	hasMore := len(posts) > requestedLimit
	if hasMore {
		posts = posts[:requestedLimit]
	}

	dtos := make([]*NewsPostDto, 0, len(posts))
	for _, post := range posts {
		dtos = append(dtos, newsPostDto(post))
	}

	response := &NewsResponse{
		Posts:   dtos,
		HasMore: hasMore,
	}

	if hasMore && len(posts) > 0 {
		cursorStr := posts[len(posts)-1].PostedAt.UTC().Format(time.RFC3339Nano)
		response.Cursor = &cursorStr
	}

	return response
}

// CreateNews stores a news post and queues its preview extraction
func (h *NewsHandler) CreateNews(w http.ResponseWriter, r *http.Request) {
	var req CreateNewsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	result, err := h.submitter.Submit(r.Context(), news.Submission{Text: req.Text})
	if err != nil {
		if errors.Is(err, news.ErrEmptyText) {
			writeError(w, h.logger, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Failed to create news post", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.Header().Set("Location", "/api/v1/news/"+result.Post.ID.String())
	writeJSONResponse(w, h.logger, http.StatusCreated, newsPostDto(result.Post))
}

// ListNews returns news posts newest first
func (h *NewsHandler) ListNews(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := parseLimit(query.Get("limit"))
	if limit == 0 {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid limit parameter")
		return
	}

	cursor, err := parseCursor(query.Get("cursor"))
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid cursor format")
		return
	}

	// Fetch one extra post to know whether another page exists
	posts, err := h.newsRepo.List(r.Context(), cursor, limit+1)
	if err != nil {
		h.logger.Error("Failed to list news posts", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSONResponse(w, h.logger, http.StatusOK, buildNewsResponse(posts, limit))
}

// GetNews returns a single news post
func (h *NewsHandler) GetNews(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid news post ID")
		return
	}

	post, err := h.newsRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "News post not found")
			return
		}
		h.logger.Error("Failed to get news post", "error", err, "post_id", id)
		writeError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSONResponse(w, h.logger, http.StatusOK, newsPostDto(post))
}
