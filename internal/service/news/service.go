// Package news turns submitted text into news posts and queues their previews.
package news

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bootcamp-news/internal/domain"
	"bootcamp-news/internal/pkg/urldetector"

	"github.com/google/uuid"
)

// ErrEmptyText is returned when a submission has no text
var ErrEmptyText = errors.New("news text is required")

// Submission is one piece of news text from Discord or the API
type Submission struct {
	Text             string
	DiscordMessageID string
	DiscordChannelID string
	PostedAt         time.Time
}

// Result describes the outcome of a submission
type Result struct {
	Post *domain.NewsPost

	// Created is false when the Discord message was already submitted
	Created bool

	// Repost is true when the same link was shared before
	Repost bool
}

// Service creates news posts and queues their preview extraction
type Service struct {
	newsRepo  domain.NewsRepository
	queueRepo domain.QueueRepository
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a news service
func NewService(newsRepo domain.NewsRepository, queueRepo domain.QueueRepository, logger *slog.Logger) *Service {
	return &Service{
		newsRepo:  newsRepo,
		queueRepo: queueRepo,
		logger:    logger,
		now:       time.Now,
	}
}

// Submit stores the text as a news post and queues an extract_preview job
// for it. Text without a link is stored with a skipped preview.
func (s *Service) Submit(ctx context.Context, sub Submission) (*Result, error) {
	if strings.TrimSpace(sub.Text) == "" {
		return nil, ErrEmptyText
	}

	if sub.DiscordMessageID != "" {
		existing, err := s.newsRepo.GetByDiscordMessage(ctx, sub.DiscordMessageID)
		if err == nil {
			s.logger.Debug("Message already submitted",
				"post_id", existing.ID,
				"message_id", sub.DiscordMessageID,
			)
			return &Result{Post: existing}, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up message: %w", err)
		}
	}

	now := s.now()
	post := &domain.NewsPost{
		ID:            uuid.New(),
		Text:          sub.Text,
		PreviewStatus: domain.PreviewStatusSkipped,
		PostedAt:      sub.PostedAt,
		CreatedAt:     now,
	}
	if post.PostedAt.IsZero() {
		post.PostedAt = now
	}
	if sub.DiscordMessageID != "" {
		post.DiscordMessageID = &sub.DiscordMessageID
	}
	if sub.DiscordChannelID != "" {
		post.DiscordChannelID = &sub.DiscordChannelID
	}

	result := &Result{Post: post, Created: true}

	link, hasLink := urldetector.FirstURL(sub.Text)
	if hasLink {
		post.URL = link
		post.PreviewStatus = domain.PreviewStatusPending
		post.CanonicalURL = s.canonicalURL(link)
		result.Repost = s.isRepost(ctx, post.CanonicalURL)
	}

	if err := s.newsRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create news post: %w", err)
	}

	s.logger.Info("News post created",
		"post_id", post.ID,
		"url", post.URL,
		"repost", result.Repost,
	)

	if !hasLink {
		return result, nil
	}

	payload := domain.ExtractPreviewPayload{
		PostID:           post.ID.String(),
		Text:             post.Text,
		DiscordChannelID: sub.DiscordChannelID,
		DiscordMessageID: sub.DiscordMessageID,
	}
	if err := s.queueRepo.Enqueue(ctx, domain.JobTypeExtractPreview, payload); err != nil {
		if statusErr := s.newsRepo.UpdatePreviewStatus(ctx, post.ID, domain.PreviewStatusFailed, err.Error()); statusErr != nil {
			s.logger.Warn("Failed to mark post failed", "post_id", post.ID, "error", statusErr)
		}
		return nil, fmt.Errorf("failed to queue preview extraction: %w", err)
	}

	s.logger.Debug("Preview extraction job queued", "post_id", post.ID)
	return result, nil
}

// canonicalURL falls back to the raw link when it cannot be normalized
func (s *Service) canonicalURL(link string) string {
	canonical, err := urldetector.NormalizeURL(link)
	if err != nil {
		s.logger.Debug("Could not normalize link", "url", link, "error", err)
		return link
	}
	return canonical
}

func (s *Service) isRepost(ctx context.Context, canonicalURL string) bool {
	_, err := s.newsRepo.GetByCanonicalURL(ctx, canonicalURL)
	if err == nil {
		return true
	}
	if !errors.Is(err, domain.ErrNotFound) {
		s.logger.Warn("Failed to check for earlier post", "url", canonicalURL, "error", err)
	}
	return false
}
