package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bootcamp-news/internal/domain"

	"github.com/google/uuid"
)

// PreviewReader extracts link previews from post text
type PreviewReader interface {
	FromText(ctx context.Context, text string) (domain.Metadata, error)
}

// Notifier publishes a finished preview back to the chat the post came from
type Notifier interface {
	NotifyPreview(ctx context.Context, channelID, messageID string, preview domain.Metadata) error
}

// JobProcessor handles the background job types
type JobProcessor struct {
	logger    *slog.Logger
	newsRepo  domain.NewsRepository
	queueRepo domain.QueueRepository
	reader    PreviewReader
	notifier  Notifier // nil when no Discord token is configured
}

// NewJobProcessor creates a new job processor
func NewJobProcessor(
	logger *slog.Logger,
	newsRepo domain.NewsRepository,
	queueRepo domain.QueueRepository,
	reader PreviewReader,
	notifier Notifier,
) *JobProcessor {
	return &JobProcessor{
		logger:    logger,
		newsRepo:  newsRepo,
		queueRepo: queueRepo,
		reader:    reader,
		notifier:  notifier,
	}
}

func payloadPostID(payload map[string]interface{}) (uuid.UUID, error) {
	postIDStr, ok := payload["post_id"].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("missing or invalid post_id in payload")
	}
	postID, err := uuid.Parse(postIDStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid post_id format: %w", err)
	}
	return postID, nil
}

// ProcessPreviewExtraction extracts the preview of the first link in a post
func (p *JobProcessor) ProcessPreviewExtraction(ctx context.Context, payload map[string]interface{}, logger *slog.Logger) error {
	postID, err := payloadPostID(payload)
	if err != nil {
		return err
	}

	text, ok := payload["text"].(string)
	if !ok {
		return fmt.Errorf("missing or invalid text in payload")
	}

	logger = logger.With("post_id", postID)
	logger.Info("Processing preview extraction job")

	if err := p.newsRepo.UpdatePreviewStatus(ctx, postID, domain.PreviewStatusProcessing, ""); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Post was deleted in the meantime, nothing left to do
			logger.Warn("News post not found, dropping job")
			return nil
		}
		logger.Warn("Failed to update post status to processing", "error", err)
	}

	preview, err := p.reader.FromText(ctx, text)
	if err != nil {
		status, errMsg := domain.PreviewStatusFailed, err.Error()
		if ctx.Err() != nil {
			// Shutdown, the job is requeued
			status, errMsg = domain.PreviewStatusPending, ""
		}
		statusCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), bookkeepingTimeout)
		defer cancel()
		if statusErr := p.newsRepo.UpdatePreviewStatus(statusCtx, postID, status, errMsg); statusErr != nil {
			logger.Warn("Failed to update post status", "status", status, "error", statusErr)
		}
		return fmt.Errorf("failed to extract preview: %w", err)
	}

	if preview.IsEmpty() {
		logger.Info("No link in post text, skipping preview")
		return p.newsRepo.UpdatePreviewStatus(ctx, postID, domain.PreviewStatusSkipped, "")
	}

	if err := p.newsRepo.UpdatePreview(ctx, postID, preview); err != nil {
		return fmt.Errorf("failed to store preview: %w", err)
	}

	logger.Info("Preview extraction completed",
		"url", preview.URL,
		"title", preview.Title,
		"has_image", preview.Image != "",
	)
	logger.Debug("Stored preview", "preview", preview)

	channelID, _ := payload["discord_channel_id"].(string)
	messageID, _ := payload["discord_message_id"].(string)
	if channelID == "" || p.notifier == nil {
		return nil
	}

	notify := domain.NotifyPreviewPayload{
		PostID:           postID.String(),
		DiscordChannelID: channelID,
		DiscordMessageID: messageID,
	}
	if err := p.queueRepo.Enqueue(ctx, domain.JobTypeNotifyPreview, notify); err != nil {
		// The preview is stored, a missing embed is not worth a retry of the extraction
		logger.Warn("Failed to queue preview notification", "error", err)
	}

	return nil
}

// ProcessPreviewNotification posts the stored preview of a post to Discord
func (p *JobProcessor) ProcessPreviewNotification(ctx context.Context, payload map[string]interface{}, logger *slog.Logger) error {
	if p.notifier == nil {
		logger.Debug("No notifier configured, dropping notification job")
		return nil
	}

	postID, err := payloadPostID(payload)
	if err != nil {
		return err
	}

	channelID, ok := payload["discord_channel_id"].(string)
	if !ok || channelID == "" {
		return fmt.Errorf("missing or invalid discord_channel_id in payload")
	}
	messageID, _ := payload["discord_message_id"].(string)

	post, err := p.newsRepo.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Warn("News post not found, dropping notification", "post_id", postID)
			return nil
		}
		return fmt.Errorf("failed to get news post: %w", err)
	}

	if post.PreviewStatus != domain.PreviewStatusComplete {
		logger.Info("Preview not complete, skipping notification",
			"post_id", postID,
			"preview_status", post.PreviewStatus,
		)
		return nil
	}

	if err := p.notifier.NotifyPreview(ctx, channelID, messageID, post.Preview); err != nil {
		return fmt.Errorf("failed to send preview notification: %w", err)
	}

	logger.Info("Preview notification sent", "post_id", postID, "channel_id", channelID)
	return nil
}
