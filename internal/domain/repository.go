package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// NewsRepository defines the interface for news post data operations
type NewsRepository interface {
	// GetByID retrieves a post by its UUID
	GetByID(ctx context.Context, id uuid.UUID) (*NewsPost, error)

	// GetByDiscordMessage retrieves a post by Discord message ID
	GetByDiscordMessage(ctx context.Context, messageID string) (*NewsPost, error)

	// GetByCanonicalURL finds the most recent post sharing the same link
	GetByCanonicalURL(ctx context.Context, canonicalURL string) (*NewsPost, error)

	// List returns posts older than cursor (newest first), nil cursor starts from the top
	List(ctx context.Context, cursor *time.Time, limit int) ([]*NewsPost, error)

	// Create inserts a new post
	Create(ctx context.Context, post *NewsPost) error

	// UpdatePreview stores an extracted preview and marks the post complete
	UpdatePreview(ctx context.Context, id uuid.UUID, preview Metadata) error

	// UpdatePreviewStatus updates the preview status, errMsg is stored when non-empty
	UpdatePreviewStatus(ctx context.Context, id uuid.UUID, status string, errMsg string) error
}

// QueueRepository defines the interface for job queue operations
type QueueRepository interface {
	// Enqueue adds a new job to the queue
	Enqueue(ctx context.Context, jobType string, payload interface{}) error

	// Dequeue retrieves the next job from the queue, nil when the queue is empty
	Dequeue(ctx context.Context, jobType string) (*QueueJob, error)

	// Complete marks a job as completed
	Complete(ctx context.Context, jobID string) error

	// Fail marks a job as failed with error details
	Fail(ctx context.Context, jobID string, errorMsg string) error

	// GetPendingCount returns the number of pending jobs
	GetPendingCount(ctx context.Context, jobType string) (int, error)

	// ProcessRetryJobs moves jobs whose backoff expired back onto the queue
	ProcessRetryJobs(ctx context.Context, jobType string) error

	// Requeue puts an interrupted job back at the head of the queue without
	// counting a retry
	Requeue(ctx context.Context, jobID string) error

	// RecoverProcessing moves every job left in processing by a stopped
	// worker back onto the queue and returns how many were moved
	RecoverProcessing(ctx context.Context, jobType string) (int, error)
}

// QueueJob represents a job in the processing queue
type QueueJob struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Payload    map[string]interface{} `json:"payload"`
	Status     string                 `json:"status"`
	RetryCount int                    `json:"retry_count"`
	CreatedAt  string                 `json:"created_at"`
	UpdatedAt  *string                `json:"updated_at"`
}

// Job types
const (
	JobTypeExtractPreview = "extract_preview"
	JobTypeNotifyPreview  = "notify_preview"
)

// Job statuses
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// ExtractPreviewPayload is the payload of an extract_preview job
type ExtractPreviewPayload struct {
	PostID           string `json:"post_id"`
	Text             string `json:"text"`
	DiscordChannelID string `json:"discord_channel_id,omitempty"`
	DiscordMessageID string `json:"discord_message_id,omitempty"`
}

// NotifyPreviewPayload is the payload of a notify_preview job
type NotifyPreviewPayload struct {
	PostID           string `json:"post_id"`
	DiscordChannelID string `json:"discord_channel_id"`
	DiscordMessageID string `json:"discord_message_id"`
}
