package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by repositories when no row matches
var ErrNotFound = errors.New("not found")

// NewsPost represents a bootcamp news post whose link gets a preview
type NewsPost struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Text         string    `json:"text" db:"text"`
	URL          string    `json:"url" db:"url"`
	CanonicalURL string    `json:"canonical_url" db:"canonical_url"`

	// Preview and processing
	Preview       Metadata `json:"preview" db:"preview"`
	PreviewStatus string   `json:"preview_status" db:"preview_status"`
	PreviewError  *string  `json:"preview_error,omitempty" db:"preview_error"`

	// Discord-specific fields, empty for posts created through the API
	DiscordMessageID *string `json:"discord_message_id,omitempty" db:"discord_message_id"`
	DiscordChannelID *string `json:"discord_channel_id,omitempty" db:"discord_channel_id"`

	// Timestamps
	PostedAt  time.Time  `json:"posted_at" db:"posted_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at" db:"updated_at"`
}

// Preview status constants
const (
	PreviewStatusPending    = "pending"
	PreviewStatusProcessing = "processing"
	PreviewStatusComplete   = "complete"
	PreviewStatusFailed     = "failed"
	PreviewStatusSkipped    = "skipped" // no URL in the post text
)

// IsValidPreviewStatus checks if the status is one the database accepts
func IsValidPreviewStatus(status string) bool {
	switch status {
	case PreviewStatusPending, PreviewStatusProcessing, PreviewStatusComplete,
		PreviewStatusFailed, PreviewStatusSkipped:
		return true
	}
	return false
}
