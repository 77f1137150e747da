package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bootcamp-news/internal/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ErrDuplicatePost is returned when a Discord message was already stored
var ErrDuplicatePost = errors.New("news post already exists")

const uniqueViolation = "23505"

const newsColumns = `
	id, text, url, canonical_url, preview, preview_status, preview_error,
	discord_message_id, discord_channel_id, posted_at, created_at, updated_at`

// NewsRepository implements the domain.NewsRepository interface using PostgreSQL
type NewsRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewNewsRepository creates a new PostgreSQL news repository
func NewNewsRepository(db *sql.DB, logger *slog.Logger) *NewsRepository {
	return &NewsRepository{
		db:     db,
		logger: logger,
	}
}

// rowScanner is implemented by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*domain.NewsPost, error) {
	post := &domain.NewsPost{}
	var previewError, messageID, channelID sql.NullString
	var updatedAt sql.NullTime
	var previewBytes []byte // JSONB column

	err := row.Scan(
		&post.ID,
		&post.Text,
		&post.URL,
		&post.CanonicalURL,
		&previewBytes,
		&post.PreviewStatus,
		&previewError,
		&messageID,
		&channelID,
		&post.PostedAt,
		&post.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if previewError.Valid {
		post.PreviewError = &previewError.String
	}
	if messageID.Valid {
		post.DiscordMessageID = &messageID.String
	}
	if channelID.Valid {
		post.DiscordChannelID = &channelID.String
	}
	if updatedAt.Valid {
		post.UpdatedAt = &updatedAt.Time
	}

	if len(previewBytes) > 0 {
		if err := json.Unmarshal(previewBytes, &post.Preview); err != nil {
			return nil, fmt.Errorf("failed to unmarshal preview: %w", err)
		}
	}

	return post, nil
}

func (r *NewsRepository) getOne(ctx context.Context, where string, arg any) (*domain.NewsPost, error) {
	query := `SELECT ` + newsColumns + ` FROM news_posts WHERE ` + where + ` ORDER BY posted_at DESC LIMIT 1`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to query news post", "error", err, "where", where)
		return nil, fmt.Errorf("failed to query news post: %w", err)
	}
	return post, nil
}

// GetByID retrieves a post by its UUID
func (r *NewsRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.NewsPost, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetByDiscordMessage retrieves a post by Discord message ID
func (r *NewsRepository) GetByDiscordMessage(ctx context.Context, messageID string) (*domain.NewsPost, error) {
	return r.getOne(ctx, "discord_message_id = $1", messageID)
}

// GetByCanonicalURL finds the most recent post sharing the same link
func (r *NewsRepository) GetByCanonicalURL(ctx context.Context, canonicalURL string) (*domain.NewsPost, error) {
	if canonicalURL == "" {
		return nil, domain.ErrNotFound
	}
	return r.getOne(ctx, "canonical_url = $1", canonicalURL)
}

// List returns posts older than cursor, newest first
func (r *NewsRepository) List(ctx context.Context, cursor *time.Time, limit int) ([]*domain.NewsPost, error) {
	var rows *sql.Rows
	var err error
	if cursor == nil {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+newsColumns+` FROM news_posts ORDER BY posted_at DESC LIMIT $1`, limit)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+newsColumns+` FROM news_posts WHERE posted_at < $1 ORDER BY posted_at DESC LIMIT $2`,
			*cursor, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list news posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*domain.NewsPost, 0, limit)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan news post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate news posts: %w", err)
	}

	return posts, nil
}

// Create inserts a new post
func (r *NewsRepository) Create(ctx context.Context, post *domain.NewsPost) error {
	previewBytes, err := json.Marshal(post.Preview)
	if err != nil {
		return fmt.Errorf("failed to marshal preview: %w", err)
	}

	query := `
		INSERT INTO news_posts (
			id, text, url, canonical_url, preview, preview_status,
			discord_message_id, discord_channel_id, posted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`

	err = r.db.QueryRowContext(ctx, query,
		post.ID,
		post.Text,
		post.URL,
		post.CanonicalURL,
		previewBytes,
		post.PreviewStatus,
		post.DiscordMessageID,
		post.DiscordChannelID,
		post.PostedAt,
	).Scan(&post.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicatePost
		}
		r.logger.Error("Failed to create news post", "error", err, "post_id", post.ID)
		return fmt.Errorf("failed to create news post: %w", err)
	}

	r.logger.Info("News post created",
		"post_id", post.ID,
		"url", post.URL,
		"preview_status", post.PreviewStatus,
	)
	return nil
}

// UpdatePreview stores an extracted preview and marks the post complete
func (r *NewsRepository) UpdatePreview(ctx context.Context, id uuid.UUID, preview domain.Metadata) error {
	previewBytes, err := json.Marshal(preview)
	if err != nil {
		return fmt.Errorf("failed to marshal preview: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE news_posts
		SET preview = $2, preview_status = $3, preview_error = NULL, updated_at = NOW()
		WHERE id = $1`,
		id, previewBytes, domain.PreviewStatusComplete)
	if err != nil {
		return fmt.Errorf("failed to update preview: %w", err)
	}
	return expectOneRow(result)
}

// UpdatePreviewStatus updates the preview status, errMsg is stored when non-empty
func (r *NewsRepository) UpdatePreviewStatus(ctx context.Context, id uuid.UUID, status string, errMsg string) error {
	if !domain.IsValidPreviewStatus(status) {
		return fmt.Errorf("invalid preview status: %q", status)
	}

	var previewError sql.NullString
	if errMsg != "" {
		previewError = sql.NullString{String: errMsg, Valid: true}
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE news_posts
		SET preview_status = $2, preview_error = $3, updated_at = NOW()
		WHERE id = $1`,
		id, status, previewError)
	if err != nil {
		return fmt.Errorf("failed to update preview status: %w", err)
	}
	return expectOneRow(result)
}

func expectOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
