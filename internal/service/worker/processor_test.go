package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"bootcamp-news/internal/domain"

	"github.com/google/uuid"
)

func newPendingPost() *domain.NewsPost {
	return &domain.NewsPost{
		ID:            uuid.New(),
		Text:          "Demo day recap https://example.com/recap",
		URL:           "https://example.com/recap",
		PreviewStatus: domain.PreviewStatusPending,
		PostedAt:      time.Now(),
	}
}

var recapPreview = domain.Metadata{
	URL:         "https://example.com/recap",
	Type:        "article",
	Title:       "Demo day recap",
	Description: "Projects from the spring cohort",
	Image:       "https://example.com/cover.png",
}

func TestProcessPreviewExtraction(t *testing.T) {
	t.Run("Stores preview and queues notification", func(t *testing.T) {
		post := newPendingPost()
		repo := newFakeNewsRepo(post)
		queue := newFakeQueue()
		reader := &fakeReader{preview: recapPreview}
		processor := NewJobProcessor(createTestLogger(), repo, queue, reader, &fakeNotifier{})

		err := processor.ProcessPreviewExtraction(context.Background(), map[string]interface{}{
			"post_id":            post.ID.String(),
			"text":               post.Text,
			"discord_channel_id": "chan-1",
			"discord_message_id": "msg-1",
		}, createTestLogger())
		if err != nil {
			t.Fatalf("ProcessPreviewExtraction() error = %v", err)
		}

		stored, _ := repo.GetByID(context.Background(), post.ID)
		if stored.PreviewStatus != domain.PreviewStatusComplete || stored.Preview != recapPreview {
			t.Errorf("stored post = %+v", stored)
		}
		if len(reader.texts) != 1 || reader.texts[0] != post.Text {
			t.Errorf("reader called with %v", reader.texts)
		}
		if len(queue.enqueued) != 1 || queue.enqueued[0].jobType != domain.JobTypeNotifyPreview {
			t.Fatalf("enqueued = %+v, want one notify job", queue.enqueued)
		}
		payload := queue.enqueued[0].payload.(domain.NotifyPreviewPayload)
		if payload.DiscordChannelID != "chan-1" || payload.DiscordMessageID != "msg-1" {
			t.Errorf("notify payload = %+v", payload)
		}
	})

	t.Run("No notification without channel", func(t *testing.T) {
		post := newPendingPost()
		queue := newFakeQueue()
		processor := NewJobProcessor(createTestLogger(), newFakeNewsRepo(post), queue,
			&fakeReader{preview: recapPreview}, &fakeNotifier{})

		err := processor.ProcessPreviewExtraction(context.Background(), map[string]interface{}{
			"post_id": post.ID.String(),
			"text":    post.Text,
		}, createTestLogger())
		if err != nil {
			t.Fatalf("ProcessPreviewExtraction() error = %v", err)
		}
		if len(queue.enqueued) != 0 {
			t.Errorf("enqueued = %+v, want none", queue.enqueued)
		}
	})

	t.Run("Text without link is skipped", func(t *testing.T) {
		post := newPendingPost()
		repo := newFakeNewsRepo(post)
		processor := NewJobProcessor(createTestLogger(), repo, newFakeQueue(), &fakeReader{}, nil)

		err := processor.ProcessPreviewExtraction(context.Background(), map[string]interface{}{
			"post_id": post.ID.String(),
			"text":    "no links today",
		}, createTestLogger())
		if err != nil {
			t.Fatalf("ProcessPreviewExtraction() error = %v", err)
		}
		stored, _ := repo.GetByID(context.Background(), post.ID)
		if stored.PreviewStatus != domain.PreviewStatusSkipped {
			t.Errorf("PreviewStatus = %q, want skipped", stored.PreviewStatus)
		}
	})

	t.Run("Fetch failure marks post failed and returns error", func(t *testing.T) {
		post := newPendingPost()
		repo := newFakeNewsRepo(post)
		fetchErr := errors.New("HTTP error fetching https://example.com/recap: 503 Service Unavailable")
		processor := NewJobProcessor(createTestLogger(), repo, newFakeQueue(), &fakeReader{err: fetchErr}, nil)

		err := processor.ProcessPreviewExtraction(context.Background(), map[string]interface{}{
			"post_id": post.ID.String(),
			"text":    post.Text,
		}, createTestLogger())
		if !errors.Is(err, fetchErr) {
			t.Fatalf("ProcessPreviewExtraction() error = %v, want wrapped fetch error", err)
		}
		stored, _ := repo.GetByID(context.Background(), post.ID)
		if stored.PreviewStatus != domain.PreviewStatusFailed {
			t.Errorf("PreviewStatus = %q, want failed", stored.PreviewStatus)
		}
		if stored.PreviewError == nil || *stored.PreviewError != fetchErr.Error() {
			t.Errorf("PreviewError = %v", stored.PreviewError)
		}
	})

	t.Run("Shutdown during fetch leaves post pending", func(t *testing.T) {
		post := newPendingPost()
		repo := newFakeNewsRepo(post)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		processor := NewJobProcessor(createTestLogger(), repo, newFakeQueue(),
			&fakeReader{err: context.Canceled}, nil)

		err := processor.ProcessPreviewExtraction(ctx, map[string]interface{}{
			"post_id": post.ID.String(),
			"text":    post.Text,
		}, createTestLogger())
		if err == nil {
			t.Fatal("ProcessPreviewExtraction() should return the interrupted fetch")
		}

		stored, _ := repo.GetByID(context.Background(), post.ID)
		if stored.PreviewStatus != domain.PreviewStatusPending || stored.PreviewError != nil {
			t.Errorf("stored post = %+v, want pending without error", stored)
		}
	})

	t.Run("Deleted post drops the job", func(t *testing.T) {
		reader := &fakeReader{preview: recapPreview}
		processor := NewJobProcessor(createTestLogger(), newFakeNewsRepo(), newFakeQueue(), reader, nil)

		err := processor.ProcessPreviewExtraction(context.Background(), map[string]interface{}{
			"post_id": uuid.New().String(),
			"text":    "https://example.com",
		}, createTestLogger())
		if err != nil {
			t.Fatalf("ProcessPreviewExtraction() error = %v", err)
		}
		if len(reader.texts) != 0 {
			t.Error("reader should not be called for a missing post")
		}
	})

	t.Run("Invalid payloads", func(t *testing.T) {
		processor := NewJobProcessor(createTestLogger(), newFakeNewsRepo(), newFakeQueue(), &fakeReader{}, nil)

		for name, payload := range map[string]map[string]interface{}{
			"missing post_id": {"text": "x"},
			"bad post_id":     {"post_id": "nope", "text": "x"},
			"missing text":    {"post_id": uuid.New().String()},
		} {
			if err := processor.ProcessPreviewExtraction(context.Background(), payload, createTestLogger()); err == nil {
				t.Errorf("%s: expected error", name)
			}
		}
	})
}

func TestProcessPreviewNotification(t *testing.T) {
	completePost := newPendingPost()
	completePost.PreviewStatus = domain.PreviewStatusComplete
	completePost.Preview = recapPreview

	failedPost := newPendingPost()
	failedPost.PreviewStatus = domain.PreviewStatusFailed

	repo := newFakeNewsRepo(completePost, failedPost)

	t.Run("Sends complete previews", func(t *testing.T) {
		notifier := &fakeNotifier{}
		processor := NewJobProcessor(createTestLogger(), repo, newFakeQueue(), &fakeReader{}, notifier)

		err := processor.ProcessPreviewNotification(context.Background(), map[string]interface{}{
			"post_id":            completePost.ID.String(),
			"discord_channel_id": "chan-1",
			"discord_message_id": "msg-1",
		}, createTestLogger())
		if err != nil {
			t.Fatalf("ProcessPreviewNotification() error = %v", err)
		}
		if len(notifier.sent) != 1 || notifier.sent[0].preview != recapPreview || notifier.sent[0].messageID != "msg-1" {
			t.Errorf("sent = %+v", notifier.sent)
		}
	})

	t.Run("Skips incomplete previews", func(t *testing.T) {
		notifier := &fakeNotifier{}
		processor := NewJobProcessor(createTestLogger(), repo, newFakeQueue(), &fakeReader{}, notifier)

		err := processor.ProcessPreviewNotification(context.Background(), map[string]interface{}{
			"post_id":            failedPost.ID.String(),
			"discord_channel_id": "chan-1",
		}, createTestLogger())
		if err != nil || len(notifier.sent) != 0 {
			t.Errorf("ProcessPreviewNotification() = %v, sent %d", err, len(notifier.sent))
		}
	})

	t.Run("Notifier errors are returned for retry", func(t *testing.T) {
		processor := NewJobProcessor(createTestLogger(), repo, newFakeQueue(), &fakeReader{},
			&fakeNotifier{err: errors.New("rate limited")})

		err := processor.ProcessPreviewNotification(context.Background(), map[string]interface{}{
			"post_id":            completePost.ID.String(),
			"discord_channel_id": "chan-1",
		}, createTestLogger())
		if err == nil {
			t.Fatal("ProcessPreviewNotification() expected error")
		}
	})

	t.Run("Missing channel", func(t *testing.T) {
		processor := NewJobProcessor(createTestLogger(), repo, newFakeQueue(), &fakeReader{}, &fakeNotifier{})

		err := processor.ProcessPreviewNotification(context.Background(), map[string]interface{}{
			"post_id": completePost.ID.String(),
		}, createTestLogger())
		if err == nil {
			t.Fatal("ProcessPreviewNotification() expected error without channel")
		}
	})
}
