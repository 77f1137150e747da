package worker

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"bootcamp-news/internal/domain"

	"github.com/google/uuid"
)

// createTestLogger creates a logger for testing
func createTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Only show errors during tests
	}))
}

type fakeNewsRepo struct {
	mu    sync.Mutex
	posts map[uuid.UUID]*domain.NewsPost
}

func newFakeNewsRepo(posts ...*domain.NewsPost) *fakeNewsRepo {
	repo := &fakeNewsRepo{posts: make(map[uuid.UUID]*domain.NewsPost)}
	for _, post := range posts {
		repo.posts[post.ID] = post
	}
	return repo
}

func (r *fakeNewsRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.NewsPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *post
	return &copied, nil
}

func (r *fakeNewsRepo) GetByDiscordMessage(ctx context.Context, messageID string) (*domain.NewsPost, error) {
	return nil, domain.ErrNotFound
}

func (r *fakeNewsRepo) GetByCanonicalURL(ctx context.Context, canonicalURL string) (*domain.NewsPost, error) {
	return nil, domain.ErrNotFound
}

func (r *fakeNewsRepo) List(ctx context.Context, cursor *time.Time, limit int) ([]*domain.NewsPost, error) {
	return nil, nil
}

func (r *fakeNewsRepo) Create(ctx context.Context, post *domain.NewsPost) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts[post.ID] = post
	return nil
}

func (r *fakeNewsRepo) UpdatePreview(ctx context.Context, id uuid.UUID, preview domain.Metadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return domain.ErrNotFound
	}
	post.Preview = preview
	post.PreviewStatus = domain.PreviewStatusComplete
	post.PreviewError = nil
	return nil
}

func (r *fakeNewsRepo) UpdatePreviewStatus(ctx context.Context, id uuid.UUID, status string, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return domain.ErrNotFound
	}
	post.PreviewStatus = status
	if errMsg != "" {
		post.PreviewError = &errMsg
	} else {
		post.PreviewError = nil
	}
	return nil
}

type enqueuedJob struct {
	jobType string
	payload interface{}
}

type fakeQueue struct {
	mu        sync.Mutex
	pending   map[string][]*domain.QueueJob
	enqueued  []enqueuedJob
	completed []string
	failed    map[string]string
	requeued  []string
	recovered []string
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{
		pending: make(map[string][]*domain.QueueJob),
		failed:  make(map[string]string),
	}
}

func (q *fakeQueue) push(job *domain.QueueJob) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending[job.Type] = append(q.pending[job.Type], job)
}

func (q *fakeQueue) Enqueue(ctx context.Context, jobType string, payload interface{}) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.enqueued = append(q.enqueued, enqueuedJob{jobType: jobType, payload: payload})
	return nil
}

func (q *fakeQueue) Dequeue(ctx context.Context, jobType string) (*domain.QueueJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	jobs := q.pending[jobType]
	if len(jobs) == 0 {
		return nil, nil
	}
	q.pending[jobType] = jobs[1:]
	return jobs[0], nil
}

func (q *fakeQueue) Complete(ctx context.Context, jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.completed = append(q.completed, jobID)
	return nil
}

func (q *fakeQueue) Fail(ctx context.Context, jobID string, errorMsg string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.failed[jobID] = errorMsg
	return nil
}

func (q *fakeQueue) GetPendingCount(ctx context.Context, jobType string) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending[jobType]), nil
}

func (q *fakeQueue) ProcessRetryJobs(ctx context.Context, jobType string) error {
	return nil
}

func (q *fakeQueue) Requeue(ctx context.Context, jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.requeued = append(q.requeued, jobID)
	return nil
}

func (q *fakeQueue) RecoverProcessing(ctx context.Context, jobType string) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.recovered = append(q.recovered, jobType)
	return 0, nil
}

type fakeReader struct {
	preview domain.Metadata
	err     error
	texts   []string
}

func (r *fakeReader) FromText(ctx context.Context, text string) (domain.Metadata, error) {
	r.texts = append(r.texts, text)
	return r.preview, r.err
}

// blockingReader waits for cancellation like a fetch cut off by shutdown
type blockingReader struct {
	started chan struct{}
}

func (r *blockingReader) FromText(ctx context.Context, text string) (domain.Metadata, error) {
	close(r.started)
	<-ctx.Done()
	return domain.Metadata{}, ctx.Err()
}

type sentNotification struct {
	channelID string
	messageID string
	preview   domain.Metadata
}

type fakeNotifier struct {
	sent []sentNotification
	err  error
}

func (n *fakeNotifier) NotifyPreview(ctx context.Context, channelID, messageID string, preview domain.Metadata) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentNotification{channelID, messageID, preview})
	return nil
}
