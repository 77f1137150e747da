package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"bootcamp-news/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis key patterns
const (
	queueKeyPrefix   = "news:queue:"      // news:queue:job_type
	jobKeyPrefix     = "news:job:"        // news:job:job_id
	processingPrefix = "news:processing:" // news:processing:job_type
	retryKeyPrefix   = "news:retry:"      // news:retry:job_type
	deadLetterPrefix = "news:dead:"       // news:dead:job_type
	statsKeyPrefix   = "news:stats:"      // news:stats:job_type
)

// Job retry configuration
const (
	maxRetries       = 3
	initialBackoff   = 2 * time.Second
	maxBackoff       = 5 * time.Minute
	jobTTL           = 24 * time.Hour
	completedJobTTL  = 6 * time.Hour
	dequeueBlockTime = 2 * time.Second
)

// QueueRepository implements the domain.QueueRepository interface using Redis
type QueueRepository struct {
	client *redis.Client
	logger *slog.Logger
}

// NewQueueRepository creates a new Redis queue repository
func NewQueueRepository(client *redis.Client, logger *slog.Logger) *QueueRepository {
	return &QueueRepository{
		client: client,
		logger: logger,
	}
}

// jobRecord is the JSON stored under news:job:<id>
type jobRecord struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Payload    map[string]interface{} `json:"payload"`
	Status     string                 `json:"status"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  *time.Time             `json:"updated_at,omitempty"`
	RetryCount int                    `json:"retry_count"`
	MaxRetries int                    `json:"max_retries"`
	NextRetry  *time.Time             `json:"next_retry,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

func (j *jobRecord) toDomain() *domain.QueueJob {
	job := &domain.QueueJob{
		ID:         j.ID,
		Type:       j.Type,
		Payload:    j.Payload,
		Status:     j.Status,
		RetryCount: j.RetryCount,
		CreatedAt:  j.CreatedAt.Format(time.RFC3339),
	}
	if j.UpdatedAt != nil {
		updatedAt := j.UpdatedAt.Format(time.RFC3339)
		job.UpdatedAt = &updatedAt
	}
	return job
}

// payloadToMap round-trips any payload struct through JSON
func payloadToMap(payload interface{}) (map[string]interface{}, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	var payloadMap map[string]interface{}
	if err := json.Unmarshal(payloadBytes, &payloadMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload to map: %w", err)
	}
	return payloadMap, nil
}

// backoffFor returns the retry delay after the given number of failures
func backoffFor(retryCount int) time.Duration {
	delay := initialBackoff
	for i := 1; i < retryCount; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}

func (r *QueueRepository) loadJob(ctx context.Context, jobID string) (*jobRecord, error) {
	data, err := r.client.HGet(ctx, jobKeyPrefix+jobID, "data").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("job data not found: %s", jobID)
		}
		return nil, fmt.Errorf("failed to get job data: %w", err)
	}

	var job jobRecord
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

func saveJob(ctx context.Context, pipe redis.Pipeliner, job *jobRecord) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	fields := map[string]interface{}{
		"data":        string(data),
		"status":      job.Status,
		"type":        job.Type,
		"retry_count": job.RetryCount,
	}
	if job.UpdatedAt != nil {
		fields["updated_at"] = job.UpdatedAt.Unix()
	}
	pipe.HSet(ctx, jobKeyPrefix+job.ID, fields)
	return nil
}

// Enqueue adds a new job to the queue
func (r *QueueRepository) Enqueue(ctx context.Context, jobType string, payload interface{}) error {
	payloadMap, err := payloadToMap(payload)
	if err != nil {
		return err
	}

	job := &jobRecord{
		ID:         uuid.New().String(),
		Type:       jobType,
		Payload:    payloadMap,
		Status:     domain.JobStatusPending,
		CreatedAt:  time.Now(),
		MaxRetries: maxRetries,
	}

	pipe := r.client.TxPipeline()
	if err := saveJob(ctx, pipe, job); err != nil {
		return err
	}
	pipe.Expire(ctx, jobKeyPrefix+job.ID, jobTTL)
	pipe.LPush(ctx, queueKeyPrefix+jobType, job.ID)
	pipe.HIncrBy(ctx, statsKeyPrefix+jobType, "total_enqueued", 1)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}

	r.logger.Info("Job enqueued",
		"job_id", job.ID,
		"job_type", jobType,
	)

	return nil
}

// Dequeue moves the next job to the processing list.
// Returns nil, nil when no job shows up within the block time.
func (r *QueueRepository) Dequeue(ctx context.Context, jobType string) (*domain.QueueJob, error) {
	processingKey := processingPrefix + jobType

	// BLMOVE keeps the job in the processing list if the worker crashes,
	// RecoverProcessing hands it out again on the next start
	jobID, err := r.client.BLMove(ctx, queueKeyPrefix+jobType, processingKey, "RIGHT", "LEFT", dequeueBlockTime).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue job: %w", err)
	}

	job, err := r.loadJob(ctx, jobID)
	if err != nil {
		r.logger.Warn("Dropping unreadable job from processing", "job_id", jobID, "error", err)
		r.client.LRem(ctx, processingKey, 1, jobID)
		return nil, err
	}

	now := time.Now()
	job.Status = domain.JobStatusProcessing
	job.UpdatedAt = &now

	pipe := r.client.TxPipeline()
	if err := saveJob(ctx, pipe, job); err != nil {
		return nil, err
	}
	pipe.HIncrBy(ctx, statsKeyPrefix+jobType, "processing", 1)
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to update job status", "error", err, "job_id", jobID)
	}

	r.logger.Debug("Job dequeued",
		"job_id", job.ID,
		"job_type", jobType,
		"retry_count", job.RetryCount,
	)

	return job.toDomain(), nil
}

// Complete marks a job as completed and removes it from processing
func (r *QueueRepository) Complete(ctx context.Context, jobID string) error {
	job, err := r.loadJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to get job for completion: %w", err)
	}

	now := time.Now()
	job.Status = domain.JobStatusCompleted
	job.UpdatedAt = &now

	pipe := r.client.TxPipeline()
	if err := saveJob(ctx, pipe, job); err != nil {
		return err
	}
	pipe.LRem(ctx, processingPrefix+job.Type, 1, jobID)
	pipe.HIncrBy(ctx, statsKeyPrefix+job.Type, "processing", -1)
	pipe.HIncrBy(ctx, statsKeyPrefix+job.Type, "completed", 1)
	pipe.Expire(ctx, jobKeyPrefix+jobID, completedJobTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}

	r.logger.Info("Job completed", "job_id", jobID, "job_type", job.Type)
	return nil
}

// Fail records the error and either schedules a retry with exponential
// backoff or moves the job to the dead letter list
func (r *QueueRepository) Fail(ctx context.Context, jobID string, errorMsg string) error {
	job, err := r.loadJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to get job for failure: %w", err)
	}

	now := time.Now()
	job.Error = errorMsg
	job.UpdatedAt = &now
	job.RetryCount++

	pipe := r.client.TxPipeline()

	if job.RetryCount <= job.MaxRetries {
		nextRetry := now.Add(backoffFor(job.RetryCount))
		job.NextRetry = &nextRetry
		job.Status = domain.JobStatusPending

		pipe.ZAdd(ctx, retryKeyPrefix+job.Type, redis.Z{
			Score:  float64(nextRetry.Unix()),
			Member: jobID,
		})

		r.logger.Info("Job scheduled for retry",
			"job_id", jobID,
			"job_type", job.Type,
			"retry_count", job.RetryCount,
			"next_retry", nextRetry,
			"error", errorMsg,
		)
	} else {
		job.Status = domain.JobStatusFailed
		pipe.LPush(ctx, deadLetterPrefix+job.Type, jobID)
		pipe.HIncrBy(ctx, statsKeyPrefix+job.Type, "failed", 1)

		r.logger.Error("Job failed permanently",
			"job_id", jobID,
			"job_type", job.Type,
			"retry_count", job.RetryCount,
			"error", errorMsg,
		)
	}

	if err := saveJob(ctx, pipe, job); err != nil {
		return err
	}
	pipe.LRem(ctx, processingPrefix+job.Type, 1, jobID)
	pipe.HIncrBy(ctx, statsKeyPrefix+job.Type, "processing", -1)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to handle job failure: %w", err)
	}

	return nil
}

// Requeue returns an interrupted job to the head of its queue. The retry
// count is left alone since the job never got to finish.
func (r *QueueRepository) Requeue(ctx context.Context, jobID string) error {
	job, err := r.loadJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to get job for requeue: %w", err)
	}

	now := time.Now()
	job.Status = domain.JobStatusPending
	job.UpdatedAt = &now

	pipe := r.client.TxPipeline()
	if err := saveJob(ctx, pipe, job); err != nil {
		return err
	}
	pipe.LRem(ctx, processingPrefix+job.Type, 1, jobID)
	// Dequeue pops from the right
	pipe.RPush(ctx, queueKeyPrefix+job.Type, jobID)
	pipe.HIncrBy(ctx, statsKeyPrefix+job.Type, "processing", -1)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to requeue job: %w", err)
	}

	r.logger.Info("Job requeued", "job_id", jobID, "job_type", job.Type)
	return nil
}

// RecoverProcessing moves every job in the processing list back to the head
// of the queue, oldest first. It must only run while no other worker holds
// jobs of this type.
func (r *QueueRepository) RecoverProcessing(ctx context.Context, jobType string) (int, error) {
	processingKey := processingPrefix + jobType
	queueKey := queueKeyPrefix + jobType

	recovered := 0
	for {
		jobID, err := r.client.LMove(ctx, processingKey, queueKey, "LEFT", "RIGHT").Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				break
			}
			return recovered, fmt.Errorf("failed to recover processing jobs: %w", err)
		}
		recovered++

		job, err := r.loadJob(ctx, jobID)
		if err != nil {
			r.logger.Warn("Recovered job has no readable data", "job_id", jobID, "error", err)
			continue
		}
		job.Status = domain.JobStatusPending
		pipe := r.client.TxPipeline()
		if err := saveJob(ctx, pipe, job); err != nil {
			return recovered, err
		}
		if _, err := pipe.Exec(ctx); err != nil {
			r.logger.Warn("Failed to reset recovered job status", "job_id", jobID, "error", err)
		}
	}

	if recovered == 0 {
		return 0, nil
	}

	if err := r.client.HIncrBy(ctx, statsKeyPrefix+jobType, "processing", int64(-recovered)).Err(); err != nil {
		r.logger.Warn("Failed to adjust processing counter", "job_type", jobType, "error", err)
	}

	r.logger.Warn("Recovered interrupted jobs",
		"job_type", jobType,
		"count", recovered,
	)

	return recovered, nil
}

// GetPendingCount returns the number of pending jobs for a job type
func (r *QueueRepository) GetPendingCount(ctx context.Context, jobType string) (int, error) {
	count, err := r.client.LLen(ctx, queueKeyPrefix+jobType).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get pending count: %w", err)
	}
	return int(count), nil
}

// ProcessRetryJobs moves jobs from retry queue back to main queue when ready
func (r *QueueRepository) ProcessRetryJobs(ctx context.Context, jobType string) error {
	retryKey := retryKeyPrefix + jobType

	jobIDs, err := r.client.ZRangeByScore(ctx, retryKey, &redis.ZRangeBy{
		Min: "0",
		Max: strconv.FormatInt(time.Now().Unix(), 10),
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to get retry jobs: %w", err)
	}

	if len(jobIDs) == 0 {
		return nil
	}

	pipe := r.client.TxPipeline()
	for _, jobID := range jobIDs {
		pipe.ZRem(ctx, retryKey, jobID)
		pipe.LPush(ctx, queueKeyPrefix+jobType, jobID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to process retry jobs: %w", err)
	}

	r.logger.Info("Processed retry jobs",
		"job_type", jobType,
		"count", len(jobIDs),
	)

	return nil
}

// GetQueueStats returns counters and current list lengths for a job type
func (r *QueueRepository) GetQueueStats(ctx context.Context, jobType string) (map[string]int64, error) {
	stats, err := r.client.HGetAll(ctx, statsKeyPrefix+jobType).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get queue stats: %w", err)
	}

	result := make(map[string]int64)
	for key, value := range stats {
		if val, err := strconv.ParseInt(value, 10, 64); err == nil {
			result[key] = val
		}
	}

	if pending, err := r.client.LLen(ctx, queueKeyPrefix+jobType).Result(); err == nil {
		result["current_pending"] = pending
	}
	if processing, err := r.client.LLen(ctx, processingPrefix+jobType).Result(); err == nil {
		result["current_processing"] = processing
	}
	if retrying, err := r.client.ZCard(ctx, retryKeyPrefix+jobType).Result(); err == nil {
		result["current_retrying"] = retrying
	}
	if dead, err := r.client.LLen(ctx, deadLetterPrefix+jobType).Result(); err == nil {
		result["current_dead"] = dead
	}

	return result, nil
}
