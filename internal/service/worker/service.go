package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bootcamp-news/internal/domain"
)

const (
	pollInterval   = 5 * time.Second
	maxJobsPerPoll = 10 // per job type, avoids starving the other type

	// Bookkeeping runs on its own deadline so shutdown cannot strand a job
	bookkeepingTimeout = 5 * time.Second
)

var jobTypes = []string{domain.JobTypeExtractPreview, domain.JobTypeNotifyPreview}

// WorkerService processes background jobs
type WorkerService struct {
	logger    *slog.Logger
	queueRepo domain.QueueRepository
	processor *JobProcessor

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu    sync.Mutex
	stats WorkerStats
}

// WorkerStats tracks worker performance metrics
type WorkerStats struct {
	JobsProcessed  int64
	JobsSucceeded  int64
	JobsFailed     int64
	LastJobTime    time.Time
	AverageJobTime time.Duration
}

// New creates a new worker service
func New(logger *slog.Logger, queueRepo domain.QueueRepository, processor *JobProcessor) *WorkerService {
	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerService{
		logger:    logger,
		queueRepo: queueRepo,
		processor: processor,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// Start processes jobs until Stop is called
func (w *WorkerService) Start() error {
	w.logger.Info("Starting worker service...")
	defer close(w.done)

	w.recoverInterruptedJobs()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		w.processPendingJobs()

		select {
		case <-w.ctx.Done():
			w.logger.Info("Job processing stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Stop gracefully shuts down the worker service, waiting for the current
// poll to finish or ctx to expire
func (w *WorkerService) Stop(ctx context.Context) error {
	w.logger.Info("Stopping worker service...")
	w.cancel()

	select {
	case <-w.done:
		w.logger.Info("Worker service stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker did not stop in time: %w", ctx.Err())
	}
}

// recoverInterruptedJobs requeues jobs a previous run left in processing
func (w *WorkerService) recoverInterruptedJobs() {
	for _, jobType := range jobTypes {
		count, err := w.queueRepo.RecoverProcessing(w.ctx, jobType)
		if err != nil {
			w.logger.Error("Failed to recover interrupted jobs", "error", err, "job_type", jobType)
			continue
		}
		if count > 0 {
			w.logger.Info("Requeued interrupted jobs", "job_type", jobType, "count", count)
		}
	}
}

// processPendingJobs processes every job type once
func (w *WorkerService) processPendingJobs() {
	for _, jobType := range jobTypes {
		if w.ctx.Err() != nil {
			return
		}
		if err := w.queueRepo.ProcessRetryJobs(w.ctx, jobType); err != nil {
			w.logger.Error("Failed to requeue retry jobs", "error", err, "job_type", jobType)
		}
		w.processJobType(jobType)
	}
}

// processJobType processes up to maxJobsPerPoll pending jobs of a type
func (w *WorkerService) processJobType(jobType string) {
	ctx := w.ctx

	pendingCount, err := w.queueRepo.GetPendingCount(ctx, jobType)
	if err != nil {
		w.logger.Error("Failed to get pending job count",
			"error", err,
			"job_type", jobType,
		)
		return
	}

	if pendingCount == 0 {
		return
	}

	w.logger.Debug("Processing pending jobs",
		"job_type", jobType,
		"count", pendingCount,
	)

	for i := 0; i < min(pendingCount, maxJobsPerPoll); i++ {
		job, err := w.queueRepo.Dequeue(ctx, jobType)
		if err != nil {
			w.logger.Error("Failed to dequeue job",
				"error", err,
				"job_type", jobType,
			)
			continue
		}

		if job == nil {
			break
		}

		w.processJob(job)
	}
}

// processJob processes a single job
func (w *WorkerService) processJob(job *domain.QueueJob) {
	startTime := time.Now()
	jobLogger := w.logger.With(
		"job_id", job.ID,
		"job_type", job.Type,
		"retry_count", job.RetryCount,
	)

	jobLogger.Info("Processing job")

	var processingErr error
	switch job.Type {
	case domain.JobTypeExtractPreview:
		processingErr = w.processor.ProcessPreviewExtraction(w.ctx, job.Payload, jobLogger)
	case domain.JobTypeNotifyPreview:
		processingErr = w.processor.ProcessPreviewNotification(w.ctx, job.Payload, jobLogger)
	default:
		processingErr = fmt.Errorf("unknown job type: %s", job.Type)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(w.ctx), bookkeepingTimeout)
	defer cancel()

	switch {
	case processingErr != nil && w.ctx.Err() != nil:
		// Cut off by Stop, the job gets another full attempt
		jobLogger.Info("Job interrupted by shutdown, requeueing", "error", processingErr)
		if err := w.queueRepo.Requeue(ctx, job.ID); err != nil {
			jobLogger.Error("Failed to requeue interrupted job", "error", err)
		}
		return
	case processingErr != nil:
		jobLogger.Error("Job processing failed", "error", processingErr)
		if err := w.queueRepo.Fail(ctx, job.ID, processingErr.Error()); err != nil {
			jobLogger.Error("Failed to mark job as failed", "error", err)
		}
	default:
		jobLogger.Info("Job processed successfully")
		if err := w.queueRepo.Complete(ctx, job.ID); err != nil {
			jobLogger.Error("Failed to mark job as completed", "error", err)
		}
	}

	w.recordJob(time.Since(startTime), processingErr == nil)
}

func (w *WorkerService) recordJob(duration time.Duration, succeeded bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.stats.JobsProcessed++
	if succeeded {
		w.stats.JobsSucceeded++
	} else {
		w.stats.JobsFailed++
	}
	w.stats.LastJobTime = time.Now()

	// Running mean
	n := time.Duration(w.stats.JobsProcessed)
	w.stats.AverageJobTime += (duration - w.stats.AverageJobTime) / n
}

// GetStats returns a snapshot of the worker statistics
func (w *WorkerService) GetStats() WorkerStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// HealthCheck performs a health check on the worker service
func (w *WorkerService) HealthCheck() error {
	if w.ctx.Err() != nil {
		return fmt.Errorf("worker context cancelled: %w", w.ctx.Err())
	}

	if _, err := w.queueRepo.GetPendingCount(w.ctx, domain.JobTypeExtractPreview); err != nil {
		return fmt.Errorf("queue connectivity check failed: %w", err)
	}

	return nil
}
