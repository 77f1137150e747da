package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"bootcamp-news/internal/domain"
)

// QueueStats reports counters for one job type
type QueueStats interface {
	GetQueueStats(ctx context.Context, jobType string) (map[string]int64, error)
}

type StatsHandler struct {
	logger *slog.Logger
	queue  QueueStats
}

func NewStatsHandler(logger *slog.Logger, queue QueueStats) *StatsHandler {
	return &StatsHandler{
		logger: logger,
		queue:  queue,
	}
}

// HandleStats returns job queue counters keyed by job type
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	jobTypes := []string{domain.JobTypeExtractPreview, domain.JobTypeNotifyPreview}

	stats := make(map[string]map[string]int64, len(jobTypes))
	for _, jobType := range jobTypes {
		counters, err := h.queue.GetQueueStats(r.Context(), jobType)
		if err != nil {
			h.logger.Error("Failed to get queue stats", "error", err, "job_type", jobType)
			writeError(w, h.logger, http.StatusInternalServerError, "Internal server error")
			return
		}
		stats[jobType] = counters
	}

	writeJSONResponse(w, h.logger, http.StatusOK, map[string]interface{}{"queues": stats})
}
