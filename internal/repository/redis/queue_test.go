package redis

import (
	"testing"
	"time"

	"bootcamp-news/internal/domain"
)

func TestBackoffFor(t *testing.T) {
	tests := []struct {
		retryCount int
		want       time.Duration
	}{
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{8, 256 * time.Second},
		{9, maxBackoff},
		{50, maxBackoff},
	}

	for _, tt := range tests {
		if got := backoffFor(tt.retryCount); got != tt.want {
			t.Errorf("backoffFor(%d) = %v, want %v", tt.retryCount, got, tt.want)
		}
	}
}

func TestPayloadToMap(t *testing.T) {
	got, err := payloadToMap(domain.ExtractPreviewPayload{PostID: "abc", Text: "see https://a.co"})
	if err != nil {
		t.Fatalf("payloadToMap() error = %v", err)
	}
	if got["post_id"] != "abc" || got["text"] != "see https://a.co" {
		t.Errorf("payloadToMap() = %v", got)
	}

	if _, err := payloadToMap(func() {}); err == nil {
		t.Error("payloadToMap() expected error for unmarshalable payload")
	}
}

func TestJobRecordToDomain(t *testing.T) {
	created := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	updated := created.Add(time.Minute)
	record := &jobRecord{
		ID:         "job-1",
		Type:       domain.JobTypeExtractPreview,
		Payload:    map[string]interface{}{"post_id": "p"},
		Status:     domain.JobStatusProcessing,
		CreatedAt:  created,
		UpdatedAt:  &updated,
		RetryCount: 2,
	}

	job := record.toDomain()
	if job.ID != "job-1" || job.RetryCount != 2 || job.Status != domain.JobStatusProcessing {
		t.Errorf("toDomain() = %+v", job)
	}
	if job.CreatedAt != "2026-10-01T12:00:00Z" {
		t.Errorf("CreatedAt = %q", job.CreatedAt)
	}
	if job.UpdatedAt == nil || *job.UpdatedAt != "2026-10-01T12:01:00Z" {
		t.Errorf("UpdatedAt = %v", job.UpdatedAt)
	}
}
