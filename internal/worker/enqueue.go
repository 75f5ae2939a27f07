package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DukeRupert/fetch/internal/repository"
)

// Job types. These must match the JobHandler.Type() values.
const (
	JobTypeFeedThumbnail   = "feed_thumbnail"
	JobTypeExpiredSessions = "delete_expired_sessions"
)

// Priority constants for job scheduling
const (
	PriorityLow    = 0
	PriorityNormal = 10
	PriorityHigh   = 20
)

// FeedThumbnailPayload identifies the post photo to render a thumbnail for.
type FeedThumbnailPayload struct {
	PostID   string `json:"post_id"`
	ImageKey string `json:"image_key"`
}

// EnqueueOption customises a job before it is inserted.
type EnqueueOption func(*repository.EnqueueJobParams)

// WithPriority sets the job priority.
func WithPriority(priority int32) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.Priority = priority
	}
}

// WithMaxAttempts sets the maximum number of attempts.
func WithMaxAttempts(attempts int32) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.MaxAttempts = attempts
	}
}

// WithDelay schedules the job to run after a delay.
func WithDelay(delay time.Duration) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.ScheduledAt = time.Now().Add(delay)
	}
}

// EnqueueJob marshals payload and inserts a pending job.
func EnqueueJob(
	ctx context.Context,
	queries *repository.Queries,
	jobType string,
	payload interface{},
	opts ...EnqueueOption,
) (repository.Job, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return repository.Job{}, fmt.Errorf("marshal payload: %w", err)
	}

	params := repository.EnqueueJobParams{
		JobType:     jobType,
		Payload:     payloadJSON,
		Priority:    PriorityNormal,
		MaxAttempts: 3,
		ScheduledAt: time.Now(),
	}
	for _, opt := range opts {
		opt(&params)
	}

	job, err := queries.EnqueueJob(ctx, params)
	if err != nil {
		return repository.Job{}, fmt.Errorf("enqueue job: %w", err)
	}
	return job, nil
}

// EnqueueFeedThumbnail queues thumbnail rendering for a freshly written post.
func EnqueueFeedThumbnail(ctx context.Context, queries *repository.Queries, postID, imageKey string, opts ...EnqueueOption) (repository.Job, error) {
	return EnqueueJob(ctx, queries, JobTypeFeedThumbnail, FeedThumbnailPayload{
		PostID:   postID,
		ImageKey: imageKey,
	}, append([]EnqueueOption{WithPriority(PriorityLow)}, opts...)...)
}

// EnqueueExpiredSessionCleanup queues a sweep of expired sessions.
func EnqueueExpiredSessionCleanup(ctx context.Context, queries *repository.Queries, opts ...EnqueueOption) (repository.Job, error) {
	return EnqueueJob(ctx, queries, JobTypeExpiredSessions, struct{}{}, append([]EnqueueOption{WithMaxAttempts(1)}, opts...)...)
}
