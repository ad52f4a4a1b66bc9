package port

import (
	"context"
	"time"

	"github.com/clearpath-sec/cloudscan/internal/queue/domain"
)

// Enqueuer is the narrow interface producers depend on.
type Enqueuer interface {
	Enqueue(ctx context.Context, payload domain.ScanJobPayload) (domain.JobID, error)
}

type Repo interface {
	Create(ctx context.Context, job domain.Job) (domain.JobID, error)

	// ClaimDue atomically moves up to limit due queued jobs to in_flight,
	// incrementing their attempt counter, and returns them. Claimed jobs
	// are invisible to other dispatchers.
	ClaimDue(ctx context.Context, limit int, now time.Time) ([]domain.Job, error)

	MarkCompleted(ctx context.Context, jobID domain.JobID) error

	// MarkFailed requeues a job for a later attempt.
	MarkFailed(ctx context.Context, jobID domain.JobID, nextAttemptAt time.Time, lastError string) error

	// MarkDead parks a job that exhausted its retries.
	MarkDead(ctx context.Context, jobID domain.JobID, lastError string) error

	// RequeueStale returns in_flight jobs older than the cutoff to the
	// queue. Covers dispatchers that died mid-job.
	RequeueStale(ctx context.Context, cutoff time.Time) (int64, error)

	// Prune removes completed and dead jobs older than their cutoffs.
	Prune(ctx context.Context, completedBefore, deadBefore time.Time) (int64, error)

	GetByID(ctx context.Context, jobID domain.JobID) (*domain.Job, error)
}
