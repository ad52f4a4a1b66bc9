package mapper

import (
	"github.com/clearpath-sec/cloudscan/internal/queue/domain"
	"github.com/clearpath-sec/cloudscan/pkg/adapter/storage/types"
)

func QueueJobDomain2Storage(job domain.Job) *types.QueueJob {
	return &types.QueueJob{
		ID:            job.ID,
		Payload:       job.Payload,
		Status:        string(job.Status),
		Attempts:      job.Attempts,
		MaxAttempts:   job.MaxAttempts,
		NextAttemptAt: job.NextAttemptAt,
		LastError:     strPtrOrNil(job.LastError),
		CreatedAt:     job.CreatedAt,
		UpdatedAt:     timePtrOrNil(job.UpdatedAt),
		CompletedAt:   job.CompletedAt,
	}
}

func QueueJobStorage2Domain(job types.QueueJob) *domain.Job {
	return &domain.Job{
		ID:            job.ID,
		Payload:       job.Payload,
		Status:        domain.JobStatus(job.Status),
		Attempts:      job.Attempts,
		MaxAttempts:   job.MaxAttempts,
		NextAttemptAt: job.NextAttemptAt,
		LastError:     strOrEmpty(job.LastError),
		CreatedAt:     job.CreatedAt,
		UpdatedAt:     timeOrZero(job.UpdatedAt),
		CompletedAt:   job.CompletedAt,
	}
}
