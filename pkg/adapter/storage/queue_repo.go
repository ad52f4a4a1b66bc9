package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/clearpath-sec/cloudscan/internal/queue/domain"
	queuePort "github.com/clearpath-sec/cloudscan/internal/queue/port"
	"github.com/clearpath-sec/cloudscan/pkg/adapter/storage/types"
	"github.com/clearpath-sec/cloudscan/pkg/adapter/storage/types/mapper"
	appCtx "github.com/clearpath-sec/cloudscan/pkg/context"
)

const maxLastErrorLen = 1024

type queueRepo struct {
	db *gorm.DB
}

func NewQueueRepo(db *gorm.DB) queuePort.Repo {
	return &queueRepo{db: db}
}

func (r *queueRepo) getDB(ctx context.Context) *gorm.DB {
	if db := appCtx.GetDB(ctx); db != nil {
		return db
	}
	return r.db
}

func (r *queueRepo) Create(ctx context.Context, job domain.Job) (domain.JobID, error) {
	j := mapper.QueueJobDomain2Storage(job)
	j.CreatedAt = time.Now()
	j.UpdatedAt = nil
	j.CompletedAt = nil

	if err := r.getDB(ctx).WithContext(ctx).Table("queue_jobs").Create(&j).Error; err != nil {
		return 0, err
	}
	return j.ID, nil
}

// ClaimDue selects due candidates and then races a conditional update per
// row. Rows another dispatcher claims first lose the race and are skipped.
func (r *queueRepo) ClaimDue(ctx context.Context, limit int, now time.Time) ([]domain.Job, error) {
	if limit <= 0 {
		return nil, nil
	}
	db := r.getDB(ctx).WithContext(ctx)

	var candidates []types.QueueJob
	err := db.Table("queue_jobs").
		Where("status = ? AND next_attempt_at <= ?", string(domain.JobStatusQueued), now).
		Order("next_attempt_at asc").
		Limit(limit).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	claimed := make([]domain.Job, 0, len(candidates))
	for _, candidate := range candidates {
		result := db.Table("queue_jobs").
			Where("id = ? AND status = ?", candidate.ID, string(domain.JobStatusQueued)).
			Updates(map[string]interface{}{
				"status":     string(domain.JobStatusInFlight),
				"attempts":   gorm.Expr("attempts + 1"),
				"updated_at": now,
			})
		if result.Error != nil {
			return claimed, result.Error
		}
		if result.RowsAffected == 0 {
			continue
		}

		var job types.QueueJob
		if err := db.Table("queue_jobs").Where("id = ?", candidate.ID).First(&job).Error; err != nil {
			return claimed, err
		}
		claimed = append(claimed, *mapper.QueueJobStorage2Domain(job))
	}
	return claimed, nil
}

func (r *queueRepo) MarkCompleted(ctx context.Context, jobID domain.JobID) error {
	now := time.Now()
	return r.getDB(ctx).WithContext(ctx).Table("queue_jobs").
		Where("id = ?", jobID).
		Updates(map[string]interface{}{
			"status":       string(domain.JobStatusCompleted),
			"completed_at": now,
			"updated_at":   now,
		}).Error
}

func (r *queueRepo) MarkFailed(ctx context.Context, jobID domain.JobID, nextAttemptAt time.Time, lastError string) error {
	if len(lastError) > maxLastErrorLen {
		lastError = lastError[:maxLastErrorLen]
	}
	return r.getDB(ctx).WithContext(ctx).Table("queue_jobs").
		Where("id = ?", jobID).
		Updates(map[string]interface{}{
			"status":          string(domain.JobStatusQueued),
			"next_attempt_at": nextAttemptAt,
			"last_error":      lastError,
			"updated_at":      time.Now(),
		}).Error
}

func (r *queueRepo) MarkDead(ctx context.Context, jobID domain.JobID, lastError string) error {
	if len(lastError) > maxLastErrorLen {
		lastError = lastError[:maxLastErrorLen]
	}
	return r.getDB(ctx).WithContext(ctx).Table("queue_jobs").
		Where("id = ?", jobID).
		Updates(map[string]interface{}{
			"status":     string(domain.JobStatusDead),
			"last_error": lastError,
			"updated_at": time.Now(),
		}).Error
}

func (r *queueRepo) RequeueStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.getDB(ctx).WithContext(ctx).Table("queue_jobs").
		Where("status = ? AND updated_at < ?", string(domain.JobStatusInFlight), cutoff).
		Updates(map[string]interface{}{
			"status":          string(domain.JobStatusQueued),
			"next_attempt_at": time.Now(),
			"updated_at":      time.Now(),
		})
	return result.RowsAffected, result.Error
}

func (r *queueRepo) Prune(ctx context.Context, completedBefore, deadBefore time.Time) (int64, error) {
	db := r.getDB(ctx).WithContext(ctx)

	result := db.Table("queue_jobs").
		Where("(status = ? AND completed_at < ?) OR (status = ? AND updated_at < ?)",
			string(domain.JobStatusCompleted), completedBefore,
			string(domain.JobStatusDead), deadBefore).
		Delete(&types.QueueJob{})
	return result.RowsAffected, result.Error
}

func (r *queueRepo) GetByID(ctx context.Context, jobID domain.JobID) (*domain.Job, error) {
	var job types.QueueJob
	err := r.getDB(ctx).WithContext(ctx).Table("queue_jobs").
		Where("id = ?", jobID).
		First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return mapper.QueueJobStorage2Domain(job), nil
}
