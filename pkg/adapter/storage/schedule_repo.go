package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/clearpath-sec/cloudscan/internal/schedule/domain"
	schedulePort "github.com/clearpath-sec/cloudscan/internal/schedule/port"
	"github.com/clearpath-sec/cloudscan/pkg/adapter/storage/types"
	"github.com/clearpath-sec/cloudscan/pkg/adapter/storage/types/mapper"
	appCtx "github.com/clearpath-sec/cloudscan/pkg/context"
)

type scheduleRepo struct {
	db *gorm.DB
}

func NewScheduleRepo(db *gorm.DB) schedulePort.Repo {
	return &scheduleRepo{db: db}
}

func (r *scheduleRepo) getDB(ctx context.Context) *gorm.DB {
	if db := appCtx.GetDB(ctx); db != nil {
		return db
	}
	return r.db
}

func (r *scheduleRepo) Create(ctx context.Context, schedule domain.ScheduledScan) (domain.ScheduleID, error) {
	s := mapper.ScheduleDomain2Storage(schedule)
	s.CreatedAt = time.Now()
	s.UpdatedAt = nil
	s.DeletedAt = nil

	if err := r.getDB(ctx).WithContext(ctx).Table("scheduled_scans").Create(&s).Error; err != nil {
		return 0, err
	}
	return s.ID, nil
}

func (r *scheduleRepo) GetByID(ctx context.Context, scheduleID domain.ScheduleID) (*domain.ScheduledScan, error) {
	var schedule types.ScheduledScan
	err := r.getDB(ctx).WithContext(ctx).Table("scheduled_scans").
		Where("id = ? AND deleted_at IS NULL", scheduleID).
		First(&schedule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return mapper.ScheduleStorage2Domain(schedule), nil
}

func (r *scheduleRepo) Get(ctx context.Context, filter domain.ScheduleFilter) ([]domain.ScheduledScan, error) {
	q := r.getDB(ctx).WithContext(ctx).Table("scheduled_scans").Where("deleted_at IS NULL")
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.IsEnabled != nil {
		q = q.Where("is_enabled = ?", *filter.IsEnabled)
	}

	var rows []types.ScheduledScan
	if err := q.Order("created_at desc").Find(&rows).Error; err != nil {
		return nil, err
	}

	schedules := make([]domain.ScheduledScan, 0, len(rows))
	for _, row := range rows {
		schedules = append(schedules, *mapper.ScheduleStorage2Domain(row))
	}
	return schedules, nil
}

func (r *scheduleRepo) Update(ctx context.Context, schedule domain.ScheduledScan) error {
	now := time.Now()
	return r.getDB(ctx).WithContext(ctx).Table("scheduled_scans").
		Where("id = ? AND deleted_at IS NULL", schedule.ID).
		Updates(map[string]interface{}{
			"name":          schedule.Name,
			"credential_id": schedule.CredentialID,
			"policy_id":     schedule.PolicyID,
			"tool":          string(schedule.Tool),
			"target":        schedule.Target,
			"cron_expr":     schedule.CronExpr,
			"is_enabled":    schedule.IsEnabled,
			"next_run_at":   schedule.NextRunAt,
			"updated_at":    now,
		}).Error
}

func (r *scheduleRepo) Delete(ctx context.Context, scheduleID domain.ScheduleID) error {
	now := time.Now()
	return r.getDB(ctx).WithContext(ctx).Table("scheduled_scans").
		Where("id = ? AND deleted_at IS NULL", scheduleID).
		Update("deleted_at", now).Error
}

func (r *scheduleRepo) UpdateRunTimes(ctx context.Context, scheduleID domain.ScheduleID, lastRunAt time.Time, nextRunAt *time.Time) error {
	return r.getDB(ctx).WithContext(ctx).Table("scheduled_scans").
		Where("id = ? AND deleted_at IS NULL", scheduleID).
		Updates(map[string]interface{}{
			"last_run_at": lastRunAt,
			"next_run_at": nextRunAt,
			"updated_at":  time.Now(),
		}).Error
}
