package port

import (
	"context"
	"time"

	"github.com/clearpath-sec/cloudscan/internal/schedule/domain"
)

type Repo interface {
	Create(ctx context.Context, schedule domain.ScheduledScan) (domain.ScheduleID, error)
	GetByID(ctx context.Context, scheduleID domain.ScheduleID) (*domain.ScheduledScan, error)
	Get(ctx context.Context, filter domain.ScheduleFilter) ([]domain.ScheduledScan, error)
	Update(ctx context.Context, schedule domain.ScheduledScan) error
	Delete(ctx context.Context, scheduleID domain.ScheduleID) error
	UpdateRunTimes(ctx context.Context, scheduleID domain.ScheduleID, lastRunAt time.Time, nextRunAt *time.Time) error
}
