package port

import (
	"context"
	"time"

	"github.com/clearpath-sec/cloudscan/internal/schedule/domain"
)

type Service interface {
	CreateSchedule(ctx context.Context, schedule domain.ScheduledScan) (domain.ScheduleID, error)
	GetSchedule(ctx context.Context, scheduleID domain.ScheduleID, userID string) (*domain.ScheduledScan, error)
	ListSchedules(ctx context.Context, filter domain.ScheduleFilter) ([]domain.ScheduledScan, error)
	UpdateSchedule(ctx context.Context, schedule domain.ScheduledScan) error
	DeleteSchedule(ctx context.Context, scheduleID domain.ScheduleID, userID string) error
	SetScheduleEnabled(ctx context.Context, scheduleID domain.ScheduleID, userID string, enabled bool) error

	// MarkFired records a trigger execution.
	MarkFired(ctx context.Context, scheduleID domain.ScheduleID, lastRunAt time.Time, nextRunAt *time.Time) error
}
