package schedule

import (
	"context"
	"errors"
	"time"

	credentialPort "github.com/clearpath-sec/cloudscan/internal/credential/port"
	"github.com/clearpath-sec/cloudscan/internal/policy"
	scanDomain "github.com/clearpath-sec/cloudscan/internal/scan/domain"
	"github.com/clearpath-sec/cloudscan/internal/schedule/domain"
	schedulePort "github.com/clearpath-sec/cloudscan/internal/schedule/port"
	"github.com/clearpath-sec/cloudscan/pkg/logger"
)

var (
	ErrScheduleOnCreate     = errors.New("error on creating new schedule")
	ErrScheduleOnUpdate     = errors.New("error on updating schedule")
	ErrScheduleOnDelete     = errors.New("error on deleting schedule")
	ErrScheduleNotFound     = errors.New("schedule not found")
	ErrInvalidScheduleInput = errors.New("invalid schedule input")
	ErrInvalidCronExpr      = errors.New("invalid cron expression")
)

// Trigger keeps the in-memory cron registry in sync with persisted
// schedules.
type Trigger interface {
	AddOrUpdate(schedule domain.ScheduledScan) error
	Remove(scheduleID domain.ScheduleID)
}

type scheduleService struct {
	repo        schedulePort.Repo
	credentials credentialPort.Service
	trigger     Trigger
}

func NewScheduleService(repo schedulePort.Repo, credentials credentialPort.Service) schedulePort.Service {
	return &scheduleService{
		repo:        repo,
		credentials: credentials,
	}
}

// SetTrigger attaches the cron registry. Wired once at startup.
func SetTrigger(service schedulePort.Service, trigger Trigger) {
	if s, ok := service.(*scheduleService); ok {
		s.trigger = trigger
	}
}

func (s *scheduleService) validateSchedule(ctx context.Context, schedule *domain.ScheduledScan) error {
	if schedule.Name == "" || schedule.UserID == "" || schedule.CredentialID == 0 {
		return ErrInvalidScheduleInput
	}

	schedule.Tool = scanDomain.NormalizeTool(string(schedule.Tool))

	credential, err := s.credentials.GetCredential(ctx, schedule.CredentialID, schedule.UserID)
	if err != nil {
		return err
	}
	if !policy.ToolSupportsProvider(schedule.Tool, credential.Provider) {
		return ErrInvalidScheduleInput
	}

	if _, err := ParseCronExpr(schedule.CronExpr); err != nil {
		return ErrInvalidCronExpr
	}

	return nil
}

// nextRun computes the schedule's next fire time from its cron expression.
func nextRun(cronExpr string) *time.Time {
	parsed, err := ParseCronExpr(cronExpr)
	if err != nil {
		return nil
	}
	next := parsed.Next(time.Now())
	return &next
}

func (s *scheduleService) CreateSchedule(ctx context.Context, schedule domain.ScheduledScan) (domain.ScheduleID, error) {
	if err := s.validateSchedule(ctx, &schedule); err != nil {
		return 0, err
	}

	schedule.NextRunAt = nil
	if schedule.IsEnabled {
		schedule.NextRunAt = nextRun(schedule.CronExpr)
	}

	scheduleID, err := s.repo.Create(ctx, schedule)
	if err != nil {
		logger.ErrorContext(ctx, "failed to create schedule: %v", err)
		return 0, ErrScheduleOnCreate
	}
	schedule.ID = scheduleID

	s.syncTrigger(schedule)
	return scheduleID, nil
}

func (s *scheduleService) GetSchedule(ctx context.Context, scheduleID domain.ScheduleID, userID string) (*domain.ScheduledScan, error) {
	schedule, err := s.repo.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	if schedule == nil || schedule.UserID != userID {
		return nil, ErrScheduleNotFound
	}

	return schedule, nil
}

func (s *scheduleService) ListSchedules(ctx context.Context, filter domain.ScheduleFilter) ([]domain.ScheduledScan, error) {
	return s.repo.Get(ctx, filter)
}

func (s *scheduleService) UpdateSchedule(ctx context.Context, schedule domain.ScheduledScan) error {
	existing, err := s.GetSchedule(ctx, schedule.ID, schedule.UserID)
	if err != nil {
		return err
	}

	if schedule.Name == "" {
		schedule.Name = existing.Name
	}
	if schedule.CronExpr == "" {
		schedule.CronExpr = existing.CronExpr
	}
	if schedule.Tool == "" {
		schedule.Tool = existing.Tool
	}
	if schedule.CredentialID == 0 {
		schedule.CredentialID = existing.CredentialID
	}
	schedule.LastRunAt = existing.LastRunAt

	if err := s.validateSchedule(ctx, &schedule); err != nil {
		return err
	}

	schedule.NextRunAt = nil
	if schedule.IsEnabled {
		schedule.NextRunAt = nextRun(schedule.CronExpr)
	}

	if err := s.repo.Update(ctx, schedule); err != nil {
		logger.ErrorContext(ctx, "failed to update schedule %d: %v", schedule.ID, err)
		return ErrScheduleOnUpdate
	}

	s.syncTrigger(schedule)
	return nil
}

func (s *scheduleService) DeleteSchedule(ctx context.Context, scheduleID domain.ScheduleID, userID string) error {
	if _, err := s.GetSchedule(ctx, scheduleID, userID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, scheduleID); err != nil {
		logger.ErrorContext(ctx, "failed to delete schedule %d: %v", scheduleID, err)
		return ErrScheduleOnDelete
	}

	if s.trigger != nil {
		s.trigger.Remove(scheduleID)
	}
	return nil
}

func (s *scheduleService) SetScheduleEnabled(ctx context.Context, scheduleID domain.ScheduleID, userID string, enabled bool) error {
	schedule, err := s.GetSchedule(ctx, scheduleID, userID)
	if err != nil {
		return err
	}

	if schedule.IsEnabled == enabled {
		return nil
	}

	schedule.IsEnabled = enabled
	schedule.NextRunAt = nil
	if enabled {
		schedule.NextRunAt = nextRun(schedule.CronExpr)
	}

	if err := s.repo.Update(ctx, *schedule); err != nil {
		logger.ErrorContext(ctx, "failed to toggle schedule %d: %v", scheduleID, err)
		return ErrScheduleOnUpdate
	}

	s.syncTrigger(*schedule)
	return nil
}

func (s *scheduleService) MarkFired(ctx context.Context, scheduleID domain.ScheduleID, lastRunAt time.Time, nextRunAt *time.Time) error {
	return s.repo.UpdateRunTimes(ctx, scheduleID, lastRunAt, nextRunAt)
}

func (s *scheduleService) syncTrigger(schedule domain.ScheduledScan) {
	if s.trigger == nil {
		return
	}

	if !schedule.IsEnabled {
		s.trigger.Remove(schedule.ID)
		return
	}

	if err := s.trigger.AddOrUpdate(schedule); err != nil {
		logger.Error("failed to register cron trigger for schedule %d: %v", schedule.ID, err)
	}
}
