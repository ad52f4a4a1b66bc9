package mapper

import (
	scanDomain "github.com/clearpath-sec/cloudscan/internal/scan/domain"
	"github.com/clearpath-sec/cloudscan/internal/schedule/domain"
	"github.com/clearpath-sec/cloudscan/pkg/adapter/storage/types"
)

func ScheduleDomain2Storage(schedule domain.ScheduledScan) *types.ScheduledScan {
	return &types.ScheduledScan{
		ID:           schedule.ID,
		UserID:       schedule.UserID,
		Name:         schedule.Name,
		CredentialID: schedule.CredentialID,
		PolicyID:     schedule.PolicyID,
		Tool:         string(schedule.Tool),
		Target:       schedule.Target,
		CronExpr:     schedule.CronExpr,
		IsEnabled:    schedule.IsEnabled,
		LastRunAt:    schedule.LastRunAt,
		NextRunAt:    schedule.NextRunAt,
		CreatedAt:    schedule.CreatedAt,
		UpdatedAt:    timePtrOrNil(schedule.UpdatedAt),
		DeletedAt:    timePtrOrNil(schedule.DeletedAt),
	}
}

func ScheduleStorage2Domain(schedule types.ScheduledScan) *domain.ScheduledScan {
	return &domain.ScheduledScan{
		ID:           schedule.ID,
		UserID:       schedule.UserID,
		Name:         schedule.Name,
		CredentialID: schedule.CredentialID,
		PolicyID:     schedule.PolicyID,
		Tool:         scanDomain.Tool(schedule.Tool),
		Target:       schedule.Target,
		CronExpr:     schedule.CronExpr,
		IsEnabled:    schedule.IsEnabled,
		LastRunAt:    schedule.LastRunAt,
		NextRunAt:    schedule.NextRunAt,
		CreatedAt:    schedule.CreatedAt,
		UpdatedAt:    timeOrZero(schedule.UpdatedAt),
		DeletedAt:    timeOrZero(schedule.DeletedAt),
	}
}
