package domain

import (
	"time"

	credentialDomain "github.com/clearpath-sec/cloudscan/internal/credential/domain"
	scanDomain "github.com/clearpath-sec/cloudscan/internal/scan/domain"
)

type ScheduleID = int64

// ScheduledScan fires a scan submission on a cron cadence. Disabled
// schedules keep their definition but never fire.
type ScheduledScan struct {
	ID           ScheduleID
	UserID       string
	Name         string
	CredentialID credentialDomain.CredentialID
	PolicyID     *int64
	Tool         scanDomain.Tool
	Target       string
	CronExpr     string
	IsEnabled    bool
	LastRunAt    *time.Time
	NextRunAt    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    time.Time
}

type ScheduleFilter struct {
	UserID    string
	IsEnabled *bool
}
