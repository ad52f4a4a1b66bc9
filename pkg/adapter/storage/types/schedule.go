package types

import (
	"time"
)

type ScheduledScan struct {
	ID           int64      `gorm:"column:id;primaryKey;autoIncrement"`
	UserID       string     `gorm:"column:user_id;size:50;not null;index"`
	Name         string     `gorm:"column:name;size:255;not null"`
	CredentialID int64      `gorm:"column:credential_id;not null"`
	PolicyID     *int64     `gorm:"column:policy_id"`
	Tool         string     `gorm:"column:tool;size:50;not null"`
	Target       string     `gorm:"column:target;size:500"`
	CronExpr     string     `gorm:"column:cron_expr;size:100;not null"`
	IsEnabled    bool       `gorm:"column:is_enabled;default:1;index"`
	LastRunAt    *time.Time `gorm:"column:last_run_at;type:datetime"`
	NextRunAt    *time.Time `gorm:"column:next_run_at;type:datetime"`
	CreatedAt    time.Time  `gorm:"column:created_at;type:datetime;not null"`
	UpdatedAt    *time.Time `gorm:"column:updated_at;type:datetime"`
	DeletedAt    *time.Time `gorm:"index"`

	User       User            `gorm:"foreignKey:UserID"`
	Credential CloudCredential `gorm:"foreignKey:CredentialID"`
	Policy     *ScanPolicy     `gorm:"foreignKey:PolicyID"`
}
