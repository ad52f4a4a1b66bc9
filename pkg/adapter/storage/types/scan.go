package types

import (
	"time"
)

type Scan struct {
	ID           int64      `gorm:"column:id;primaryKey;autoIncrement"`
	UserID       string     `gorm:"column:user_id;size:50;not null;index"`
	CredentialID int64      `gorm:"column:credential_id;not null;index"`
	PolicyID     *int64     `gorm:"column:policy_id;index"`
	Provider     string     `gorm:"column:provider;size:20;not null"`
	Tool         string     `gorm:"column:tool;size:50;not null"`
	Target       string     `gorm:"column:target;size:500"`
	Status       string     `gorm:"column:status;size:30;not null;index"`
	ErrorMessage *string    `gorm:"column:error_message;size:1024"`
	CreatedAt    time.Time  `gorm:"column:created_at;type:datetime;not null"`
	StartedAt    *time.Time `gorm:"column:started_at;type:datetime"`
	CompletedAt  *time.Time `gorm:"column:completed_at;type:datetime"`
	UpdatedAt    *time.Time `gorm:"column:updated_at;type:datetime"`
	DeletedAt    *time.Time `gorm:"index"`

	User       User            `gorm:"foreignKey:UserID"`
	Credential CloudCredential `gorm:"foreignKey:CredentialID"`
	Policy     *ScanPolicy     `gorm:"foreignKey:PolicyID"`
	Findings   []Finding       `gorm:"foreignKey:ScanID"`
}

type Finding struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ScanID         int64     `gorm:"column:scan_id;not null;index"`
	Severity       string    `gorm:"column:severity;size:20;not null;index"`
	Category       string    `gorm:"column:category;size:255;not null"`
	Resource       string    `gorm:"column:resource;size:255;not null"`
	Description    string    `gorm:"column:description;type:text"`
	Recommendation string    `gorm:"column:recommendation;type:text"`
	CreatedAt      time.Time `gorm:"column:created_at;type:datetime;not null"`

	Scan Scan `gorm:"foreignKey:ScanID"`
}
