package types

import (
	"time"
)

type QueueJob struct {
	ID            int64      `gorm:"column:id;primaryKey;autoIncrement"`
	Payload       string     `gorm:"column:payload;type:json;not null"`
	Status        string     `gorm:"column:status;size:20;not null;index:idx_queue_due"`
	Attempts      uint       `gorm:"column:attempts;not null;default:0"`
	MaxAttempts   uint       `gorm:"column:max_attempts;not null"`
	NextAttemptAt time.Time  `gorm:"column:next_attempt_at;type:datetime;not null;index:idx_queue_due"`
	LastError     *string    `gorm:"column:last_error;size:1024"`
	CreatedAt     time.Time  `gorm:"column:created_at;type:datetime;not null"`
	UpdatedAt     *time.Time `gorm:"column:updated_at;type:datetime"`
	CompletedAt   *time.Time `gorm:"column:completed_at;type:datetime"`
}
