package types

import (
	"time"
)

type ScanPolicy struct {
	ID          int64      `gorm:"column:id;primaryKey;autoIncrement"`
	UserID      string     `gorm:"column:user_id;size:50;not null;index"`
	Name        string     `gorm:"column:name;size:255;not null"`
	Description string     `gorm:"column:description;type:text"`
	Provider    string     `gorm:"column:provider;size:20;not null"`
	Tool        string     `gorm:"column:tool;size:50;not null"`
	Definition  string     `gorm:"column:definition;type:json"`
	CreatedAt   time.Time  `gorm:"column:created_at;type:datetime;not null"`
	UpdatedAt   *time.Time `gorm:"column:updated_at;type:datetime"`
	DeletedAt   *time.Time `gorm:"index"`

	User User `gorm:"foreignKey:UserID"`
}
