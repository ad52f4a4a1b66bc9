package types

import (
	"time"
)

type CloudCredential struct {
	ID               int64      `gorm:"column:id;primaryKey;autoIncrement"`
	UserID           string     `gorm:"column:user_id;size:50;not null;index"`
	Name             string     `gorm:"column:name;size:255;not null"`
	Provider         string     `gorm:"column:provider;size:20;not null;index"`
	EncryptedPayload string     `gorm:"column:encrypted_payload;type:text;not null"`
	CreatedAt        time.Time  `gorm:"column:created_at;type:datetime;not null"`
	UpdatedAt        *time.Time `gorm:"column:updated_at;type:datetime"`
	DeletedAt        *time.Time `gorm:"index"`

	User User `gorm:"foreignKey:UserID"`
}
