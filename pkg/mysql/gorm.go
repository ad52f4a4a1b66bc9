package mysql

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/clearpath-sec/cloudscan/pkg/adapter/storage/types"
	pkgLogger "github.com/clearpath-sec/cloudscan/pkg/logger"
)

type DBConnOptions struct {
	Host     string
	Port     uint
	Username string
	Password string
	Database string
}

func NewMysqlConnection(cfg DBConnOptions) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Username,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
	)
	return gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Discard,
	})
}

func GormMigrations(db *gorm.DB) {
	err := db.AutoMigrate(
		&types.User{},
		&types.Session{},
		&types.CloudCredential{},
		&types.ScanPolicy{},
		&types.Scan{},
		&types.Finding{},
		&types.ScheduledScan{},
		&types.QueueJob{},
	)
	if err != nil {
		pkgLogger.Fatal("failed to migrate models: %v", err)
	}
}

func SeedData(db *gorm.DB, hashPassword func(string) (string, error)) {
	var count int64
	db.Model(&types.User{}).Count(&count)
	if count == 0 { // Only insert if the table is empty
		hpassword, err := hashPassword("P@ssw0rd")
		if err != nil {
			pkgLogger.Error("Failed to hash password in seed data: %v", err)
			return
		}

		emptyFirstName := ""
		emptyLastName := ""

		user := types.User{
			ID:        uuid.New().String(),
			FirstName: &emptyFirstName,
			LastName:  &emptyLastName,
			Username:  "admin",
			Password:  hpassword,
			CreatedAt: time.Now(),
			Sessions:  []types.Session{},
		}

		result := db.Create(&user)
		if result.Error != nil {
			pkgLogger.Error("Failed to seed database: %v", result.Error)
			return
		}
		pkgLogger.Info("Seed data inserted successfully.")
	} else {
		pkgLogger.Info("Database already seeded, skipping.")
	}
}
