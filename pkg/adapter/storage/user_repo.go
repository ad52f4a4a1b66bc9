package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clearpath-sec/cloudscan/internal/user/domain"
	userPort "github.com/clearpath-sec/cloudscan/internal/user/port"
	"github.com/clearpath-sec/cloudscan/pkg/adapter/storage/types"
	"github.com/clearpath-sec/cloudscan/pkg/adapter/storage/types/mapper"
	appCtx "github.com/clearpath-sec/cloudscan/pkg/context"
)

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) userPort.Repo {
	return &userRepo{
		db: db,
	}
}

func (r *userRepo) getDB(ctx context.Context) *gorm.DB {
	if db := appCtx.GetDB(ctx); db != nil {
		return db
	}
	return r.db
}

func (r *userRepo) Create(ctx context.Context, user domain.User) (domain.UserID, error) {
	u := mapper.UserDomain2Storage(user)
	u.UpdatedAt = nil
	u.DeletedAt = nil

	userID, err := uuid.Parse(u.ID)
	if err != nil {
		return uuid.Nil, err
	}
	return userID, r.getDB(ctx).WithContext(ctx).Table("users").Create(&u).Error
}

func (r *userRepo) GetByUsername(ctx context.Context, filter domain.UserFilter) (*domain.User, error) {
	q := r.getDB(ctx).WithContext(ctx).Table("users").Where("deleted_at IS NULL")
	if len(filter.Username) > 0 {
		q = q.Where("username = ?", filter.Username)
	}
	if len(filter.FirstName) > 0 {
		q = q.Where("first_name = ?", filter.FirstName)
	}
	if len(filter.LastName) > 0 {
		q = q.Where("last_name = ?", filter.LastName)
	}

	var user types.User
	err := q.First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return mapper.UserStorage2Domain(user)
}

func (r *userRepo) StoreSession(ctx context.Context, session domain.Sessions) error {
	s := mapper.UserSessionDomain2Storage(session)
	s.LoggedOutAt = nil
	return r.getDB(ctx).WithContext(ctx).Table("sessions").Create(&s).Error
}

func (r *userRepo) InvalidateSession(ctx context.Context, refreshToken string) error {
	result := r.getDB(ctx).WithContext(ctx).Table("sessions").
		Where("refresh_token = ?", refreshToken).
		Updates(map[string]interface{}{
			"is_login":      false,
			"logged_out_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("session not found")
	}
	return nil
}
