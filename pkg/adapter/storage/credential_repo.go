package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/clearpath-sec/cloudscan/internal/credential/domain"
	credentialPort "github.com/clearpath-sec/cloudscan/internal/credential/port"
	"github.com/clearpath-sec/cloudscan/pkg/adapter/storage/types"
	"github.com/clearpath-sec/cloudscan/pkg/adapter/storage/types/mapper"
	appCtx "github.com/clearpath-sec/cloudscan/pkg/context"
)

type credentialRepo struct {
	db *gorm.DB
}

func NewCredentialRepo(db *gorm.DB) credentialPort.Repo {
	return &credentialRepo{db: db}
}

func (r *credentialRepo) getDB(ctx context.Context) *gorm.DB {
	if db := appCtx.GetDB(ctx); db != nil {
		return db
	}
	return r.db
}

func (r *credentialRepo) Create(ctx context.Context, credential domain.Credential) (domain.CredentialID, error) {
	c := mapper.CredentialDomain2Storage(credential)
	c.CreatedAt = time.Now()
	c.UpdatedAt = nil
	c.DeletedAt = nil

	if err := r.getDB(ctx).WithContext(ctx).Table("cloud_credentials").Create(&c).Error; err != nil {
		return 0, err
	}
	return c.ID, nil
}

func (r *credentialRepo) GetByID(ctx context.Context, credentialID domain.CredentialID) (*domain.Credential, error) {
	var credential types.CloudCredential
	err := r.getDB(ctx).WithContext(ctx).Table("cloud_credentials").
		Where("id = ? AND deleted_at IS NULL", credentialID).
		First(&credential).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return mapper.CredentialStorage2Domain(credential), nil
}

func (r *credentialRepo) Get(ctx context.Context, filter domain.CredentialFilter) ([]domain.Credential, error) {
	q := r.getDB(ctx).WithContext(ctx).Table("cloud_credentials").Where("deleted_at IS NULL")
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Provider != "" {
		q = q.Where("provider = ?", string(filter.Provider))
	}

	var rows []types.CloudCredential
	if err := q.Order("created_at desc").Find(&rows).Error; err != nil {
		return nil, err
	}

	credentials := make([]domain.Credential, 0, len(rows))
	for _, row := range rows {
		credentials = append(credentials, *mapper.CredentialStorage2Domain(row))
	}
	return credentials, nil
}

func (r *credentialRepo) Update(ctx context.Context, credential domain.Credential) error {
	now := time.Now()
	return r.getDB(ctx).WithContext(ctx).Table("cloud_credentials").
		Where("id = ? AND deleted_at IS NULL", credential.ID).
		Updates(map[string]interface{}{
			"name":              credential.Name,
			"provider":          string(credential.Provider),
			"encrypted_payload": credential.EncryptedPayload,
			"updated_at":        now,
		}).Error
}

func (r *credentialRepo) Delete(ctx context.Context, credentialID domain.CredentialID) error {
	now := time.Now()
	return r.getDB(ctx).WithContext(ctx).Table("cloud_credentials").
		Where("id = ? AND deleted_at IS NULL", credentialID).
		Update("deleted_at", now).Error
}
