package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/clearpath-sec/cloudscan/internal/policy/domain"
	policyPort "github.com/clearpath-sec/cloudscan/internal/policy/port"
	"github.com/clearpath-sec/cloudscan/pkg/adapter/storage/types"
	"github.com/clearpath-sec/cloudscan/pkg/adapter/storage/types/mapper"
	appCtx "github.com/clearpath-sec/cloudscan/pkg/context"
)

type policyRepo struct {
	db *gorm.DB
}

func NewPolicyRepo(db *gorm.DB) policyPort.Repo {
	return &policyRepo{db: db}
}

func (r *policyRepo) getDB(ctx context.Context) *gorm.DB {
	if db := appCtx.GetDB(ctx); db != nil {
		return db
	}
	return r.db
}

func (r *policyRepo) Create(ctx context.Context, policy domain.Policy) (domain.PolicyID, error) {
	p, err := mapper.PolicyDomain2Storage(policy)
	if err != nil {
		return 0, err
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = nil
	p.DeletedAt = nil

	if err := r.getDB(ctx).WithContext(ctx).Table("scan_policies").Create(&p).Error; err != nil {
		return 0, err
	}
	return p.ID, nil
}

func (r *policyRepo) GetByID(ctx context.Context, policyID domain.PolicyID) (*domain.Policy, error) {
	var policy types.ScanPolicy
	err := r.getDB(ctx).WithContext(ctx).Table("scan_policies").
		Where("id = ? AND deleted_at IS NULL", policyID).
		First(&policy).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return mapper.PolicyStorage2Domain(policy)
}

func (r *policyRepo) Get(ctx context.Context, filter domain.PolicyFilter) ([]domain.Policy, error) {
	q := r.getDB(ctx).WithContext(ctx).Table("scan_policies").Where("deleted_at IS NULL")
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Provider != "" {
		q = q.Where("provider = ?", string(filter.Provider))
	}
	if filter.Tool != "" {
		q = q.Where("tool = ?", string(filter.Tool))
	}

	var rows []types.ScanPolicy
	if err := q.Order("created_at desc").Find(&rows).Error; err != nil {
		return nil, err
	}

	policies := make([]domain.Policy, 0, len(rows))
	for _, row := range rows {
		policy, err := mapper.PolicyStorage2Domain(row)
		if err != nil {
			return nil, err
		}
		policies = append(policies, *policy)
	}
	return policies, nil
}

func (r *policyRepo) Update(ctx context.Context, policy domain.Policy) error {
	p, err := mapper.PolicyDomain2Storage(policy)
	if err != nil {
		return err
	}

	now := time.Now()
	return r.getDB(ctx).WithContext(ctx).Table("scan_policies").
		Where("id = ? AND deleted_at IS NULL", policy.ID).
		Updates(map[string]interface{}{
			"name":        p.Name,
			"description": p.Description,
			"provider":    p.Provider,
			"tool":        p.Tool,
			"definition":  p.Definition,
			"updated_at":  now,
		}).Error
}

func (r *policyRepo) Delete(ctx context.Context, policyID domain.PolicyID) error {
	now := time.Now()
	return r.getDB(ctx).WithContext(ctx).Table("scan_policies").
		Where("id = ? AND deleted_at IS NULL", policyID).
		Update("deleted_at", now).Error
}
