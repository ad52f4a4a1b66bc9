package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/clearpath-sec/cloudscan/internal/scan/domain"
	scanPort "github.com/clearpath-sec/cloudscan/internal/scan/port"
	"github.com/clearpath-sec/cloudscan/pkg/adapter/storage/types"
	"github.com/clearpath-sec/cloudscan/pkg/adapter/storage/types/mapper"
	appCtx "github.com/clearpath-sec/cloudscan/pkg/context"
)

type scanRepo struct {
	db *gorm.DB
}

func NewScanRepo(db *gorm.DB) scanPort.Repo {
	return &scanRepo{db: db}
}

func (r *scanRepo) getDB(ctx context.Context) *gorm.DB {
	if db := appCtx.GetDB(ctx); db != nil {
		return db
	}
	return r.db
}

func (r *scanRepo) Create(ctx context.Context, scan domain.Scan) (domain.ScanID, error) {
	s := mapper.ScanDomain2Storage(scan)
	s.CreatedAt = time.Now()
	s.UpdatedAt = nil
	s.DeletedAt = nil

	if err := r.getDB(ctx).WithContext(ctx).Table("scans").Create(&s).Error; err != nil {
		return 0, err
	}
	return s.ID, nil
}

func (r *scanRepo) GetByID(ctx context.Context, scanID domain.ScanID) (*domain.Scan, error) {
	var scan types.Scan
	err := r.getDB(ctx).WithContext(ctx).Table("scans").
		Where("id = ? AND deleted_at IS NULL", scanID).
		First(&scan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return mapper.ScanStorage2Domain(scan), nil
}

func (r *scanRepo) Get(ctx context.Context, filter domain.ScanFilter) ([]domain.Scan, error) {
	q := r.getDB(ctx).WithContext(ctx).Table("scans").Where("deleted_at IS NULL")
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.Provider != "" {
		q = q.Where("provider = ?", string(filter.Provider))
	}
	if filter.Tool != "" {
		q = q.Where("tool = ?", string(filter.Tool))
	}

	var rows []types.Scan
	if err := q.Order("created_at desc").Find(&rows).Error; err != nil {
		return nil, err
	}

	scans := make([]domain.Scan, 0, len(rows))
	for _, row := range rows {
		scans = append(scans, *mapper.ScanStorage2Domain(row))
	}
	return scans, nil
}

func (r *scanRepo) Update(ctx context.Context, scan domain.Scan) error {
	s := mapper.ScanDomain2Storage(scan)
	now := time.Now()

	return r.getDB(ctx).WithContext(ctx).Table("scans").
		Where("id = ? AND deleted_at IS NULL", scan.ID).
		Updates(map[string]interface{}{
			"status":        s.Status,
			"error_message": s.ErrorMessage,
			"started_at":    s.StartedAt,
			"completed_at":  s.CompletedAt,
			"updated_at":    now,
		}).Error
}

func (r *scanRepo) SaveFindings(ctx context.Context, findings []domain.Finding) error {
	if len(findings) == 0 {
		return nil
	}

	now := time.Now()
	rows := make([]*types.Finding, 0, len(findings))
	for _, finding := range findings {
		row := mapper.FindingDomain2Storage(finding)
		row.CreatedAt = now
		rows = append(rows, row)
	}

	return r.getDB(ctx).WithContext(ctx).Table("findings").CreateInBatches(rows, 100).Error
}

func (r *scanRepo) GetFindings(ctx context.Context, scanID domain.ScanID) ([]domain.Finding, error) {
	var rows []types.Finding
	err := r.getDB(ctx).WithContext(ctx).Table("findings").
		Where("scan_id = ?", scanID).
		Order("id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	findings := make([]domain.Finding, 0, len(rows))
	for _, row := range rows {
		findings = append(findings, *mapper.FindingStorage2Domain(row))
	}
	return findings, nil
}
