package port

import (
	"context"

	"github.com/clearpath-sec/cloudscan/internal/scan/domain"
)

type Repo interface {
	Create(ctx context.Context, scan domain.Scan) (domain.ScanID, error)
	GetByID(ctx context.Context, scanID domain.ScanID) (*domain.Scan, error)
	Get(ctx context.Context, filter domain.ScanFilter) ([]domain.Scan, error)
	Update(ctx context.Context, scan domain.Scan) error
	SaveFindings(ctx context.Context, findings []domain.Finding) error
	GetFindings(ctx context.Context, scanID domain.ScanID) ([]domain.Finding, error)
}
