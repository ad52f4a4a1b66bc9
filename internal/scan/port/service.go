package port

import (
	"context"

	"github.com/clearpath-sec/cloudscan/internal/scan/domain"
)

type Service interface {
	// SubmitScan validates the request, persists the scan as queued and
	// enqueues a job for it.
	SubmitScan(ctx context.Context, scan domain.Scan) (domain.ScanID, error)

	GetScan(ctx context.Context, scanID domain.ScanID, userID string) (*domain.Scan, error)
	ListScans(ctx context.Context, filter domain.ScanFilter) ([]domain.Scan, error)
	GetScanFindings(ctx context.Context, scanID domain.ScanID, userID string) ([]domain.Finding, error)

	// Lifecycle transitions used by the scan processor. Each persists the
	// new state and returns the updated scan.
	MarkInProgress(ctx context.Context, scanID domain.ScanID) (*domain.Scan, error)
	MarkParsingOutput(ctx context.Context, scanID domain.ScanID) (*domain.Scan, error)
	MarkCompleted(ctx context.Context, scanID domain.ScanID) (*domain.Scan, error)
	MarkFailed(ctx context.Context, scanID domain.ScanID, status domain.Status, errorMessage string) (*domain.Scan, error)

	SaveFindings(ctx context.Context, scanID domain.ScanID, findings []domain.Finding) error
}
