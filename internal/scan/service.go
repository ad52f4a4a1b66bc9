package scan

import (
	"context"
	"errors"
	"time"

	credentialPort "github.com/clearpath-sec/cloudscan/internal/credential/port"
	"github.com/clearpath-sec/cloudscan/internal/policy"
	policyPort "github.com/clearpath-sec/cloudscan/internal/policy/port"
	queueDomain "github.com/clearpath-sec/cloudscan/internal/queue/domain"
	queuePort "github.com/clearpath-sec/cloudscan/internal/queue/port"
	"github.com/clearpath-sec/cloudscan/internal/scan/domain"
	scanPort "github.com/clearpath-sec/cloudscan/internal/scan/port"
	"github.com/clearpath-sec/cloudscan/pkg/logger"
)

var (
	ErrScanOnCreate       = errors.New("error on creating new scan")
	ErrScanNotFound       = errors.New("scan not found")
	ErrInvalidScanInput   = errors.New("invalid scan input")
	ErrToolProviderPair   = errors.New("tool does not support the credential provider")
	ErrPolicyMismatch     = errors.New("scan policy provider or tool does not match scan request")
	ErrInvalidTransition  = errors.New("invalid scan status transition")
	ErrScanOnUpdateStatus = errors.New("error on updating scan status")
)

type scanService struct {
	repo        scanPort.Repo
	credentials credentialPort.Service
	policies    policyPort.Service
	enqueuer    queuePort.Enqueuer
}

func NewScanService(repo scanPort.Repo, credentials credentialPort.Service, policies policyPort.Service, enqueuer queuePort.Enqueuer) scanPort.Service {
	return &scanService{
		repo:        repo,
		credentials: credentials,
		policies:    policies,
		enqueuer:    enqueuer,
	}
}

func (s *scanService) SubmitScan(ctx context.Context, scan domain.Scan) (domain.ScanID, error) {
	if scan.UserID == "" || scan.CredentialID == 0 {
		return 0, ErrInvalidScanInput
	}

	scan.Tool = domain.NormalizeTool(string(scan.Tool))
	if scan.Tool == "" {
		return 0, ErrInvalidScanInput
	}

	credential, err := s.credentials.GetCredential(ctx, scan.CredentialID, scan.UserID)
	if err != nil {
		return 0, err
	}

	// The scan's provider always comes from the credential, never from the
	// request.
	scan.Provider = credential.Provider

	if !policy.ToolSupportsProvider(scan.Tool, scan.Provider) {
		return 0, ErrToolProviderPair
	}

	if scan.PolicyID != nil {
		scanPolicy, err := s.policies.GetPolicy(ctx, *scan.PolicyID, scan.UserID)
		if err != nil {
			return 0, err
		}
		if scanPolicy.Provider != scan.Provider || scanPolicy.Tool != scan.Tool {
			return 0, ErrPolicyMismatch
		}
	}

	scan.Status = domain.StatusQueued
	scan.ErrorMessage = ""
	scan.StartedAt = nil
	scan.CompletedAt = nil

	scanID, err := s.repo.Create(ctx, scan)
	if err != nil {
		logger.ErrorContext(ctx, "failed to create scan: %v", err)
		return 0, ErrScanOnCreate
	}

	_, err = s.enqueuer.Enqueue(ctx, queueDomain.ScanJobPayload{
		ScanID:       scanID,
		UserID:       scan.UserID,
		CredentialID: scan.CredentialID,
		Provider:     scan.Provider,
		Tool:         scan.Tool,
		Target:       scan.Target,
		PolicyID:     scan.PolicyID,
	})
	if err != nil {
		// The scan row exists but will never run. Record the failure so it
		// does not sit in queued forever.
		logger.ErrorContext(ctx, "failed to enqueue scan %d: %v", scanID, err)
		if _, markErr := s.MarkFailed(ctx, scanID, domain.StatusFailed, "failed to enqueue scan job"); markErr != nil {
			logger.ErrorContext(ctx, "failed to mark unenqueued scan %d failed: %v", scanID, markErr)
		}
		return 0, ErrScanOnCreate
	}

	logger.InfoContext(ctx, "scan %d submitted (tool %s, provider %s)", scanID, scan.Tool, scan.Provider)
	return scanID, nil
}

func (s *scanService) GetScan(ctx context.Context, scanID domain.ScanID, userID string) (*domain.Scan, error) {
	scan, err := s.repo.GetByID(ctx, scanID)
	if err != nil {
		return nil, err
	}

	if scan == nil || scan.UserID != userID {
		return nil, ErrScanNotFound
	}

	return scan, nil
}

func (s *scanService) ListScans(ctx context.Context, filter domain.ScanFilter) ([]domain.Scan, error) {
	return s.repo.Get(ctx, filter)
}

func (s *scanService) GetScanFindings(ctx context.Context, scanID domain.ScanID, userID string) ([]domain.Finding, error) {
	if _, err := s.GetScan(ctx, scanID, userID); err != nil {
		return nil, err
	}
	return s.repo.GetFindings(ctx, scanID)
}

// allowedTransitions encodes the lifecycle order. Failure states can
// re-enter in_progress because the queue retries failed jobs. Completed is
// final.
var allowedTransitions = map[domain.Status][]domain.Status{
	domain.StatusQueued:          {domain.StatusInProgress},
	domain.StatusInProgress:      {domain.StatusParsingOutput},
	domain.StatusParsingOutput:   {domain.StatusCompleted},
	domain.StatusFailedAuth:      {domain.StatusInProgress},
	domain.StatusFailedExecution: {domain.StatusInProgress},
	domain.StatusFailedParsing:   {domain.StatusInProgress},
	domain.StatusFailed:          {domain.StatusInProgress},
}

func transitionAllowed(from, to domain.Status) bool {
	if to.IsFailure() {
		return from == domain.StatusInProgress || from == domain.StatusParsingOutput || from == domain.StatusQueued
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s *scanService) transition(ctx context.Context, scanID domain.ScanID, to domain.Status, errorMessage string) (*domain.Scan, error) {
	scan, err := s.repo.GetByID(ctx, scanID)
	if err != nil {
		return nil, err
	}
	if scan == nil {
		return nil, ErrScanNotFound
	}

	if !transitionAllowed(scan.Status, to) {
		logger.WarnContext(ctx, "rejected scan %d transition %s -> %s", scanID, scan.Status, to)
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	scan.Status = to

	switch {
	case to == domain.StatusInProgress:
		scan.StartedAt = &now
		scan.CompletedAt = nil
		scan.ErrorMessage = ""
	case to == domain.StatusCompleted:
		scan.CompletedAt = &now
		scan.ErrorMessage = ""
	case to.IsFailure():
		scan.CompletedAt = &now
		scan.ErrorMessage = domain.TruncateErrorMessage(errorMessage)
	}

	if err := s.repo.Update(ctx, *scan); err != nil {
		logger.ErrorContext(ctx, "failed to persist scan %d transition to %s: %v", scanID, to, err)
		return nil, ErrScanOnUpdateStatus
	}

	logger.InfoContext(ctx, "scan %d is now %s", scanID, to)
	return scan, nil
}

func (s *scanService) MarkInProgress(ctx context.Context, scanID domain.ScanID) (*domain.Scan, error) {
	return s.transition(ctx, scanID, domain.StatusInProgress, "")
}

func (s *scanService) MarkParsingOutput(ctx context.Context, scanID domain.ScanID) (*domain.Scan, error) {
	return s.transition(ctx, scanID, domain.StatusParsingOutput, "")
}

func (s *scanService) MarkCompleted(ctx context.Context, scanID domain.ScanID) (*domain.Scan, error) {
	return s.transition(ctx, scanID, domain.StatusCompleted, "")
}

func (s *scanService) MarkFailed(ctx context.Context, scanID domain.ScanID, status domain.Status, errorMessage string) (*domain.Scan, error) {
	if !status.IsFailure() {
		return nil, ErrInvalidTransition
	}
	return s.transition(ctx, scanID, status, errorMessage)
}

func (s *scanService) SaveFindings(ctx context.Context, scanID domain.ScanID, findings []domain.Finding) error {
	if len(findings) == 0 {
		return nil
	}

	for i := range findings {
		findings[i].ScanID = scanID
	}

	return s.repo.SaveFindings(ctx, findings)
}
