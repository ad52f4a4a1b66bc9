package service

import (
	"context"
	"time"

	credentialDomain "github.com/clearpath-sec/cloudscan/internal/credential/domain"
	"github.com/clearpath-sec/cloudscan/internal/scan"
	"github.com/clearpath-sec/cloudscan/internal/scan/domain"
	scanPort "github.com/clearpath-sec/cloudscan/internal/scan/port"
)

var (
	ErrScanOnCreate     = scan.ErrScanOnCreate
	ErrScanNotFound     = scan.ErrScanNotFound
	ErrInvalidScanInput = scan.ErrInvalidScanInput
	ErrToolProviderPair = scan.ErrToolProviderPair
	ErrPolicyMismatch   = scan.ErrPolicyMismatch
)

type SubmitScanRequest struct {
	CredentialID int64  `json:"credentialId"`
	PolicyID     *int64 `json:"policyId,omitempty"`
	Tool         string `json:"tool"`
	Target       string `json:"target,omitempty"`
}

type ScanResponse struct {
	ID           int64      `json:"id"`
	CredentialID int64      `json:"credentialId"`
	PolicyID     *int64     `json:"policyId,omitempty"`
	Provider     string     `json:"provider"`
	Tool         string     `json:"tool"`
	Target       string     `json:"target,omitempty"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

type ScanListResponse struct {
	Scans []ScanResponse `json:"scans"`
}

type FindingResponse struct {
	ID             int64  `json:"id"`
	ScanID         int64  `json:"scanId"`
	Severity       string `json:"severity"`
	Category       string `json:"category,omitempty"`
	Resource       string `json:"resource,omitempty"`
	Description    string `json:"description,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
}

type FindingListResponse struct {
	Findings []FindingResponse `json:"findings"`
}

type ScanService struct {
	service scanPort.Service
}

func NewScanService(srv scanPort.Service) *ScanService {
	return &ScanService{service: srv}
}

func (s *ScanService) Submit(ctx context.Context, userID string, req *SubmitScanRequest) (*ScanResponse, error) {
	id, err := s.service.SubmitScan(ctx, domain.Scan{
		UserID:       userID,
		CredentialID: req.CredentialID,
		PolicyID:     req.PolicyID,
		Tool:         domain.NormalizeTool(req.Tool),
		Target:       req.Target,
	})
	if err != nil {
		return nil, err
	}

	created, err := s.service.GetScan(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return scanToResponse(created), nil
}

func (s *ScanService) Get(ctx context.Context, scanID int64, userID string) (*ScanResponse, error) {
	sc, err := s.service.GetScan(ctx, scanID, userID)
	if err != nil {
		return nil, err
	}
	return scanToResponse(sc), nil
}

func (s *ScanService) List(ctx context.Context, userID, status, provider, tool string) (*ScanListResponse, error) {
	scans, err := s.service.ListScans(ctx, domain.ScanFilter{
		UserID:   userID,
		Status:   domain.Status(status),
		Provider: credentialDomain.Provider(provider),
		Tool:     domain.NormalizeTool(tool),
	})
	if err != nil {
		return nil, err
	}

	resp := &ScanListResponse{Scans: make([]ScanResponse, 0, len(scans))}
	for i := range scans {
		resp.Scans = append(resp.Scans, *scanToResponse(&scans[i]))
	}
	return resp, nil
}

func (s *ScanService) GetFindings(ctx context.Context, scanID int64, userID string) (*FindingListResponse, error) {
	findings, err := s.service.GetScanFindings(ctx, scanID, userID)
	if err != nil {
		return nil, err
	}

	resp := &FindingListResponse{Findings: make([]FindingResponse, 0, len(findings))}
	for _, f := range findings {
		resp.Findings = append(resp.Findings, FindingResponse{
			ID:             f.ID,
			ScanID:         f.ScanID,
			Severity:       string(f.Severity),
			Category:       f.Category,
			Resource:       f.Resource,
			Description:    f.Description,
			Recommendation: f.Recommendation,
		})
	}
	return resp, nil
}

func scanToResponse(sc *domain.Scan) *ScanResponse {
	return &ScanResponse{
		ID:           sc.ID,
		CredentialID: sc.CredentialID,
		PolicyID:     sc.PolicyID,
		Provider:     string(sc.Provider),
		Tool:         string(sc.Tool),
		Target:       sc.Target,
		Status:       string(sc.Status),
		ErrorMessage: sc.ErrorMessage,
		CreatedAt:    sc.CreatedAt,
		StartedAt:    sc.StartedAt,
		CompletedAt:  sc.CompletedAt,
	}
}
