package mapper

import (
	credentialDomain "github.com/clearpath-sec/cloudscan/internal/credential/domain"
	"github.com/clearpath-sec/cloudscan/internal/scan/domain"
	"github.com/clearpath-sec/cloudscan/pkg/adapter/storage/types"
)

func ScanDomain2Storage(scan domain.Scan) *types.Scan {
	return &types.Scan{
		ID:           scan.ID,
		UserID:       scan.UserID,
		CredentialID: scan.CredentialID,
		PolicyID:     scan.PolicyID,
		Provider:     string(scan.Provider),
		Tool:         string(scan.Tool),
		Target:       scan.Target,
		Status:       string(scan.Status),
		ErrorMessage: strPtrOrNil(scan.ErrorMessage),
		CreatedAt:    scan.CreatedAt,
		StartedAt:    scan.StartedAt,
		CompletedAt:  scan.CompletedAt,
		UpdatedAt:    timePtrOrNil(scan.UpdatedAt),
		DeletedAt:    timePtrOrNil(scan.DeletedAt),
	}
}

func ScanStorage2Domain(scan types.Scan) *domain.Scan {
	return &domain.Scan{
		ID:           scan.ID,
		UserID:       scan.UserID,
		CredentialID: scan.CredentialID,
		PolicyID:     scan.PolicyID,
		Provider:     credentialDomain.Provider(scan.Provider),
		Tool:         domain.Tool(scan.Tool),
		Target:       scan.Target,
		Status:       domain.Status(scan.Status),
		ErrorMessage: strOrEmpty(scan.ErrorMessage),
		CreatedAt:    scan.CreatedAt,
		StartedAt:    scan.StartedAt,
		CompletedAt:  scan.CompletedAt,
		UpdatedAt:    timeOrZero(scan.UpdatedAt),
		DeletedAt:    timeOrZero(scan.DeletedAt),
	}
}

func FindingDomain2Storage(finding domain.Finding) *types.Finding {
	return &types.Finding{
		ID:             finding.ID,
		ScanID:         finding.ScanID,
		Severity:       string(finding.Severity),
		Category:       finding.Category,
		Resource:       finding.Resource,
		Description:    finding.Description,
		Recommendation: finding.Recommendation,
		CreatedAt:      finding.CreatedAt,
	}
}

func FindingStorage2Domain(finding types.Finding) *domain.Finding {
	return &domain.Finding{
		ID:             finding.ID,
		ScanID:         finding.ScanID,
		Severity:       domain.Severity(finding.Severity),
		Category:       finding.Category,
		Resource:       finding.Resource,
		Description:    finding.Description,
		Recommendation: finding.Recommendation,
		CreatedAt:      finding.CreatedAt,
	}
}
