package port

import (
	"context"

	credentialDomain "github.com/clearpath-sec/cloudscan/internal/credential/domain"
	scanDomain "github.com/clearpath-sec/cloudscan/internal/scan/domain"
	"github.com/clearpath-sec/cloudscan/internal/scanner/domain"
)

// Scanner is implemented by each security tool backend. Run executes the
// tool and returns paths to its raw report files; ParseOutput turns those
// files into normalized findings.
type Scanner interface {
	ToolName() scanDomain.Tool
	SupportedProviders() []credentialDomain.Provider
	Run(ctx context.Context, opts domain.RunOptions) (*domain.RunResult, error)
	ParseOutput(ctx context.Context, rawOutputPaths []string, scanID scanDomain.ScanID) ([]scanDomain.Finding, error)
}
