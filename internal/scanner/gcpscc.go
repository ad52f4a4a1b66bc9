package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/clearpath-sec/cloudscan/config"
	credentialDomain "github.com/clearpath-sec/cloudscan/internal/credential/domain"
	policyDomain "github.com/clearpath-sec/cloudscan/internal/policy/domain"
	scanDomain "github.com/clearpath-sec/cloudscan/internal/scan/domain"
	"github.com/clearpath-sec/cloudscan/internal/scanner/domain"
	"github.com/clearpath-sec/cloudscan/pkg/logger"
)

// GCPSCCScanner lists active findings from GCP Security Command Center via
// the gcloud CLI.
type GCPSCCScanner struct {
	cfg config.ScannerConfig
}

func NewGCPSCCScanner(cfg config.ScannerConfig) *GCPSCCScanner {
	return &GCPSCCScanner{cfg: cfg}
}

func (g *GCPSCCScanner) ToolName() scanDomain.Tool {
	return scanDomain.ToolGCPSCC
}

func (g *GCPSCCScanner) SupportedProviders() []credentialDomain.Provider {
	return []credentialDomain.Provider{credentialDomain.ProviderGCP}
}

func (g *GCPSCCScanner) Run(ctx context.Context, opts domain.RunOptions) (*domain.RunResult, error) {
	if opts.Provider != credentialDomain.ProviderGCP {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, opts.Provider)
	}

	if g.cfg.TimeoutMinutes > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(g.cfg.TimeoutMinutes)*time.Minute)
		defer cancel()
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating output directory: %v", ErrExecutionFailed, err)
	}

	var creds domain.GCPCredentials
	if err := json.Unmarshal([]byte(opts.CredentialsJSON), &creds); err != nil {
		return nil, fmt.Errorf("%w: decoding gcp credentials: %v", ErrAuthenticationFailed, err)
	}

	// Parent is organizations/<id>, folders/<id> or projects/<id>. A bare
	// target falls back to the service account's project.
	parent := opts.Target
	if parent == "" {
		if creds.ProjectID == "" {
			return nil, fmt.Errorf("%w: target or credential project_id is required", ErrExecutionFailed)
		}
		parent = "projects/" + creds.ProjectID
	} else if !strings.Contains(parent, "/") {
		parent = "projects/" + parent
	}

	keyFilePath, err := writeTempKeyFile(opts.OutputDir, "gcp-sa-key-scc", opts.CredentialsJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExecutionFailed, err)
	}
	defer removeTempFile(ctx, keyFilePath)

	args := []string{
		"scc", "findings", "list", parent,
		"--filter=" + sccFilter(opts.Policy),
		"--format=json",
	}
	if opts.Policy != nil {
		args = append(args, opts.Policy.CustomArgs...)
	}

	logger.InfoContext(ctx, "running gcp scc scan %d against %s", opts.ScanID, parent)

	cmd := exec.CommandContext(ctx, "gcloud", args...)
	cmd.Env = append(os.Environ(), "GOOGLE_APPLICATION_CREDENTIALS="+keyFilePath)
	stdout, err := cmd.Output()
	if err != nil {
		var stderr []byte
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr = exitErr.Stderr
		}
		return nil, classifyRunError(err, stderr)
	}

	// gcloud prints nothing for an empty result set. Normalize to an empty
	// JSON array so parsing stays uniform.
	if len(strings.TrimSpace(string(stdout))) == 0 {
		stdout = []byte("[]")
	}

	reportFilePath := filepath.Join(opts.OutputDir, fmt.Sprintf("gcp-scc-findings-%d.json", time.Now().UnixNano()))
	if err := os.WriteFile(reportFilePath, stdout, 0o644); err != nil {
		return nil, fmt.Errorf("%w: writing report file: %v", ErrExecutionFailed, err)
	}

	return &domain.RunResult{RawOutputPaths: []string{reportFilePath}}, nil
}

// sccFilter builds the findings list filter, always scoped to active
// findings and optionally narrowed to the policy's categories.
func sccFilter(policy *policyDomain.Definition) string {
	filter := `state="ACTIVE"`
	if policy == nil || len(policy.Checks) == 0 {
		return filter
	}

	categories := make([]string, 0, len(policy.Checks))
	for _, check := range policy.Checks {
		categories = append(categories, fmt.Sprintf("category=%q", check))
	}
	return filter + " AND (" + strings.Join(categories, " OR ") + ")"
}

// sccListItem is one entry of `gcloud scc findings list --format=json`.
// Depending on the gcloud version the finding is either nested under a
// "finding" key or is the item itself.
type sccListItem struct {
	Finding *sccFinding `json:"finding"`
	sccFinding
}

type sccFinding struct {
	Category         string `json:"category"`
	Severity         string `json:"severity"`
	ResourceName     string `json:"resourceName"`
	Description      string `json:"description"`
	SourceProperties struct {
		Description    string `json:"Description"`
		Recommendation string `json:"Recommendation"`
	} `json:"sourceProperties"`
}

func (g *GCPSCCScanner) ParseOutput(ctx context.Context, rawOutputPaths []string, scanID scanDomain.ScanID) ([]scanDomain.Finding, error) {
	if len(rawOutputPaths) == 0 {
		return nil, fmt.Errorf("%w: no raw output paths provided", ErrParsingFailed)
	}

	var findings []scanDomain.Finding
	for _, outputPath := range rawOutputPaths {
		content, err := os.ReadFile(outputPath)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrParsingFailed, outputPath, err)
		}

		var items []sccListItem
		if err := json.Unmarshal(content, &items); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrParsingFailed, outputPath, err)
		}

		for _, item := range items {
			finding := item.sccFinding
			if item.Finding != nil {
				finding = *item.Finding
			}
			findings = append(findings, sccToFinding(finding, scanID))
		}
	}

	return findings, nil
}

func sccToFinding(item sccFinding, scanID scanDomain.ScanID) scanDomain.Finding {
	category := item.Category
	if category == "" {
		category = "Unknown Category"
	}

	resource := item.ResourceName
	if resource == "" {
		resource = "N/A"
	}

	description := item.SourceProperties.Description
	if description == "" {
		description = item.Description
	}
	if description == "" {
		description = category
	}

	recommendation := item.SourceProperties.Recommendation
	if recommendation == "" {
		recommendation = "Refer to GCP Security Command Center documentation for this finding category."
	}

	return scanDomain.Finding{
		ScanID:         scanID,
		Severity:       scanDomain.NormalizeSeverity(item.Severity),
		Category:       clamp(category, 255),
		Resource:       clamp(resource, 255),
		Description:    description,
		Recommendation: recommendation,
	}
}
