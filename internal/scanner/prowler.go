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

// ProwlerScanner runs the Prowler CLI against AWS, Azure or GCP and parses
// its OCSF JSON report.
type ProwlerScanner struct {
	cfg config.ScannerConfig
}

func NewProwlerScanner(cfg config.ScannerConfig) *ProwlerScanner {
	return &ProwlerScanner{cfg: cfg}
}

func (p *ProwlerScanner) ToolName() scanDomain.Tool {
	return scanDomain.ToolProwler
}

func (p *ProwlerScanner) SupportedProviders() []credentialDomain.Provider {
	return []credentialDomain.Provider{
		credentialDomain.ProviderAWS,
		credentialDomain.ProviderAzure,
		credentialDomain.ProviderGCP,
	}
}

func (p *ProwlerScanner) Run(ctx context.Context, opts domain.RunOptions) (*domain.RunResult, error) {
	if p.cfg.TimeoutMinutes > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(p.cfg.TimeoutMinutes)*time.Minute)
		defer cancel()
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating output directory: %v", ErrExecutionFailed, err)
	}

	reportFileName := fmt.Sprintf("prowler-output-%d.json", time.Now().UnixNano())
	reportFilePath := filepath.Join(opts.OutputDir, reportFileName)

	args := []string{string(opts.Provider)}
	env := os.Environ()

	switch opts.Provider {
	case credentialDomain.ProviderAWS:
		var creds domain.AWSCredentials
		if err := json.Unmarshal([]byte(opts.CredentialsJSON), &creds); err != nil {
			return nil, fmt.Errorf("%w: decoding aws credentials: %v", ErrAuthenticationFailed, err)
		}
		env = append(env,
			"AWS_ACCESS_KEY_ID="+creds.AccessKeyID,
			"AWS_SECRET_ACCESS_KEY="+creds.SecretAccessKey,
		)
		if creds.SessionToken != "" {
			env = append(env, "AWS_SESSION_TOKEN="+creds.SessionToken)
		}
		if creds.Region != "" {
			env = append(env, "AWS_DEFAULT_REGION="+creds.Region)
		}

	case credentialDomain.ProviderAzure:
		var creds domain.AzureCredentials
		if err := json.Unmarshal([]byte(opts.CredentialsJSON), &creds); err != nil {
			return nil, fmt.Errorf("%w: decoding azure credentials: %v", ErrAuthenticationFailed, err)
		}
		env = append(env,
			"AZURE_TENANT_ID="+creds.TenantID,
			"AZURE_CLIENT_ID="+creds.ClientID,
			"AZURE_CLIENT_SECRET="+creds.ClientSecret,
		)
		args = append(args, "--sp-env-auth")
		subscription := opts.Target
		if subscription == "" {
			subscription = creds.SubscriptionID
		}
		if subscription != "" {
			args = append(args, "--subscription-id", subscription)
		}

	case credentialDomain.ProviderGCP:
		var creds domain.GCPCredentials
		if err := json.Unmarshal([]byte(opts.CredentialsJSON), &creds); err != nil {
			return nil, fmt.Errorf("%w: decoding gcp credentials: %v", ErrAuthenticationFailed, err)
		}
		keyFilePath, err := writeTempKeyFile(opts.OutputDir, "gcp-sa-key", opts.CredentialsJSON)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrExecutionFailed, err)
		}
		defer removeTempFile(ctx, keyFilePath)

		args = append(args, "--credentials-file", keyFilePath)
		projectID := opts.Target
		if projectID == "" {
			projectID = creds.ProjectID
		}
		args = append(args, "--project-id", projectID)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, opts.Provider)
	}

	args = append(args, prowlerPolicyArgs(opts.Policy)...)
	args = append(args,
		"--output-directory", opts.OutputDir,
		"--output-modes", "json-ocsf",
		"--output-filename", reportFileName,
		"--status", "FAIL",
	)

	logger.InfoContext(ctx, "running prowler scan %d for provider %s", opts.ScanID, opts.Provider)

	cmd := exec.CommandContext(ctx, "prowler", args...)
	cmd.Env = env
	output, err := cmd.CombinedOutput()
	if err != nil {
		// Prowler exits non-zero when failed checks exist. A present report
		// file means the run itself succeeded.
		if _, statErr := os.Stat(reportFilePath); statErr != nil {
			return nil, classifyRunError(err, output)
		}
	}

	if _, err := os.Stat(reportFilePath); err != nil {
		return nil, fmt.Errorf("%w: report file was not produced", ErrExecutionFailed)
	}

	return &domain.RunResult{RawOutputPaths: []string{reportFilePath}}, nil
}

// prowlerFinding is the subset of a Prowler OCSF record the parser reads.
type prowlerFinding struct {
	Severity     string `json:"severity"`
	Message      string `json:"message"`
	StatusDetail string `json:"status_detail"`
	FindingInfo  struct {
		Title string `json:"title"`
		Desc  string `json:"desc"`
	} `json:"finding_info"`
	Resources []struct {
		UID  string `json:"uid"`
		Name string `json:"name"`
	} `json:"resources"`
	Remediation struct {
		Desc string `json:"desc"`
	} `json:"remediation"`
}

func (p *ProwlerScanner) ParseOutput(ctx context.Context, rawOutputPaths []string, scanID scanDomain.ScanID) ([]scanDomain.Finding, error) {
	if len(rawOutputPaths) == 0 {
		return nil, fmt.Errorf("%w: no raw output paths provided", ErrParsingFailed)
	}

	var findings []scanDomain.Finding
	for _, outputPath := range rawOutputPaths {
		content, err := os.ReadFile(outputPath)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrParsingFailed, outputPath, err)
		}

		records, err := decodeProwlerReport(content)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrParsingFailed, outputPath, err)
		}

		for _, item := range records {
			findings = append(findings, prowlerToFinding(item, scanID))
		}
	}

	return findings, nil
}

// decodeProwlerReport accepts either a JSON array or newline-delimited JSON,
// which Prowler has emitted across versions.
func decodeProwlerReport(content []byte) ([]prowlerFinding, error) {
	var records []prowlerFinding
	if err := json.Unmarshal(content, &records); err == nil {
		return records, nil
	}

	lines := splitNonEmptyLines(content)
	records = make([]prowlerFinding, 0, len(lines))
	for _, line := range lines {
		var record prowlerFinding
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func prowlerToFinding(item prowlerFinding, scanID scanDomain.ScanID) scanDomain.Finding {
	category := item.FindingInfo.Title
	if category == "" {
		category = "Unknown"
	}

	resource := "N/A"
	if len(item.Resources) > 0 {
		if item.Resources[0].UID != "" {
			resource = item.Resources[0].UID
		} else if item.Resources[0].Name != "" {
			resource = item.Resources[0].Name
		}
	}

	description := item.FindingInfo.Desc
	if description == "" {
		description = item.Message
	}
	if description == "" {
		description = item.StatusDetail
	}
	if description == "" {
		description = "No description available."
	}

	recommendation := item.Remediation.Desc
	if recommendation == "" {
		recommendation = "No recommendation available."
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

// prowlerPolicyArgs translates a policy definition into Prowler CLI flags.
func prowlerPolicyArgs(policy *policyDomain.Definition) []string {
	if policy == nil {
		return nil
	}

	var args []string
	if len(policy.Checks) > 0 {
		args = append(args, "--checks")
		args = append(args, policy.Checks...)
	}
	if len(policy.ExcludedChecks) > 0 {
		args = append(args, "--excluded-checks")
		args = append(args, policy.ExcludedChecks...)
	}
	if len(policy.Services) > 0 {
		args = append(args, "--services")
		args = append(args, policy.Services...)
	}
	for _, framework := range policy.ComplianceFrameworks {
		args = append(args, "--compliance", framework)
	}
	if policy.SeverityThreshold != "" {
		args = append(args, "--severity", strings.ToLower(policy.SeverityThreshold))
	}
	args = append(args, policy.CustomArgs...)

	return args
}
