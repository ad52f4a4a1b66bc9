package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/clearpath-sec/cloudscan/config"
	credentialDomain "github.com/clearpath-sec/cloudscan/internal/credential/domain"
	policyDomain "github.com/clearpath-sec/cloudscan/internal/policy/domain"
	scanDomain "github.com/clearpath-sec/cloudscan/internal/scan/domain"
	"github.com/clearpath-sec/cloudscan/internal/scanner/domain"
	"github.com/clearpath-sec/cloudscan/pkg/logger"
)

// CloudSploitScanner runs the CloudSploit CLI with a generated config file
// and parses its JSON report.
type CloudSploitScanner struct {
	cfg config.ScannerConfig
}

func NewCloudSploitScanner(cfg config.ScannerConfig) *CloudSploitScanner {
	return &CloudSploitScanner{cfg: cfg}
}

func (c *CloudSploitScanner) ToolName() scanDomain.Tool {
	return scanDomain.ToolCloudSploit
}

func (c *CloudSploitScanner) SupportedProviders() []credentialDomain.Provider {
	return []credentialDomain.Provider{
		credentialDomain.ProviderAWS,
		credentialDomain.ProviderAzure,
		credentialDomain.ProviderGCP,
	}
}

// cloudSploitConfig mirrors the provider sections of CloudSploit's config
// file. Only one section is populated per run.
type cloudSploitConfig struct {
	AWS *struct {
		AccessKey       string `json:"access_key"`
		SecretAccessKey string `json:"secret_access_key"`
		SessionToken    string `json:"session_token,omitempty"`
	} `json:"aws,omitempty"`
	Azure *struct {
		ApplicationID  string `json:"application_id"`
		KeyValue       string `json:"key_value"`
		DirectoryID    string `json:"directory_id"`
		SubscriptionID string `json:"subscription_id"`
	} `json:"azure,omitempty"`
	GCP *struct {
		CredentialFile string `json:"credential_file"`
		Project        string `json:"project,omitempty"`
	} `json:"gcp,omitempty"`
}

func (c *CloudSploitScanner) Run(ctx context.Context, opts domain.RunOptions) (*domain.RunResult, error) {
	if c.cfg.TimeoutMinutes > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(c.cfg.TimeoutMinutes)*time.Minute)
		defer cancel()
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating output directory: %v", ErrExecutionFailed, err)
	}

	reportFilePath := filepath.Join(opts.OutputDir, fmt.Sprintf("cloudsploit-output-%d.json", time.Now().UnixNano()))

	var providerConfig cloudSploitConfig
	switch opts.Provider {
	case credentialDomain.ProviderAWS:
		var creds domain.AWSCredentials
		if err := json.Unmarshal([]byte(opts.CredentialsJSON), &creds); err != nil {
			return nil, fmt.Errorf("%w: decoding aws credentials: %v", ErrAuthenticationFailed, err)
		}
		providerConfig.AWS = &struct {
			AccessKey       string `json:"access_key"`
			SecretAccessKey string `json:"secret_access_key"`
			SessionToken    string `json:"session_token,omitempty"`
		}{
			AccessKey:       creds.AccessKeyID,
			SecretAccessKey: creds.SecretAccessKey,
			SessionToken:    creds.SessionToken,
		}

	case credentialDomain.ProviderAzure:
		var creds domain.AzureCredentials
		if err := json.Unmarshal([]byte(opts.CredentialsJSON), &creds); err != nil {
			return nil, fmt.Errorf("%w: decoding azure credentials: %v", ErrAuthenticationFailed, err)
		}
		subscription := opts.Target
		if subscription == "" {
			subscription = creds.SubscriptionID
		}
		providerConfig.Azure = &struct {
			ApplicationID  string `json:"application_id"`
			KeyValue       string `json:"key_value"`
			DirectoryID    string `json:"directory_id"`
			SubscriptionID string `json:"subscription_id"`
		}{
			ApplicationID:  creds.ClientID,
			KeyValue:       creds.ClientSecret,
			DirectoryID:    creds.TenantID,
			SubscriptionID: subscription,
		}

	case credentialDomain.ProviderGCP:
		keyFilePath, err := writeTempKeyFile(opts.OutputDir, "gcp-sa-key-cloudsploit", opts.CredentialsJSON)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrExecutionFailed, err)
		}
		defer removeTempFile(ctx, keyFilePath)

		providerConfig.GCP = &struct {
			CredentialFile string `json:"credential_file"`
			Project        string `json:"project,omitempty"`
		}{
			CredentialFile: keyFilePath,
			Project:        opts.Target,
		}

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, opts.Provider)
	}

	configFilePath, err := c.writeConfigFile(opts.OutputDir, providerConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExecutionFailed, err)
	}
	defer removeTempFile(ctx, configFilePath)

	args := []string{
		"--config", configFilePath,
		"--json", reportFilePath,
		"--console", "none",
	}
	args = append(args, cloudSploitPolicyArgs(opts.Policy)...)

	logger.InfoContext(ctx, "running cloudsploit scan %d for provider %s", opts.ScanID, opts.Provider)

	cmd := exec.CommandContext(ctx, "cloudsploit", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, classifyRunError(err, output)
	}

	if _, err := os.Stat(reportFilePath); err != nil {
		return nil, fmt.Errorf("%w: report file was not produced", ErrExecutionFailed)
	}

	return &domain.RunResult{RawOutputPaths: []string{reportFilePath}}, nil
}

// writeConfigFile renders the CloudSploit CommonJS config module.
func (c *CloudSploitScanner) writeConfigFile(dir string, providerConfig cloudSploitConfig) (string, error) {
	encoded, err := json.MarshalIndent(providerConfig, "", "  ")
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, fmt.Sprintf("cloudsploit-config-%d.js", time.Now().UnixNano()))
	content := "module.exports = " + string(encoded) + ";\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return "", err
	}
	return path, nil
}

func cloudSploitPolicyArgs(policy *policyDomain.Definition) []string {
	if policy == nil {
		return nil
	}

	var args []string
	// CloudSploit runs a single plugin per invocation.
	if len(policy.Checks) > 0 {
		args = append(args, "--plugin", policy.Checks[0])
	}
	for _, framework := range policy.ComplianceFrameworks {
		args = append(args, "--compliance", framework)
	}
	for _, excluded := range policy.ExcludedChecks {
		args = append(args, "--suppress", excluded)
	}
	args = append(args, policy.CustomArgs...)

	return args
}

// cloudSploitResult is one entry of the CloudSploit JSON report. Status
// codes: 0 PASS, 1 WARN, 2 FAIL, 3 UNKNOWN.
type cloudSploitResult struct {
	Plugin      string `json:"plugin"`
	Category    string `json:"category"`
	Resource    string `json:"resource"`
	Status      int    `json:"status"`
	Message     string `json:"message"`
	Description string `json:"description"`
	Remediation string `json:"remediation"`
}

func (c *CloudSploitScanner) ParseOutput(ctx context.Context, rawOutputPaths []string, scanID scanDomain.ScanID) ([]scanDomain.Finding, error) {
	if len(rawOutputPaths) == 0 {
		return nil, fmt.Errorf("%w: no raw output paths provided", ErrParsingFailed)
	}

	var findings []scanDomain.Finding
	for _, outputPath := range rawOutputPaths {
		content, err := os.ReadFile(outputPath)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrParsingFailed, outputPath, err)
		}

		var results []cloudSploitResult
		if err := json.Unmarshal(content, &results); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrParsingFailed, outputPath, err)
		}

		for _, item := range results {
			finding, ok := cloudSploitToFinding(item, scanID)
			if !ok {
				continue
			}
			findings = append(findings, finding)
		}
	}

	return findings, nil
}

func cloudSploitToFinding(item cloudSploitResult, scanID scanDomain.ScanID) (scanDomain.Finding, bool) {
	var severity scanDomain.Severity
	switch item.Status {
	case 0:
		severity = scanDomain.SeverityLow
	case 1:
		severity = scanDomain.SeverityMedium
	case 2:
		severity = scanDomain.SeverityHigh
	default:
		// UNKNOWN results carry no actionable signal.
		return scanDomain.Finding{}, false
	}

	category := item.Category
	if category == "" {
		category = item.Plugin
	}
	if category == "" {
		category = "Unknown"
	}

	resource := item.Resource
	if resource == "" {
		resource = "N/A"
	}

	description := item.Message
	if description == "" {
		description = item.Description
	}
	if description == "" {
		description = "No description available."
	}

	recommendation := item.Remediation
	if recommendation == "" {
		recommendation = "Refer to CloudSploit documentation for the specific plugin."
	}

	return scanDomain.Finding{
		ScanID:         scanID,
		Severity:       severity,
		Category:       clamp(category, 255),
		Resource:       clamp(resource, 255),
		Description:    description,
		Recommendation: recommendation,
	}, true
}
