package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearpath-sec/cloudscan/config"
	policyDomain "github.com/clearpath-sec/cloudscan/internal/policy/domain"
	scanDomain "github.com/clearpath-sec/cloudscan/internal/scan/domain"
)

func TestCloudSploitPolicyArgs(t *testing.T) {
	tests := []struct {
		name   string
		policy *policyDomain.Definition
		want   []string
	}{
		{
			name:   "nil policy adds no flags",
			policy: nil,
			want:   nil,
		},
		{
			name: "only the first check becomes the plugin",
			policy: &policyDomain.Definition{
				Checks: []string{"s3Encryption", "iamUserMfaEnabled"},
			},
			want: []string{"--plugin", "s3Encryption"},
		},
		{
			name: "compliance and suppressions",
			policy: &policyDomain.Definition{
				ComplianceFrameworks: []string{"pci", "hipaa"},
				ExcludedChecks:       []string{"ec2MetadataOptions"},
				CustomArgs:           []string{"--ignore-ok-status"},
			},
			want: []string{
				"--compliance", "pci",
				"--compliance", "hipaa",
				"--suppress", "ec2MetadataOptions",
				"--ignore-ok-status",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cloudSploitPolicyArgs(tt.policy))
		})
	}
}

func TestCloudSploitToFinding_StatusMapping(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		wantSeverity scanDomain.Severity
		wantKept     bool
	}{
		{name: "pass maps to low", status: 0, wantSeverity: scanDomain.SeverityLow, wantKept: true},
		{name: "warn maps to medium", status: 1, wantSeverity: scanDomain.SeverityMedium, wantKept: true},
		{name: "fail maps to high", status: 2, wantSeverity: scanDomain.SeverityHigh, wantKept: true},
		{name: "unknown is dropped", status: 3, wantKept: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finding, kept := cloudSploitToFinding(cloudSploitResult{Status: tt.status}, 42)

			assert.Equal(t, tt.wantKept, kept)
			if tt.wantKept {
				assert.Equal(t, tt.wantSeverity, finding.Severity)
			}
		})
	}
}

func TestCloudSploitToFinding_Fallbacks(t *testing.T) {
	t.Run("plugin fills in an empty category", func(t *testing.T) {
		finding, kept := cloudSploitToFinding(cloudSploitResult{Status: 2, Plugin: "s3Encryption"}, 42)

		require.True(t, kept)
		assert.Equal(t, "s3Encryption", finding.Category)
	})

	t.Run("empty record", func(t *testing.T) {
		finding, kept := cloudSploitToFinding(cloudSploitResult{Status: 2}, 42)

		require.True(t, kept)
		assert.Equal(t, "Unknown", finding.Category)
		assert.Equal(t, "N/A", finding.Resource)
		assert.Equal(t, "No description available.", finding.Description)
		assert.Equal(t, "Refer to CloudSploit documentation for the specific plugin.", finding.Recommendation)
	})
}

func TestCloudSploitScanner_ParseOutput(t *testing.T) {
	scanner := NewCloudSploitScanner(config.ScannerConfig{})

	reportPath := filepath.Join(t.TempDir(), "report.json")
	report := `[
		{"plugin":"s3Encryption","category":"S3","resource":"my-bucket","status":2,"message":"Encryption disabled"},
		{"plugin":"ec2Check","category":"EC2","resource":"i-1234","status":3,"message":"Unable to query"},
		{"plugin":"iamMfa","category":"IAM","resource":"alice","status":1,"message":"No MFA"}
	]`
	require.NoError(t, os.WriteFile(reportPath, []byte(report), 0o644))

	findings, err := scanner.ParseOutput(context.Background(), []string{reportPath}, 42)

	require.NoError(t, err)
	// Status 3 entries are skipped.
	require.Len(t, findings, 2)
	assert.Equal(t, scanDomain.SeverityHigh, findings[0].Severity)
	assert.Equal(t, "S3", findings[0].Category)
	assert.Equal(t, scanDomain.SeverityMedium, findings[1].Severity)
}

func TestCloudSploitScanner_WriteConfigFile(t *testing.T) {
	scanner := NewCloudSploitScanner(config.ScannerConfig{})
	dir := t.TempDir()

	var cfg cloudSploitConfig
	cfg.AWS = &struct {
		AccessKey       string `json:"access_key"`
		SecretAccessKey string `json:"secret_access_key"`
		SessionToken    string `json:"session_token,omitempty"`
	}{AccessKey: "AKIA", SecretAccessKey: "secret"}

	path, err := scanner.writeConfigFile(dir, cfg)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "module.exports = ")
	assert.Contains(t, string(content), `"access_key": "AKIA"`)
	assert.NotContains(t, string(content), "azure")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
