package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearpath-sec/cloudscan/config"
	credentialDomain "github.com/clearpath-sec/cloudscan/internal/credential/domain"
	policyDomain "github.com/clearpath-sec/cloudscan/internal/policy/domain"
	scanDomain "github.com/clearpath-sec/cloudscan/internal/scan/domain"
	"github.com/clearpath-sec/cloudscan/internal/scanner/domain"
)

func TestSCCFilter(t *testing.T) {
	tests := []struct {
		name   string
		policy *policyDomain.Definition
		want   string
	}{
		{
			name:   "nil policy scopes to active findings",
			policy: nil,
			want:   `state="ACTIVE"`,
		},
		{
			name:   "empty checks scope to active findings",
			policy: &policyDomain.Definition{},
			want:   `state="ACTIVE"`,
		},
		{
			name:   "single category",
			policy: &policyDomain.Definition{Checks: []string{"PUBLIC_BUCKET_ACL"}},
			want:   `state="ACTIVE" AND (category="PUBLIC_BUCKET_ACL")`,
		},
		{
			name:   "multiple categories",
			policy: &policyDomain.Definition{Checks: []string{"PUBLIC_BUCKET_ACL", "OPEN_FIREWALL"}},
			want:   `state="ACTIVE" AND (category="PUBLIC_BUCKET_ACL" OR category="OPEN_FIREWALL")`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sccFilter(tt.policy))
		})
	}
}

func TestGCPSCCScanner_RejectsNonGCPProvider(t *testing.T) {
	scanner := NewGCPSCCScanner(config.ScannerConfig{})

	_, err := scanner.Run(context.Background(), domain.RunOptions{
		Provider: credentialDomain.ProviderAWS,
	})

	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestSCCToFinding(t *testing.T) {
	item := sccFinding{
		Category:     "PUBLIC_BUCKET_ACL",
		Severity:     "HIGH",
		ResourceName: "//storage.googleapis.com/my-bucket",
	}
	item.SourceProperties.Description = "Bucket grants allUsers access."
	item.SourceProperties.Recommendation = "Remove allUsers from the bucket ACL."

	finding := sccToFinding(item, 42)

	assert.Equal(t, int64(42), finding.ScanID)
	assert.Equal(t, scanDomain.SeverityHigh, finding.Severity)
	assert.Equal(t, "PUBLIC_BUCKET_ACL", finding.Category)
	assert.Equal(t, "//storage.googleapis.com/my-bucket", finding.Resource)
	assert.Equal(t, "Bucket grants allUsers access.", finding.Description)
	assert.Equal(t, "Remove allUsers from the bucket ACL.", finding.Recommendation)
}

func TestSCCToFinding_Fallbacks(t *testing.T) {
	finding := sccToFinding(sccFinding{}, 7)

	assert.Equal(t, scanDomain.SeverityUnknown, finding.Severity)
	assert.Equal(t, "Unknown Category", finding.Category)
	assert.Equal(t, "N/A", finding.Resource)
	// The category doubles as the description when nothing else is present.
	assert.Equal(t, "Unknown Category", finding.Description)
}

func TestGCPSCCScanner_ParseOutput(t *testing.T) {
	scanner := NewGCPSCCScanner(config.ScannerConfig{})

	t.Run("nested finding key", func(t *testing.T) {
		reportPath := filepath.Join(t.TempDir(), "findings.json")
		report := `[{"finding":{"category":"OPEN_FIREWALL","severity":"CRITICAL","resourceName":"fw-1"}}]`
		require.NoError(t, os.WriteFile(reportPath, []byte(report), 0o644))

		findings, err := scanner.ParseOutput(context.Background(), []string{reportPath}, 42)

		require.NoError(t, err)
		require.Len(t, findings, 1)
		assert.Equal(t, scanDomain.SeverityCritical, findings[0].Severity)
		assert.Equal(t, "OPEN_FIREWALL", findings[0].Category)
	})

	t.Run("flat items", func(t *testing.T) {
		reportPath := filepath.Join(t.TempDir(), "findings.json")
		report := `[{"category":"PUBLIC_BUCKET_ACL","severity":"MEDIUM","resourceName":"bucket-1"}]`
		require.NoError(t, os.WriteFile(reportPath, []byte(report), 0o644))

		findings, err := scanner.ParseOutput(context.Background(), []string{reportPath}, 42)

		require.NoError(t, err)
		require.Len(t, findings, 1)
		assert.Equal(t, scanDomain.SeverityMedium, findings[0].Severity)
	})

	t.Run("empty result set", func(t *testing.T) {
		reportPath := filepath.Join(t.TempDir(), "findings.json")
		require.NoError(t, os.WriteFile(reportPath, []byte("[]"), 0o644))

		findings, err := scanner.ParseOutput(context.Background(), []string{reportPath}, 42)

		require.NoError(t, err)
		assert.Empty(t, findings)
	})
}
