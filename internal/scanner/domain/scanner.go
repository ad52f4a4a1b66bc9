package domain

import (
	credentialDomain "github.com/clearpath-sec/cloudscan/internal/credential/domain"
	policyDomain "github.com/clearpath-sec/cloudscan/internal/policy/domain"
	scanDomain "github.com/clearpath-sec/cloudscan/internal/scan/domain"
)

// RunOptions carries everything a scanner backend needs for one execution.
type RunOptions struct {
	ScanID scanDomain.ScanID

	Provider credentialDomain.Provider

	// Target scopes the scan: an AWS account ID, an Azure subscription ID,
	// or a GCP project/folder/organization resource.
	Target string

	// CredentialsJSON is the decrypted credential payload for the provider.
	CredentialsJSON string

	Policy *policyDomain.Definition

	// OutputDir is where the scanner writes its raw report files.
	OutputDir string
}

type RunResult struct {
	RawOutputPaths []string
}

// AWSCredentials is the decrypted payload shape for AWS access keys.
type AWSCredentials struct {
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
	SessionToken    string `json:"sessionToken,omitempty"`
	Region          string `json:"region,omitempty"`
}

// AzureCredentials is the decrypted payload shape for an Azure service principal.
type AzureCredentials struct {
	TenantID       string `json:"tenantId"`
	ClientID       string `json:"clientId"`
	ClientSecret   string `json:"clientSecret"`
	SubscriptionID string `json:"subscriptionId,omitempty"`
}

// GCPCredentials mirrors the fields of a GCP service account key file that
// the adapters need. The full payload is written to disk verbatim, so any
// extra key fields survive the round trip.
type GCPCredentials struct {
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email,omitempty"`
}
