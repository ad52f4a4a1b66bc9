package domain

import (
	"time"

	credentialDomain "github.com/clearpath-sec/cloudscan/internal/credential/domain"
	scanDomain "github.com/clearpath-sec/cloudscan/internal/scan/domain"
)

type PolicyID = int64

// Definition is the declarative part of a policy. It is stored as a JSON
// document and translated into tool-specific CLI arguments at run time.
type Definition struct {
	Checks               []string `json:"checks,omitempty"`
	ExcludedChecks       []string `json:"excluded_checks,omitempty"`
	Services             []string `json:"services,omitempty"`
	ComplianceFrameworks []string `json:"compliance_frameworks,omitempty"`
	SeverityThreshold    string   `json:"severity_threshold,omitempty"`
	CustomArgs           []string `json:"custom_args,omitempty"`
}

// Policy scopes what a scan checks for a given provider and tool.
type Policy struct {
	ID          PolicyID
	UserID      string
	Name        string
	Description string
	Provider    credentialDomain.Provider
	Tool        scanDomain.Tool
	Definition  Definition
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   time.Time
}

type PolicyFilter struct {
	UserID   string
	Provider credentialDomain.Provider
	Tool     scanDomain.Tool
}
