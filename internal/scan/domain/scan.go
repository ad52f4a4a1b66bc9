package domain

import (
	"strings"
	"time"

	credentialDomain "github.com/clearpath-sec/cloudscan/internal/credential/domain"
)

// Tool identifies the scanner backend that executes a scan.
type Tool string

const (
	ToolProwler     Tool = "prowler"
	ToolCloudSploit Tool = "cloudsploit"
	ToolGCPSCC      Tool = "gcp_scc"
)

func NormalizeTool(t string) Tool {
	return Tool(strings.ToLower(strings.TrimSpace(t)))
}

// Status is the lifecycle state of a scan.
type Status string

const (
	StatusQueued        Status = "queued"
	StatusInProgress    Status = "in_progress"
	StatusParsingOutput Status = "parsing_output"
	StatusCompleted     Status = "completed"

	// Failure states record which phase of the lifecycle broke.
	StatusFailedAuth      Status = "failed_auth"
	StatusFailedExecution Status = "failed_execution"
	StatusFailedParsing   Status = "failed_parsing"
	StatusFailed          Status = "failed"
)

func ValidStatus(s Status) bool {
	switch s {
	case StatusQueued, StatusInProgress, StatusParsingOutput, StatusCompleted,
		StatusFailedAuth, StatusFailedExecution, StatusFailedParsing, StatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions can happen from s.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailedAuth, StatusFailedExecution, StatusFailedParsing, StatusFailed:
		return true
	}
	return false
}

// IsFailure reports whether s is one of the failure states.
func (s Status) IsFailure() bool {
	return s.IsTerminal() && s != StatusCompleted
}

// MaxErrorMessageLen bounds the stored error message column.
const MaxErrorMessageLen = 1023

// TruncateErrorMessage clamps msg so it always fits the storage column.
func TruncateErrorMessage(msg string) string {
	if len(msg) > MaxErrorMessageLen {
		return msg[:MaxErrorMessageLen]
	}
	return msg
}

type ScanID = int64

type Scan struct {
	ID           ScanID
	UserID       string
	CredentialID credentialDomain.CredentialID
	PolicyID     *int64
	Provider     credentialDomain.Provider
	Tool         Tool
	Target       string
	Status       Status
	ErrorMessage string
	CreatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	UpdatedAt    time.Time
	DeletedAt    time.Time
}

type ScanFilter struct {
	UserID   string
	Status   Status
	Provider credentialDomain.Provider
	Tool     Tool
}

// Severity buckets findings for reporting. Unknown absorbs anything a
// scanner emits that does not map onto the four standard levels.
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
	SeverityUnknown  Severity = "Unknown"
)

// NormalizeSeverity maps raw scanner severity strings onto the standard levels.
func NormalizeSeverity(raw string) Severity {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "critical":
		return SeverityCritical
	case "high":
		return SeverityHigh
	case "medium", "warn", "warning":
		return SeverityMedium
	case "low", "informational", "info":
		return SeverityLow
	default:
		return SeverityUnknown
	}
}

type FindingID = int64

type Finding struct {
	ID             FindingID
	ScanID         ScanID
	Severity       Severity
	Category       string
	Resource       string
	Description    string
	Recommendation string
	CreatedAt      time.Time
}
