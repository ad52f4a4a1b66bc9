package domain

import (
	"encoding/json"
	"time"

	credentialDomain "github.com/clearpath-sec/cloudscan/internal/credential/domain"
	scanDomain "github.com/clearpath-sec/cloudscan/internal/scan/domain"
)

type JobID = int64

// JobStatus is the queue-side lifecycle of a job, separate from the scan's
// own status.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusInFlight  JobStatus = "in_flight"
	JobStatusCompleted JobStatus = "completed"

	// JobStatusDead marks a job that exhausted its retry budget.
	JobStatusDead JobStatus = "dead"
)

// Job is one durable unit of work. Payload holds a JSON-encoded
// ScanJobPayload.
type Job struct {
	ID            JobID
	Payload       string
	Status        JobStatus
	Attempts      uint
	MaxAttempts   uint
	NextAttemptAt time.Time
	LastError     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}

// ScanJobPayload identifies the scan a job executes and everything needed
// to authorize it.
type ScanJobPayload struct {
	ScanID       scanDomain.ScanID             `json:"scan_id"`
	UserID       string                        `json:"user_id"`
	CredentialID credentialDomain.CredentialID `json:"credential_id"`
	Provider     credentialDomain.Provider     `json:"provider"`
	Tool         scanDomain.Tool               `json:"tool"`
	Target       string                        `json:"target,omitempty"`
	PolicyID     *int64                        `json:"policy_id,omitempty"`
}

func (p ScanJobPayload) Encode() (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func DecodeScanJobPayload(raw string) (ScanJobPayload, error) {
	var payload ScanJobPayload
	err := json.Unmarshal([]byte(raw), &payload)
	return payload, err
}

// RetryPolicy governs how failed jobs are rescheduled. Delays grow
// exponentially from BaseDelay and are capped at MaxDelay.
type RetryPolicy struct {
	MaxAttempts uint
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Delay returns how long to wait before the given attempt number runs
// again. attempt is 1-based: the delay after the first failed attempt is
// BaseDelay.
func (p RetryPolicy) Delay(attempt uint) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := p.BaseDelay
	for i := uint(1); i < attempt; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}

	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// Exhausted reports whether a job that has made the given number of
// attempts has no retries left.
func (p RetryPolicy) Exhausted(attempts uint) bool {
	return attempts >= p.MaxAttempts
}
