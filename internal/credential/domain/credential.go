package domain

import (
	"time"
)

// Provider is the cloud platform a credential grants access to.
type Provider string

const (
	ProviderAWS   Provider = "aws"
	ProviderAzure Provider = "azure"
	ProviderGCP   Provider = "gcp"
)

func ValidProvider(p Provider) bool {
	switch p {
	case ProviderAWS, ProviderAzure, ProviderGCP:
		return true
	}
	return false
}

type CredentialID = int64

// Credential stores an encrypted cloud access payload owned by a single user.
// EncryptedPayload is an AES-256-GCM sealed, base64-encoded JSON document whose
// shape depends on the provider (access keys for AWS, service principal for
// Azure, service account key for GCP).
type Credential struct {
	ID               CredentialID
	UserID           string
	Name             string
	Provider         Provider
	EncryptedPayload string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        time.Time
}

type CredentialFilter struct {
	UserID   string
	Provider Provider
}
