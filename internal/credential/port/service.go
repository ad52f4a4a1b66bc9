package port

import (
	"context"

	"github.com/clearpath-sec/cloudscan/internal/credential/domain"
)

type Service interface {
	CreateCredential(ctx context.Context, credential domain.Credential, plainPayload string) (domain.CredentialID, error)
	GetCredential(ctx context.Context, credentialID domain.CredentialID, userID string) (*domain.Credential, error)
	ListCredentials(ctx context.Context, filter domain.CredentialFilter) ([]domain.Credential, error)
	UpdateCredential(ctx context.Context, credential domain.Credential, plainPayload string) error
	DeleteCredential(ctx context.Context, credentialID domain.CredentialID, userID string) error
	GetDecryptedPayload(ctx context.Context, credentialID domain.CredentialID, userID string) (string, error)
}
