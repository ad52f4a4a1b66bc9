package port

import (
	"context"

	"github.com/clearpath-sec/cloudscan/internal/credential/domain"
)

type Repo interface {
	Create(ctx context.Context, credential domain.Credential) (domain.CredentialID, error)
	GetByID(ctx context.Context, credentialID domain.CredentialID) (*domain.Credential, error)
	Get(ctx context.Context, filter domain.CredentialFilter) ([]domain.Credential, error)
	Update(ctx context.Context, credential domain.Credential) error
	Delete(ctx context.Context, credentialID domain.CredentialID) error
}
