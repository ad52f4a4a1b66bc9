package mapper

import (
	"github.com/clearpath-sec/cloudscan/internal/credential/domain"
	"github.com/clearpath-sec/cloudscan/pkg/adapter/storage/types"
)

func CredentialDomain2Storage(credential domain.Credential) *types.CloudCredential {
	return &types.CloudCredential{
		ID:               credential.ID,
		UserID:           credential.UserID,
		Name:             credential.Name,
		Provider:         string(credential.Provider),
		EncryptedPayload: credential.EncryptedPayload,
		CreatedAt:        credential.CreatedAt,
		UpdatedAt:        timePtrOrNil(credential.UpdatedAt),
		DeletedAt:        timePtrOrNil(credential.DeletedAt),
	}
}

func CredentialStorage2Domain(credential types.CloudCredential) *domain.Credential {
	return &domain.Credential{
		ID:               credential.ID,
		UserID:           credential.UserID,
		Name:             credential.Name,
		Provider:         domain.Provider(credential.Provider),
		EncryptedPayload: credential.EncryptedPayload,
		CreatedAt:        credential.CreatedAt,
		UpdatedAt:        timeOrZero(credential.UpdatedAt),
		DeletedAt:        timeOrZero(credential.DeletedAt),
	}
}
