package credential

import (
	"context"
	"errors"

	"github.com/clearpath-sec/cloudscan/internal/credential/domain"
	credentialPort "github.com/clearpath-sec/cloudscan/internal/credential/port"
	"github.com/clearpath-sec/cloudscan/internal/encrypt"
	"github.com/clearpath-sec/cloudscan/pkg/logger"
)

var (
	ErrCredentialOnCreate      = errors.New("error on creating new credential")
	ErrCredentialOnUpdate      = errors.New("error on updating credential")
	ErrCredentialOnDelete      = errors.New("error on deleting credential")
	ErrCredentialNotFound      = errors.New("credential not found")
	ErrInvalidCredentialInput  = errors.New("invalid credential input")
	ErrCredentialAccessDenied  = errors.New("credential does not belong to user")
	ErrCredentialOnDecrypt     = errors.New("error on decrypting credential payload")
	ErrUnsupportedProviderType = errors.New("unsupported cloud provider")
)

type credentialService struct {
	repo          credentialPort.Repo
	encryptionKey []byte
}

func NewCredentialService(repo credentialPort.Repo, encryptionKey []byte) credentialPort.Service {
	return &credentialService{
		repo:          repo,
		encryptionKey: encryptionKey,
	}
}

func (s *credentialService) validateCredential(credential *domain.Credential, plainPayload string) error {
	if credential.Name == "" {
		return ErrInvalidCredentialInput
	}
	if plainPayload == "" {
		return ErrInvalidCredentialInput
	}
	if !domain.ValidProvider(credential.Provider) {
		return ErrUnsupportedProviderType
	}
	return nil
}

func (s *credentialService) CreateCredential(ctx context.Context, credential domain.Credential, plainPayload string) (domain.CredentialID, error) {
	if err := s.validateCredential(&credential, plainPayload); err != nil {
		return 0, err
	}

	encrypted, err := encrypt.EncryptCredentials(s.encryptionKey, plainPayload)
	if err != nil {
		logger.ErrorContext(ctx, "failed to encrypt credential payload: %v", err)
		return 0, ErrCredentialOnCreate
	}
	credential.EncryptedPayload = encrypted

	credentialID, err := s.repo.Create(ctx, credential)
	if err != nil {
		logger.ErrorContext(ctx, "failed to create credential: %v", err)
		return 0, ErrCredentialOnCreate
	}

	return credentialID, nil
}

// GetCredential loads a credential and enforces ownership. Requests for a
// credential owned by another user report not-found rather than denied so the
// API does not leak credential existence.
func (s *credentialService) GetCredential(ctx context.Context, credentialID domain.CredentialID, userID string) (*domain.Credential, error) {
	credential, err := s.repo.GetByID(ctx, credentialID)
	if err != nil {
		return nil, err
	}

	if credential == nil || credential.UserID != userID {
		return nil, ErrCredentialNotFound
	}

	return credential, nil
}

func (s *credentialService) ListCredentials(ctx context.Context, filter domain.CredentialFilter) ([]domain.Credential, error) {
	return s.repo.Get(ctx, filter)
}

func (s *credentialService) UpdateCredential(ctx context.Context, credential domain.Credential, plainPayload string) error {
	existing, err := s.GetCredential(ctx, credential.ID, credential.UserID)
	if err != nil {
		return err
	}

	if credential.Name == "" {
		credential.Name = existing.Name
	}
	if credential.Provider == "" {
		credential.Provider = existing.Provider
	} else if !domain.ValidProvider(credential.Provider) {
		return ErrUnsupportedProviderType
	}

	if plainPayload != "" {
		encrypted, err := encrypt.EncryptCredentials(s.encryptionKey, plainPayload)
		if err != nil {
			logger.ErrorContext(ctx, "failed to encrypt credential payload: %v", err)
			return ErrCredentialOnUpdate
		}
		credential.EncryptedPayload = encrypted
	} else {
		credential.EncryptedPayload = existing.EncryptedPayload
	}

	if err := s.repo.Update(ctx, credential); err != nil {
		logger.ErrorContext(ctx, "failed to update credential %d: %v", credential.ID, err)
		return ErrCredentialOnUpdate
	}

	return nil
}

func (s *credentialService) DeleteCredential(ctx context.Context, credentialID domain.CredentialID, userID string) error {
	if _, err := s.GetCredential(ctx, credentialID, userID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, credentialID); err != nil {
		logger.ErrorContext(ctx, "failed to delete credential %d: %v", credentialID, err)
		return ErrCredentialOnDelete
	}

	return nil
}

func (s *credentialService) GetDecryptedPayload(ctx context.Context, credentialID domain.CredentialID, userID string) (string, error) {
	credential, err := s.GetCredential(ctx, credentialID, userID)
	if err != nil {
		return "", err
	}

	plain, err := encrypt.DecryptCredentials(s.encryptionKey, credential.EncryptedPayload)
	if err != nil {
		logger.ErrorContext(ctx, "failed to decrypt credential %d: %v", credentialID, err)
		return "", ErrCredentialOnDecrypt
	}

	return plain, nil
}
