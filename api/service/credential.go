package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/clearpath-sec/cloudscan/internal/credential"
	"github.com/clearpath-sec/cloudscan/internal/credential/domain"
	credentialPort "github.com/clearpath-sec/cloudscan/internal/credential/port"
)

var (
	ErrCredentialOnCreate      = credential.ErrCredentialOnCreate
	ErrCredentialOnUpdate      = credential.ErrCredentialOnUpdate
	ErrCredentialOnDelete      = credential.ErrCredentialOnDelete
	ErrCredentialNotFound      = credential.ErrCredentialNotFound
	ErrInvalidCredentialInput  = credential.ErrInvalidCredentialInput
	ErrUnsupportedProviderType = credential.ErrUnsupportedProviderType
)

// CredentialRequest carries the plaintext payload exactly once, on the way
// in. Responses never echo it back.
type CredentialRequest struct {
	Name     string          `json:"name"`
	Provider string          `json:"provider"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

type CredentialResponse struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Provider  string     `json:"provider"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

type CredentialListResponse struct {
	Credentials []CredentialResponse `json:"credentials"`
}

type CredentialService struct {
	service credentialPort.Service
}

func NewCredentialService(srv credentialPort.Service) *CredentialService {
	return &CredentialService{service: srv}
}

func (s *CredentialService) Create(ctx context.Context, userID string, req *CredentialRequest) (*CredentialResponse, error) {
	id, err := s.service.CreateCredential(ctx, domain.Credential{
		UserID:   userID,
		Name:     req.Name,
		Provider: domain.Provider(req.Provider),
	}, string(req.Payload))
	if err != nil {
		return nil, err
	}

	created, err := s.service.GetCredential(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return credentialToResponse(created), nil
}

func (s *CredentialService) Get(ctx context.Context, credentialID int64, userID string) (*CredentialResponse, error) {
	c, err := s.service.GetCredential(ctx, credentialID, userID)
	if err != nil {
		return nil, err
	}
	return credentialToResponse(c), nil
}

func (s *CredentialService) List(ctx context.Context, userID, provider string) (*CredentialListResponse, error) {
	credentials, err := s.service.ListCredentials(ctx, domain.CredentialFilter{
		UserID:   userID,
		Provider: domain.Provider(provider),
	})
	if err != nil {
		return nil, err
	}

	resp := &CredentialListResponse{Credentials: make([]CredentialResponse, 0, len(credentials))}
	for i := range credentials {
		resp.Credentials = append(resp.Credentials, *credentialToResponse(&credentials[i]))
	}
	return resp, nil
}

func (s *CredentialService) Update(ctx context.Context, credentialID int64, userID string, req *CredentialRequest) (*CredentialResponse, error) {
	err := s.service.UpdateCredential(ctx, domain.Credential{
		ID:       credentialID,
		UserID:   userID,
		Name:     req.Name,
		Provider: domain.Provider(req.Provider),
	}, string(req.Payload))
	if err != nil {
		return nil, err
	}

	updated, err := s.service.GetCredential(ctx, credentialID, userID)
	if err != nil {
		return nil, err
	}
	return credentialToResponse(updated), nil
}

func (s *CredentialService) Delete(ctx context.Context, credentialID int64, userID string) error {
	return s.service.DeleteCredential(ctx, credentialID, userID)
}

func credentialToResponse(c *domain.Credential) *CredentialResponse {
	resp := &CredentialResponse{
		ID:        c.ID,
		Name:      c.Name,
		Provider:  string(c.Provider),
		CreatedAt: c.CreatedAt,
	}
	if !c.UpdatedAt.IsZero() {
		updatedAt := c.UpdatedAt
		resp.UpdatedAt = &updatedAt
	}
	return resp
}
