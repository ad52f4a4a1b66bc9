package service

import (
	"context"
	"time"

	"github.com/clearpath-sec/cloudscan/internal/policy"
	policyDomain "github.com/clearpath-sec/cloudscan/internal/policy/domain"
	policyPort "github.com/clearpath-sec/cloudscan/internal/policy/port"
	credentialDomain "github.com/clearpath-sec/cloudscan/internal/credential/domain"
	scanDomain "github.com/clearpath-sec/cloudscan/internal/scan/domain"
)

var (
	ErrPolicyOnCreate     = policy.ErrPolicyOnCreate
	ErrPolicyOnUpdate     = policy.ErrPolicyOnUpdate
	ErrPolicyOnDelete     = policy.ErrPolicyOnDelete
	ErrPolicyNotFound     = policy.ErrPolicyNotFound
	ErrInvalidPolicyInput = policy.ErrInvalidPolicyInput
	ErrPolicyToolMismatch = policy.ErrPolicyToolMismatch
)

type PolicyRequest struct {
	Name        string                  `json:"name"`
	Description string                  `json:"description,omitempty"`
	Provider    string                  `json:"provider"`
	Tool        string                  `json:"tool"`
	Definition  policyDomain.Definition `json:"definition"`
}

type PolicyResponse struct {
	ID          int64                   `json:"id"`
	Name        string                  `json:"name"`
	Description string                  `json:"description,omitempty"`
	Provider    string                  `json:"provider"`
	Tool        string                  `json:"tool"`
	Definition  policyDomain.Definition `json:"definition"`
	CreatedAt   time.Time               `json:"createdAt"`
	UpdatedAt   *time.Time              `json:"updatedAt,omitempty"`
}

type PolicyListResponse struct {
	Policies []PolicyResponse `json:"policies"`
}

type PolicyService struct {
	service policyPort.Service
}

func NewPolicyService(srv policyPort.Service) *PolicyService {
	return &PolicyService{service: srv}
}

func (s *PolicyService) Create(ctx context.Context, userID string, req *PolicyRequest) (*PolicyResponse, error) {
	id, err := s.service.CreatePolicy(ctx, domainPolicyFromRequest(0, userID, req))
	if err != nil {
		return nil, err
	}

	created, err := s.service.GetPolicy(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return policyToResponse(created), nil
}

func (s *PolicyService) Get(ctx context.Context, policyID int64, userID string) (*PolicyResponse, error) {
	p, err := s.service.GetPolicy(ctx, policyID, userID)
	if err != nil {
		return nil, err
	}
	return policyToResponse(p), nil
}

func (s *PolicyService) List(ctx context.Context, userID, provider, tool string) (*PolicyListResponse, error) {
	policies, err := s.service.ListPolicies(ctx, policyDomain.PolicyFilter{
		UserID:   userID,
		Provider: credentialDomain.Provider(provider),
		Tool:     scanDomain.NormalizeTool(tool),
	})
	if err != nil {
		return nil, err
	}

	resp := &PolicyListResponse{Policies: make([]PolicyResponse, 0, len(policies))}
	for i := range policies {
		resp.Policies = append(resp.Policies, *policyToResponse(&policies[i]))
	}
	return resp, nil
}

func (s *PolicyService) Update(ctx context.Context, policyID int64, userID string, req *PolicyRequest) (*PolicyResponse, error) {
	if err := s.service.UpdatePolicy(ctx, domainPolicyFromRequest(policyID, userID, req)); err != nil {
		return nil, err
	}

	updated, err := s.service.GetPolicy(ctx, policyID, userID)
	if err != nil {
		return nil, err
	}
	return policyToResponse(updated), nil
}

func (s *PolicyService) Delete(ctx context.Context, policyID int64, userID string) error {
	return s.service.DeletePolicy(ctx, policyID, userID)
}

func domainPolicyFromRequest(id int64, userID string, req *PolicyRequest) policyDomain.Policy {
	return policyDomain.Policy{
		ID:          id,
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		Provider:    credentialDomain.Provider(req.Provider),
		Tool:        scanDomain.NormalizeTool(req.Tool),
		Definition:  req.Definition,
	}
}

func policyToResponse(p *policyDomain.Policy) *PolicyResponse {
	resp := &PolicyResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Provider:    string(p.Provider),
		Tool:        string(p.Tool),
		Definition:  p.Definition,
		CreatedAt:   p.CreatedAt,
	}
	if !p.UpdatedAt.IsZero() {
		updatedAt := p.UpdatedAt
		resp.UpdatedAt = &updatedAt
	}
	return resp
}
