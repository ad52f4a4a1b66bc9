package policy

import (
	"context"
	"errors"

	credentialDomain "github.com/clearpath-sec/cloudscan/internal/credential/domain"
	"github.com/clearpath-sec/cloudscan/internal/policy/domain"
	policyPort "github.com/clearpath-sec/cloudscan/internal/policy/port"
	scanDomain "github.com/clearpath-sec/cloudscan/internal/scan/domain"
	"github.com/clearpath-sec/cloudscan/pkg/logger"
)

var (
	ErrPolicyOnCreate     = errors.New("error on creating new policy")
	ErrPolicyOnUpdate     = errors.New("error on updating policy")
	ErrPolicyOnDelete     = errors.New("error on deleting policy")
	ErrPolicyNotFound     = errors.New("policy not found")
	ErrInvalidPolicyInput = errors.New("invalid policy input")
	ErrPolicyToolMismatch = errors.New("tool does not support the policy provider")
)

// toolProviders enumerates which providers each tool can scan. Used to
// reject policies that pair a tool with a provider it cannot handle.
var toolProviders = map[scanDomain.Tool][]credentialDomain.Provider{
	scanDomain.ToolProwler:     {credentialDomain.ProviderAWS, credentialDomain.ProviderAzure, credentialDomain.ProviderGCP},
	scanDomain.ToolCloudSploit: {credentialDomain.ProviderAWS, credentialDomain.ProviderAzure, credentialDomain.ProviderGCP},
	scanDomain.ToolGCPSCC:      {credentialDomain.ProviderGCP},
}

// ToolSupportsProvider reports whether tool can scan the given provider.
func ToolSupportsProvider(tool scanDomain.Tool, provider credentialDomain.Provider) bool {
	for _, p := range toolProviders[tool] {
		if p == provider {
			return true
		}
	}
	return false
}

type policyService struct {
	repo policyPort.Repo
}

func NewPolicyService(repo policyPort.Repo) policyPort.Service {
	return &policyService{
		repo: repo,
	}
}

func (s *policyService) validatePolicy(policy *domain.Policy) error {
	if policy.Name == "" {
		return ErrInvalidPolicyInput
	}
	if !credentialDomain.ValidProvider(policy.Provider) {
		return ErrInvalidPolicyInput
	}

	policy.Tool = scanDomain.NormalizeTool(string(policy.Tool))
	if _, ok := toolProviders[policy.Tool]; !ok {
		return ErrInvalidPolicyInput
	}
	if !ToolSupportsProvider(policy.Tool, policy.Provider) {
		return ErrPolicyToolMismatch
	}

	if threshold := policy.Definition.SeverityThreshold; threshold != "" {
		if scanDomain.NormalizeSeverity(threshold) == scanDomain.SeverityUnknown {
			return ErrInvalidPolicyInput
		}
	}

	return nil
}

func (s *policyService) CreatePolicy(ctx context.Context, policy domain.Policy) (domain.PolicyID, error) {
	if err := s.validatePolicy(&policy); err != nil {
		return 0, err
	}

	policyID, err := s.repo.Create(ctx, policy)
	if err != nil {
		logger.ErrorContext(ctx, "failed to create policy: %v", err)
		return 0, ErrPolicyOnCreate
	}

	return policyID, nil
}

func (s *policyService) GetPolicy(ctx context.Context, policyID domain.PolicyID, userID string) (*domain.Policy, error) {
	policy, err := s.repo.GetByID(ctx, policyID)
	if err != nil {
		return nil, err
	}

	if policy == nil || policy.UserID != userID {
		return nil, ErrPolicyNotFound
	}

	return policy, nil
}

func (s *policyService) ListPolicies(ctx context.Context, filter domain.PolicyFilter) ([]domain.Policy, error) {
	return s.repo.Get(ctx, filter)
}

func (s *policyService) UpdatePolicy(ctx context.Context, policy domain.Policy) error {
	existing, err := s.GetPolicy(ctx, policy.ID, policy.UserID)
	if err != nil {
		return err
	}

	if policy.Name == "" {
		policy.Name = existing.Name
	}
	if policy.Provider == "" {
		policy.Provider = existing.Provider
	}
	if policy.Tool == "" {
		policy.Tool = existing.Tool
	}

	if err := s.validatePolicy(&policy); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, policy); err != nil {
		logger.ErrorContext(ctx, "failed to update policy %d: %v", policy.ID, err)
		return ErrPolicyOnUpdate
	}

	return nil
}

func (s *policyService) DeletePolicy(ctx context.Context, policyID domain.PolicyID, userID string) error {
	if _, err := s.GetPolicy(ctx, policyID, userID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, policyID); err != nil {
		logger.ErrorContext(ctx, "failed to delete policy %d: %v", policyID, err)
		return ErrPolicyOnDelete
	}

	return nil
}
