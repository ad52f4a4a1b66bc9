package port

import (
	"context"

	"github.com/clearpath-sec/cloudscan/internal/policy/domain"
)

type Service interface {
	CreatePolicy(ctx context.Context, policy domain.Policy) (domain.PolicyID, error)
	GetPolicy(ctx context.Context, policyID domain.PolicyID, userID string) (*domain.Policy, error)
	ListPolicies(ctx context.Context, filter domain.PolicyFilter) ([]domain.Policy, error)
	UpdatePolicy(ctx context.Context, policy domain.Policy) error
	DeletePolicy(ctx context.Context, policyID domain.PolicyID, userID string) error
}
