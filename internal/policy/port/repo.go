package port

import (
	"context"

	"github.com/clearpath-sec/cloudscan/internal/policy/domain"
)

type Repo interface {
	Create(ctx context.Context, policy domain.Policy) (domain.PolicyID, error)
	GetByID(ctx context.Context, policyID domain.PolicyID) (*domain.Policy, error)
	Get(ctx context.Context, filter domain.PolicyFilter) ([]domain.Policy, error)
	Update(ctx context.Context, policy domain.Policy) error
	Delete(ctx context.Context, policyID domain.PolicyID) error
}
