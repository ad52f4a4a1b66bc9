package mapper

import (
	"encoding/json"

	credentialDomain "github.com/clearpath-sec/cloudscan/internal/credential/domain"
	"github.com/clearpath-sec/cloudscan/internal/policy/domain"
	scanDomain "github.com/clearpath-sec/cloudscan/internal/scan/domain"
	"github.com/clearpath-sec/cloudscan/pkg/adapter/storage/types"
)

func PolicyDomain2Storage(policy domain.Policy) (*types.ScanPolicy, error) {
	definition, err := json.Marshal(policy.Definition)
	if err != nil {
		return nil, err
	}

	return &types.ScanPolicy{
		ID:          policy.ID,
		UserID:      policy.UserID,
		Name:        policy.Name,
		Description: policy.Description,
		Provider:    string(policy.Provider),
		Tool:        string(policy.Tool),
		Definition:  string(definition),
		CreatedAt:   policy.CreatedAt,
		UpdatedAt:   timePtrOrNil(policy.UpdatedAt),
		DeletedAt:   timePtrOrNil(policy.DeletedAt),
	}, nil
}

func PolicyStorage2Domain(policy types.ScanPolicy) (*domain.Policy, error) {
	var definition domain.Definition
	if policy.Definition != "" {
		if err := json.Unmarshal([]byte(policy.Definition), &definition); err != nil {
			return nil, err
		}
	}

	return &domain.Policy{
		ID:          policy.ID,
		UserID:      policy.UserID,
		Name:        policy.Name,
		Description: policy.Description,
		Provider:    credentialDomain.Provider(policy.Provider),
		Tool:        scanDomain.Tool(policy.Tool),
		Definition:  definition,
		CreatedAt:   policy.CreatedAt,
		UpdatedAt:   timeOrZero(policy.UpdatedAt),
		DeletedAt:   timeOrZero(policy.DeletedAt),
	}, nil
}
