package scan_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	credentialDomain "github.com/clearpath-sec/cloudscan/internal/credential/domain"
	policyDomain "github.com/clearpath-sec/cloudscan/internal/policy/domain"
	queueDomain "github.com/clearpath-sec/cloudscan/internal/queue/domain"
	"github.com/clearpath-sec/cloudscan/internal/scan"
	"github.com/clearpath-sec/cloudscan/internal/scan/domain"
	scanPort "github.com/clearpath-sec/cloudscan/internal/scan/port"
)

type mockScanRepo struct {
	mock.Mock
}

func (m *mockScanRepo) Create(ctx context.Context, s domain.Scan) (domain.ScanID, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(domain.ScanID), args.Error(1)
}

func (m *mockScanRepo) GetByID(ctx context.Context, scanID domain.ScanID) (*domain.Scan, error) {
	args := m.Called(ctx, scanID)
	if s := args.Get(0); s != nil {
		return s.(*domain.Scan), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockScanRepo) Get(ctx context.Context, filter domain.ScanFilter) ([]domain.Scan, error) {
	args := m.Called(ctx, filter)
	if s := args.Get(0); s != nil {
		return s.([]domain.Scan), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockScanRepo) Update(ctx context.Context, s domain.Scan) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockScanRepo) SaveFindings(ctx context.Context, findings []domain.Finding) error {
	return m.Called(ctx, findings).Error(0)
}

func (m *mockScanRepo) GetFindings(ctx context.Context, scanID domain.ScanID) ([]domain.Finding, error) {
	args := m.Called(ctx, scanID)
	if f := args.Get(0); f != nil {
		return f.([]domain.Finding), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockCredentialService struct {
	mock.Mock
}

func (m *mockCredentialService) CreateCredential(ctx context.Context, c credentialDomain.Credential, plainPayload string) (credentialDomain.CredentialID, error) {
	args := m.Called(ctx, c, plainPayload)
	return args.Get(0).(credentialDomain.CredentialID), args.Error(1)
}

func (m *mockCredentialService) GetCredential(ctx context.Context, credentialID credentialDomain.CredentialID, userID string) (*credentialDomain.Credential, error) {
	args := m.Called(ctx, credentialID, userID)
	if c := args.Get(0); c != nil {
		return c.(*credentialDomain.Credential), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCredentialService) ListCredentials(ctx context.Context, filter credentialDomain.CredentialFilter) ([]credentialDomain.Credential, error) {
	args := m.Called(ctx, filter)
	if c := args.Get(0); c != nil {
		return c.([]credentialDomain.Credential), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCredentialService) UpdateCredential(ctx context.Context, c credentialDomain.Credential, plainPayload string) error {
	return m.Called(ctx, c, plainPayload).Error(0)
}

func (m *mockCredentialService) DeleteCredential(ctx context.Context, credentialID credentialDomain.CredentialID, userID string) error {
	return m.Called(ctx, credentialID, userID).Error(0)
}

func (m *mockCredentialService) GetDecryptedPayload(ctx context.Context, credentialID credentialDomain.CredentialID, userID string) (string, error) {
	args := m.Called(ctx, credentialID, userID)
	return args.String(0), args.Error(1)
}

type mockPolicyService struct {
	mock.Mock
}

func (m *mockPolicyService) CreatePolicy(ctx context.Context, p policyDomain.Policy) (policyDomain.PolicyID, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(policyDomain.PolicyID), args.Error(1)
}

func (m *mockPolicyService) GetPolicy(ctx context.Context, policyID policyDomain.PolicyID, userID string) (*policyDomain.Policy, error) {
	args := m.Called(ctx, policyID, userID)
	if p := args.Get(0); p != nil {
		return p.(*policyDomain.Policy), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPolicyService) ListPolicies(ctx context.Context, filter policyDomain.PolicyFilter) ([]policyDomain.Policy, error) {
	args := m.Called(ctx, filter)
	if p := args.Get(0); p != nil {
		return p.([]policyDomain.Policy), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPolicyService) UpdatePolicy(ctx context.Context, p policyDomain.Policy) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockPolicyService) DeletePolicy(ctx context.Context, policyID policyDomain.PolicyID, userID string) error {
	return m.Called(ctx, policyID, userID).Error(0)
}

type mockEnqueuer struct {
	mock.Mock
}

func (m *mockEnqueuer) Enqueue(ctx context.Context, payload queueDomain.ScanJobPayload) (queueDomain.JobID, error) {
	args := m.Called(ctx, payload)
	return args.Get(0).(queueDomain.JobID), args.Error(1)
}

func awsCredential(id credentialDomain.CredentialID, userID string) *credentialDomain.Credential {
	return &credentialDomain.Credential{
		ID:       id,
		UserID:   userID,
		Name:     "aws prod",
		Provider: credentialDomain.ProviderAWS,
	}
}

func TestScanService_SubmitScan(t *testing.T) {
	ctx := context.Background()
	userID := "user-1"

	t.Run("successful submission enqueues a job", func(t *testing.T) {
		repo := new(mockScanRepo)
		credentials := new(mockCredentialService)
		policies := new(mockPolicyService)
		enqueuer := new(mockEnqueuer)

		credentials.On("GetCredential", mock.Anything, int64(7), userID).
			Return(awsCredential(7, userID), nil)
		repo.On("Create", mock.Anything, mock.MatchedBy(func(s domain.Scan) bool {
			return s.Status == domain.StatusQueued &&
				s.Provider == credentialDomain.ProviderAWS &&
				s.StartedAt == nil
		})).Return(int64(42), nil)
		enqueuer.On("Enqueue", mock.Anything, mock.MatchedBy(func(p queueDomain.ScanJobPayload) bool {
			return p.ScanID == 42 && p.UserID == userID && p.Tool == domain.ToolProwler
		})).Return(int64(1), nil)

		svc := scan.NewScanService(repo, credentials, policies, enqueuer)
		scanID, err := svc.SubmitScan(ctx, domain.Scan{
			UserID:       userID,
			CredentialID: 7,
			Tool:         domain.ToolProwler,
		})

		require.NoError(t, err)
		assert.Equal(t, int64(42), scanID)
		repo.AssertExpectations(t)
		enqueuer.AssertExpectations(t)
	})

	t.Run("missing credential ID is rejected", func(t *testing.T) {
		svc := scan.NewScanService(new(mockScanRepo), new(mockCredentialService), new(mockPolicyService), new(mockEnqueuer))

		_, err := svc.SubmitScan(ctx, domain.Scan{UserID: userID, Tool: domain.ToolProwler})
		assert.ErrorIs(t, err, scan.ErrInvalidScanInput)
	})

	t.Run("gcp_scc rejects non-gcp credential", func(t *testing.T) {
		repo := new(mockScanRepo)
		credentials := new(mockCredentialService)

		credentials.On("GetCredential", mock.Anything, int64(7), userID).
			Return(awsCredential(7, userID), nil)

		svc := scan.NewScanService(repo, credentials, new(mockPolicyService), new(mockEnqueuer))
		_, err := svc.SubmitScan(ctx, domain.Scan{
			UserID:       userID,
			CredentialID: 7,
			Tool:         domain.ToolGCPSCC,
		})

		assert.ErrorIs(t, err, scan.ErrToolProviderPair)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("policy provider mismatch is rejected", func(t *testing.T) {
		repo := new(mockScanRepo)
		credentials := new(mockCredentialService)
		policies := new(mockPolicyService)
		policyID := int64(3)

		credentials.On("GetCredential", mock.Anything, int64(7), userID).
			Return(awsCredential(7, userID), nil)
		policies.On("GetPolicy", mock.Anything, policyID, userID).
			Return(&policyDomain.Policy{
				ID:       policyID,
				UserID:   userID,
				Provider: credentialDomain.ProviderAzure,
				Tool:     domain.ToolProwler,
			}, nil)

		svc := scan.NewScanService(repo, credentials, policies, new(mockEnqueuer))
		_, err := svc.SubmitScan(ctx, domain.Scan{
			UserID:       userID,
			CredentialID: 7,
			PolicyID:     &policyID,
			Tool:         domain.ToolProwler,
		})

		assert.ErrorIs(t, err, scan.ErrPolicyMismatch)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("enqueue failure marks the scan failed", func(t *testing.T) {
		repo := new(mockScanRepo)
		credentials := new(mockCredentialService)
		enqueuer := new(mockEnqueuer)

		credentials.On("GetCredential", mock.Anything, int64(7), userID).
			Return(awsCredential(7, userID), nil)
		repo.On("Create", mock.Anything, mock.Anything).Return(int64(42), nil)
		enqueuer.On("Enqueue", mock.Anything, mock.Anything).
			Return(int64(0), errors.New("queue unavailable"))
		repo.On("GetByID", mock.Anything, int64(42)).
			Return(&domain.Scan{ID: 42, UserID: userID, Status: domain.StatusQueued}, nil)
		repo.On("Update", mock.Anything, mock.MatchedBy(func(s domain.Scan) bool {
			return s.Status == domain.StatusFailed && s.ErrorMessage != ""
		})).Return(nil)

		svc := scan.NewScanService(repo, credentials, new(mockPolicyService), enqueuer)
		_, err := svc.SubmitScan(ctx, domain.Scan{
			UserID:       userID,
			CredentialID: 7,
			Tool:         domain.ToolProwler,
		})

		assert.ErrorIs(t, err, scan.ErrScanOnCreate)
		repo.AssertExpectations(t)
	})
}

func TestScanService_Transitions(t *testing.T) {
	ctx := context.Background()

	newService := func(current domain.Status) (*mockScanRepo, *domain.Scan, scanPort.Service) {
		repo := new(mockScanRepo)
		existing := &domain.Scan{ID: 1, UserID: "user-1", Status: current}
		repo.On("GetByID", mock.Anything, int64(1)).Return(existing, nil)
		svc := scan.NewScanService(repo, new(mockCredentialService), new(mockPolicyService), new(mockEnqueuer))
		return repo, existing, svc
	}

	t.Run("queued to in_progress sets started_at", func(t *testing.T) {
		repo, _, svc := newService(domain.StatusQueued)
		repo.On("Update", mock.Anything, mock.MatchedBy(func(s domain.Scan) bool {
			return s.Status == domain.StatusInProgress && s.StartedAt != nil && s.CompletedAt == nil
		})).Return(nil)

		updated, err := svc.MarkInProgress(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusInProgress, updated.Status)
		repo.AssertExpectations(t)
	})

	t.Run("completed only from parsing_output", func(t *testing.T) {
		_, _, svc := newService(domain.StatusInProgress)
		_, err := svc.MarkCompleted(ctx, 1)
		assert.ErrorIs(t, err, scan.ErrInvalidTransition)
	})

	t.Run("failure sets completed_at and truncates message", func(t *testing.T) {
		repo, _, svc := newService(domain.StatusInProgress)
		long := make([]byte, domain.MaxErrorMessageLen+200)
		for i := range long {
			long[i] = 'x'
		}
		repo.On("Update", mock.Anything, mock.MatchedBy(func(s domain.Scan) bool {
			return s.Status == domain.StatusFailedExecution &&
				s.CompletedAt != nil &&
				len(s.ErrorMessage) == domain.MaxErrorMessageLen
		})).Return(nil)

		_, err := svc.MarkFailed(ctx, 1, domain.StatusFailedExecution, string(long))
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("failed scan can retry into in_progress", func(t *testing.T) {
		repo, _, svc := newService(domain.StatusFailedExecution)
		repo.On("Update", mock.Anything, mock.MatchedBy(func(s domain.Scan) bool {
			return s.Status == domain.StatusInProgress && s.ErrorMessage == ""
		})).Return(nil)

		_, err := svc.MarkInProgress(ctx, 1)
		require.NoError(t, err)
	})

	t.Run("completed scan never transitions again", func(t *testing.T) {
		_, _, svc := newService(domain.StatusCompleted)
		_, err := svc.MarkInProgress(ctx, 1)
		assert.ErrorIs(t, err, scan.ErrInvalidTransition)

		_, err = svc.MarkFailed(ctx, 1, domain.StatusFailed, "late failure")
		assert.ErrorIs(t, err, scan.ErrInvalidTransition)
	})

	t.Run("non-failure status rejected by MarkFailed", func(t *testing.T) {
		_, _, svc := newService(domain.StatusInProgress)
		_, err := svc.MarkFailed(ctx, 1, domain.StatusCompleted, "")
		assert.ErrorIs(t, err, scan.ErrInvalidTransition)
	})
}

func TestScanService_GetScan(t *testing.T) {
	ctx := context.Background()

	t.Run("other user's scan reports not found", func(t *testing.T) {
		repo := new(mockScanRepo)
		repo.On("GetByID", mock.Anything, int64(1)).
			Return(&domain.Scan{ID: 1, UserID: "owner"}, nil)

		svc := scan.NewScanService(repo, new(mockCredentialService), new(mockPolicyService), new(mockEnqueuer))
		_, err := svc.GetScan(ctx, 1, "intruder")
		assert.ErrorIs(t, err, scan.ErrScanNotFound)
	})

	t.Run("findings require scan ownership", func(t *testing.T) {
		repo := new(mockScanRepo)
		repo.On("GetByID", mock.Anything, int64(1)).
			Return(&domain.Scan{ID: 1, UserID: "owner"}, nil)
		repo.On("GetFindings", mock.Anything, int64(1)).
			Return([]domain.Finding{{ID: 10, ScanID: 1, Severity: domain.SeverityHigh}}, nil)

		svc := scan.NewScanService(repo, new(mockCredentialService), new(mockPolicyService), new(mockEnqueuer))

		findings, err := svc.GetScanFindings(ctx, 1, "owner")
		require.NoError(t, err)
		assert.Len(t, findings, 1)

		_, err = svc.GetScanFindings(ctx, 1, "intruder")
		assert.ErrorIs(t, err, scan.ErrScanNotFound)
	})
}
