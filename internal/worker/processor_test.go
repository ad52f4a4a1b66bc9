package worker_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	credentialDomain "github.com/clearpath-sec/cloudscan/internal/credential/domain"
	policyDomain "github.com/clearpath-sec/cloudscan/internal/policy/domain"
	queueDomain "github.com/clearpath-sec/cloudscan/internal/queue/domain"
	"github.com/clearpath-sec/cloudscan/internal/scan"
	scanDomain "github.com/clearpath-sec/cloudscan/internal/scan/domain"
	"github.com/clearpath-sec/cloudscan/internal/scanner"
	scannerDomain "github.com/clearpath-sec/cloudscan/internal/scanner/domain"
	"github.com/clearpath-sec/cloudscan/internal/worker"
)

type mockScanService struct {
	mock.Mock
}

func (m *mockScanService) SubmitScan(ctx context.Context, s scanDomain.Scan) (scanDomain.ScanID, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(scanDomain.ScanID), args.Error(1)
}

func (m *mockScanService) GetScan(ctx context.Context, scanID scanDomain.ScanID, userID string) (*scanDomain.Scan, error) {
	args := m.Called(ctx, scanID, userID)
	if s := args.Get(0); s != nil {
		return s.(*scanDomain.Scan), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockScanService) ListScans(ctx context.Context, filter scanDomain.ScanFilter) ([]scanDomain.Scan, error) {
	args := m.Called(ctx, filter)
	return nil, args.Error(1)
}

func (m *mockScanService) GetScanFindings(ctx context.Context, scanID scanDomain.ScanID, userID string) ([]scanDomain.Finding, error) {
	args := m.Called(ctx, scanID, userID)
	return nil, args.Error(1)
}

func (m *mockScanService) MarkInProgress(ctx context.Context, scanID scanDomain.ScanID) (*scanDomain.Scan, error) {
	args := m.Called(ctx, scanID)
	if s := args.Get(0); s != nil {
		return s.(*scanDomain.Scan), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockScanService) MarkParsingOutput(ctx context.Context, scanID scanDomain.ScanID) (*scanDomain.Scan, error) {
	args := m.Called(ctx, scanID)
	if s := args.Get(0); s != nil {
		return s.(*scanDomain.Scan), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockScanService) MarkCompleted(ctx context.Context, scanID scanDomain.ScanID) (*scanDomain.Scan, error) {
	args := m.Called(ctx, scanID)
	if s := args.Get(0); s != nil {
		return s.(*scanDomain.Scan), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockScanService) MarkFailed(ctx context.Context, scanID scanDomain.ScanID, status scanDomain.Status, errorMessage string) (*scanDomain.Scan, error) {
	args := m.Called(ctx, scanID, status, errorMessage)
	if s := args.Get(0); s != nil {
		return s.(*scanDomain.Scan), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockScanService) SaveFindings(ctx context.Context, scanID scanDomain.ScanID, findings []scanDomain.Finding) error {
	return m.Called(ctx, scanID, findings).Error(0)
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
	return nil, args.Error(1)
}

func (m *mockCredentialService) ListCredentials(ctx context.Context, filter credentialDomain.CredentialFilter) ([]credentialDomain.Credential, error) {
	args := m.Called(ctx, filter)
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
	return nil, args.Error(1)
}

func (m *mockPolicyService) UpdatePolicy(ctx context.Context, p policyDomain.Policy) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockPolicyService) DeletePolicy(ctx context.Context, policyID policyDomain.PolicyID, userID string) error {
	return m.Called(ctx, policyID, userID).Error(0)
}

// fakeScanner lets tests script the Run and ParseOutput outcomes.
type fakeScanner struct {
	tool      scanDomain.Tool
	providers []credentialDomain.Provider
	runErr    error
	parseErr  error
	findings  []scanDomain.Finding
	lastOpts  scannerDomain.RunOptions
}

func (f *fakeScanner) ToolName() scanDomain.Tool { return f.tool }

func (f *fakeScanner) SupportedProviders() []credentialDomain.Provider { return f.providers }

func (f *fakeScanner) Run(ctx context.Context, opts scannerDomain.RunOptions) (*scannerDomain.RunResult, error) {
	f.lastOpts = opts
	if f.runErr != nil {
		return nil, f.runErr
	}
	return &scannerDomain.RunResult{RawOutputPaths: []string{"/tmp/report.json"}}, nil
}

func (f *fakeScanner) ParseOutput(ctx context.Context, paths []string, scanID scanDomain.ScanID) ([]scanDomain.Finding, error) {
	if f.parseErr != nil {
		return nil, f.parseErr
	}
	return f.findings, nil
}

type recordingPublisher struct {
	updates []string
}

func (r *recordingPublisher) PublishScanUpdate(userID string, scan *scanDomain.Scan, message string) {
	r.updates = append(r.updates, fmt.Sprintf("%s:%s", userID, scan.Status))
}

type recordingArtifactStore struct {
	uploads [][]string
	err     error
}

func (r *recordingArtifactStore) UploadScanArtifacts(ctx context.Context, scanID scanDomain.ScanID, paths []string) error {
	r.uploads = append(r.uploads, paths)
	return r.err
}

func testPayload() queueDomain.ScanJobPayload {
	return queueDomain.ScanJobPayload{
		ScanID:       42,
		UserID:       "user-1",
		CredentialID: 7,
		Provider:     credentialDomain.ProviderAWS,
		Tool:         scanDomain.ToolProwler,
	}
}

func scanInStatus(status scanDomain.Status) *scanDomain.Scan {
	return &scanDomain.Scan{ID: 42, UserID: "user-1", Status: status}
}

func awsFakeScanner() *fakeScanner {
	return &fakeScanner{
		tool: scanDomain.ToolProwler,
		providers: []credentialDomain.Provider{
			credentialDomain.ProviderAWS,
			credentialDomain.ProviderAzure,
			credentialDomain.ProviderGCP,
		},
		findings: []scanDomain.Finding{{Severity: scanDomain.SeverityHigh, Category: "iam"}},
	}
}

func TestProcessor_SuccessfulScan(t *testing.T) {
	scans := new(mockScanService)
	credentials := new(mockCredentialService)
	backend := awsFakeScanner()
	publisher := &recordingPublisher{}
	artifacts := &recordingArtifactStore{}

	scans.On("MarkInProgress", mock.Anything, int64(42)).Return(scanInStatus(scanDomain.StatusInProgress), nil)
	credentials.On("GetDecryptedPayload", mock.Anything, int64(7), "user-1").Return(`{"accessKeyId":"AKIA"}`, nil)
	scans.On("MarkParsingOutput", mock.Anything, int64(42)).Return(scanInStatus(scanDomain.StatusParsingOutput), nil)
	scans.On("SaveFindings", mock.Anything, int64(42), backend.findings).Return(nil)
	scans.On("MarkCompleted", mock.Anything, int64(42)).Return(scanInStatus(scanDomain.StatusCompleted), nil)

	p := worker.NewProcessor(scans, credentials, new(mockPolicyService),
		scanner.NewRegistry(backend), publisher, artifacts, "out")

	err := p.Process(context.Background(), testPayload())

	require.NoError(t, err)
	scans.AssertExpectations(t)
	assert.Equal(t, []string{
		"user-1:in_progress",
		"user-1:parsing_output",
		"user-1:completed",
	}, publisher.updates)
	assert.Len(t, artifacts.uploads, 1)
	assert.Equal(t, `{"accessKeyId":"AKIA"}`, backend.lastOpts.CredentialsJSON)
}

func TestProcessor_DuplicateDeliveryIsSkipped(t *testing.T) {
	scans := new(mockScanService)
	scans.On("MarkInProgress", mock.Anything, int64(42)).Return(nil, scan.ErrInvalidTransition)

	p := worker.NewProcessor(scans, new(mockCredentialService), new(mockPolicyService),
		scanner.NewRegistry(awsFakeScanner()), nil, nil, "out")

	err := p.Process(context.Background(), testPayload())

	// Duplicate deliveries complete the job instead of burning a retry.
	assert.NoError(t, err)
}

func TestProcessor_CredentialDecryptFailure(t *testing.T) {
	scans := new(mockScanService)
	credentials := new(mockCredentialService)
	publisher := &recordingPublisher{}

	scans.On("MarkInProgress", mock.Anything, int64(42)).Return(scanInStatus(scanDomain.StatusInProgress), nil)
	credentials.On("GetDecryptedPayload", mock.Anything, int64(7), "user-1").
		Return("", errors.New("decrypt failed"))
	scans.On("MarkFailed", mock.Anything, int64(42), scanDomain.StatusFailedAuth, mock.Anything).
		Return(scanInStatus(scanDomain.StatusFailedAuth), nil)

	p := worker.NewProcessor(scans, credentials, new(mockPolicyService),
		scanner.NewRegistry(awsFakeScanner()), publisher, nil, "out")

	err := p.Process(context.Background(), testPayload())

	assert.Error(t, err)
	scans.AssertExpectations(t)
	assert.Contains(t, publisher.updates, "user-1:failed_auth")
}

func TestProcessor_RunFailureClassification(t *testing.T) {
	tests := []struct {
		name       string
		runErr     error
		wantStatus scanDomain.Status
	}{
		{
			name:       "auth error maps to failed_auth",
			runErr:     fmt.Errorf("%w: InvalidClientTokenId", scanner.ErrAuthenticationFailed),
			wantStatus: scanDomain.StatusFailedAuth,
		},
		{
			name:       "execution error maps to failed_execution",
			runErr:     fmt.Errorf("%w: exit status 2", scanner.ErrExecutionFailed),
			wantStatus: scanDomain.StatusFailedExecution,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scans := new(mockScanService)
			credentials := new(mockCredentialService)
			backend := awsFakeScanner()
			backend.runErr = tt.runErr

			scans.On("MarkInProgress", mock.Anything, int64(42)).Return(scanInStatus(scanDomain.StatusInProgress), nil)
			credentials.On("GetDecryptedPayload", mock.Anything, int64(7), "user-1").Return("{}", nil)
			scans.On("MarkFailed", mock.Anything, int64(42), tt.wantStatus, mock.Anything).
				Return(scanInStatus(tt.wantStatus), nil)

			p := worker.NewProcessor(scans, credentials, new(mockPolicyService),
				scanner.NewRegistry(backend), nil, nil, "out")

			err := p.Process(context.Background(), testPayload())

			assert.ErrorIs(t, err, tt.runErr)
			scans.AssertExpectations(t)
			scans.AssertNotCalled(t, "SaveFindings", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestProcessor_ParseFailure(t *testing.T) {
	scans := new(mockScanService)
	credentials := new(mockCredentialService)
	backend := awsFakeScanner()
	backend.parseErr = fmt.Errorf("%w: unexpected end of JSON input", scanner.ErrParsingFailed)

	scans.On("MarkInProgress", mock.Anything, int64(42)).Return(scanInStatus(scanDomain.StatusInProgress), nil)
	credentials.On("GetDecryptedPayload", mock.Anything, int64(7), "user-1").Return("{}", nil)
	scans.On("MarkParsingOutput", mock.Anything, int64(42)).Return(scanInStatus(scanDomain.StatusParsingOutput), nil)
	scans.On("MarkFailed", mock.Anything, int64(42), scanDomain.StatusFailedParsing, mock.Anything).
		Return(scanInStatus(scanDomain.StatusFailedParsing), nil)

	p := worker.NewProcessor(scans, credentials, new(mockPolicyService),
		scanner.NewRegistry(backend), nil, nil, "out")

	err := p.Process(context.Background(), testPayload())

	assert.Error(t, err)
	scans.AssertNotCalled(t, "SaveFindings", mock.Anything, mock.Anything, mock.Anything)
	scans.AssertNotCalled(t, "MarkCompleted", mock.Anything, mock.Anything)
}

func TestProcessor_PolicyMismatchFailsScan(t *testing.T) {
	scans := new(mockScanService)
	credentials := new(mockCredentialService)
	policies := new(mockPolicyService)
	policyID := int64(3)

	payload := testPayload()
	payload.PolicyID = &policyID

	scans.On("MarkInProgress", mock.Anything, int64(42)).Return(scanInStatus(scanDomain.StatusInProgress), nil)
	credentials.On("GetDecryptedPayload", mock.Anything, int64(7), "user-1").Return("{}", nil)
	policies.On("GetPolicy", mock.Anything, policyID, "user-1").
		Return(&policyDomain.Policy{
			ID:       policyID,
			Provider: credentialDomain.ProviderGCP,
			Tool:     scanDomain.ToolProwler,
		}, nil)
	scans.On("MarkFailed", mock.Anything, int64(42), scanDomain.StatusFailed, mock.Anything).
		Return(scanInStatus(scanDomain.StatusFailed), nil)

	p := worker.NewProcessor(scans, credentials, policies,
		scanner.NewRegistry(awsFakeScanner()), nil, nil, "out")

	err := p.Process(context.Background(), payload)

	assert.ErrorIs(t, err, worker.ErrScanPolicyMismatch)
}

func TestProcessor_ArtifactUploadFailureDoesNotFailScan(t *testing.T) {
	scans := new(mockScanService)
	credentials := new(mockCredentialService)
	backend := awsFakeScanner()
	artifacts := &recordingArtifactStore{err: errors.New("bucket unreachable")}

	scans.On("MarkInProgress", mock.Anything, int64(42)).Return(scanInStatus(scanDomain.StatusInProgress), nil)
	credentials.On("GetDecryptedPayload", mock.Anything, int64(7), "user-1").Return("{}", nil)
	scans.On("MarkParsingOutput", mock.Anything, int64(42)).Return(scanInStatus(scanDomain.StatusParsingOutput), nil)
	scans.On("SaveFindings", mock.Anything, int64(42), backend.findings).Return(nil)
	scans.On("MarkCompleted", mock.Anything, int64(42)).Return(scanInStatus(scanDomain.StatusCompleted), nil)

	p := worker.NewProcessor(scans, credentials, new(mockPolicyService),
		scanner.NewRegistry(backend), nil, artifacts, "out")

	err := p.Process(context.Background(), testPayload())

	assert.NoError(t, err)
	scans.AssertExpectations(t)
}
