package worker

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"

	credentialPort "github.com/clearpath-sec/cloudscan/internal/credential/port"
	policyDomain "github.com/clearpath-sec/cloudscan/internal/policy/domain"
	policyPort "github.com/clearpath-sec/cloudscan/internal/policy/port"
	queueDomain "github.com/clearpath-sec/cloudscan/internal/queue/domain"
	"github.com/clearpath-sec/cloudscan/internal/scan"
	scanDomain "github.com/clearpath-sec/cloudscan/internal/scan/domain"
	scanPort "github.com/clearpath-sec/cloudscan/internal/scan/port"
	"github.com/clearpath-sec/cloudscan/internal/scanner"
	scannerDomain "github.com/clearpath-sec/cloudscan/internal/scanner/domain"
	"github.com/clearpath-sec/cloudscan/pkg/logger"
)

var ErrScanPolicyMismatch = errors.New("scan policy provider or tool does not match scan request")

// EventPublisher pushes scan state changes to the owning user.
type EventPublisher interface {
	PublishScanUpdate(userID string, scan *scanDomain.Scan, message string)
}

// ArtifactStore archives raw scanner reports after a scan finishes.
type ArtifactStore interface {
	UploadScanArtifacts(ctx context.Context, scanID scanDomain.ScanID, paths []string) error
}

// Processor executes one scan end to end: it drives the scan through its
// lifecycle, runs the scanner backend, parses and stores findings, and
// publishes an event after every transition. Errors are returned to the
// queue so its retry policy decides what happens next.
type Processor struct {
	scans       scanPort.Service
	credentials credentialPort.Service
	policies    policyPort.Service
	registry    *scanner.Registry
	publisher   EventPublisher
	artifacts   ArtifactStore
	outputDir   string
}

func NewProcessor(
	scans scanPort.Service,
	credentials credentialPort.Service,
	policies policyPort.Service,
	registry *scanner.Registry,
	publisher EventPublisher,
	artifacts ArtifactStore,
	outputDir string,
) *Processor {
	if outputDir == "" {
		outputDir = "scan_outputs"
	}
	return &Processor{
		scans:       scans,
		credentials: credentials,
		policies:    policies,
		registry:    registry,
		publisher:   publisher,
		artifacts:   artifacts,
		outputDir:   outputDir,
	}
}

func (p *Processor) Process(ctx context.Context, payload queueDomain.ScanJobPayload) error {
	logger.InfoContext(ctx, "processing scan %d (tool %s, provider %s)", payload.ScanID, payload.Tool, payload.Provider)

	current, err := p.scans.MarkInProgress(ctx, payload.ScanID)
	if err != nil {
		// A scan already past queued was picked up twice, most likely via
		// the stale in-flight sweep. Nothing left to do.
		if errors.Is(err, scan.ErrInvalidTransition) {
			logger.WarnContext(ctx, "scan %d is no longer queued, skipping duplicate delivery", payload.ScanID)
			return nil
		}
		return err
	}
	p.publish(payload.UserID, current, "")

	credentialsJSON, err := p.credentials.GetDecryptedPayload(ctx, payload.CredentialID, payload.UserID)
	if err != nil {
		return p.fail(ctx, payload, scanDomain.StatusFailedAuth, err)
	}

	policyDef, err := p.resolvePolicy(ctx, payload)
	if err != nil {
		return p.fail(ctx, payload, scanDomain.StatusFailed, err)
	}

	backend, err := p.registry.Get(payload.Tool, payload.Provider)
	if err != nil {
		return p.fail(ctx, payload, scanDomain.StatusFailed, err)
	}

	runResult, err := backend.Run(ctx, scannerDomain.RunOptions{
		ScanID:          payload.ScanID,
		Provider:        payload.Provider,
		Target:          payload.Target,
		CredentialsJSON: credentialsJSON,
		Policy:          policyDef,
		OutputDir:       filepath.Join(p.outputDir, strconv.FormatInt(payload.ScanID, 10)),
	})
	if err != nil {
		status := scanDomain.StatusFailedExecution
		if errors.Is(err, scanner.ErrAuthenticationFailed) {
			status = scanDomain.StatusFailedAuth
		}
		return p.fail(ctx, payload, status, err)
	}

	current, err = p.scans.MarkParsingOutput(ctx, payload.ScanID)
	if err != nil {
		return err
	}
	p.publish(payload.UserID, current, "")

	findings, err := backend.ParseOutput(ctx, runResult.RawOutputPaths, payload.ScanID)
	if err != nil {
		return p.fail(ctx, payload, scanDomain.StatusFailedParsing, err)
	}

	if err := p.scans.SaveFindings(ctx, payload.ScanID, findings); err != nil {
		return p.fail(ctx, payload, scanDomain.StatusFailed, err)
	}
	logger.InfoContext(ctx, "saved %d findings for scan %d", len(findings), payload.ScanID)

	p.archiveArtifacts(ctx, payload.ScanID, runResult.RawOutputPaths)

	current, err = p.scans.MarkCompleted(ctx, payload.ScanID)
	if err != nil {
		return err
	}
	p.publish(payload.UserID, current, "Scan completed successfully!")

	return nil
}

func (p *Processor) resolvePolicy(ctx context.Context, payload queueDomain.ScanJobPayload) (*policyDomain.Definition, error) {
	if payload.PolicyID == nil {
		return nil, nil
	}

	scanPolicy, err := p.policies.GetPolicy(ctx, *payload.PolicyID, payload.UserID)
	if err != nil {
		return nil, err
	}
	if scanPolicy.Provider != payload.Provider || scanPolicy.Tool != payload.Tool {
		return nil, ErrScanPolicyMismatch
	}

	definition := scanPolicy.Definition
	return &definition, nil
}

// fail records the failure state, notifies the user and hands the original
// error back to the queue for retry accounting.
func (p *Processor) fail(ctx context.Context, payload queueDomain.ScanJobPayload, status scanDomain.Status, cause error) error {
	logger.ErrorContext(ctx, "scan %d failed (%s): %v", payload.ScanID, status, cause)

	failed, err := p.scans.MarkFailed(ctx, payload.ScanID, status, cause.Error())
	if err != nil {
		logger.ErrorContext(ctx, "failed to record failure state for scan %d: %v", payload.ScanID, err)
		return cause
	}
	p.publish(payload.UserID, failed, "")

	return cause
}

func (p *Processor) publish(userID string, scan *scanDomain.Scan, message string) {
	if p.publisher == nil || scan == nil {
		return
	}
	p.publisher.PublishScanUpdate(userID, scan, message)
}

func (p *Processor) archiveArtifacts(ctx context.Context, scanID scanDomain.ScanID, paths []string) {
	if p.artifacts == nil || len(paths) == 0 {
		return
	}

	if err := p.artifacts.UploadScanArtifacts(ctx, scanID, paths); err != nil {
		// Archival is best effort and never fails the scan.
		logger.WarnContext(ctx, "failed to archive artifacts for scan %d: %v", scanID, err)
	}
}
