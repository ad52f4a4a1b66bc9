package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/clearpath-sec/cloudscan/config"
	"github.com/clearpath-sec/cloudscan/internal/queue/domain"
	queuePort "github.com/clearpath-sec/cloudscan/internal/queue/port"
	appContext "github.com/clearpath-sec/cloudscan/pkg/context"
	"github.com/clearpath-sec/cloudscan/pkg/logger"
)

var (
	ErrJobOnEnqueue      = errors.New("error on enqueueing job")
	ErrInvalidJobPayload = errors.New("invalid job payload")
)

// Handler processes one claimed job. A non-nil error sends the job back
// through the retry policy.
type Handler func(ctx context.Context, payload domain.ScanJobPayload) error

// Dispatcher owns the durable job queue: it accepts new jobs, polls for due
// ones and fans them out to a bounded worker pool. Failed jobs are retried
// with exponential backoff until the retry budget runs out, then parked as
// dead.
type Dispatcher struct {
	db      *gorm.DB
	repo    queuePort.Repo
	handler Handler
	policy  domain.RetryPolicy

	workerCount        int
	pollInterval       time.Duration
	staleAfter         time.Duration
	completedRetention time.Duration
	deadRetention      time.Duration

	jobs     chan domain.Job
	stopChan chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
}

const (
	defaultWorkerCount  = 5
	defaultPollInterval = 5 * time.Second
	defaultMaxAttempts  = 3
	defaultBaseDelay    = time.Second
	defaultMaxDelay     = 5 * time.Minute
	defaultStaleAfter   = 30 * time.Minute
	defaultRetention    = 24 * time.Hour

	maintenanceInterval = time.Minute
)

func NewDispatcher(db *gorm.DB, repo queuePort.Repo, handler Handler, cfg config.QueueConfig) *Dispatcher {
	workerCount := int(cfg.WorkerCount)
	if workerCount <= 0 {
		workerCount = defaultWorkerCount
	}

	pollInterval := time.Duration(cfg.PollIntervalSeconds) * time.Second
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = defaultMaxAttempts
	}

	baseDelay := time.Duration(cfg.BackoffBaseSeconds) * time.Second
	if baseDelay <= 0 {
		baseDelay = defaultBaseDelay
	}

	maxDelay := time.Duration(cfg.BackoffMaxSeconds) * time.Second
	if maxDelay <= 0 {
		maxDelay = defaultMaxDelay
	}

	staleAfter := time.Duration(cfg.StaleInFlightMinutes) * time.Minute
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}

	completedRetention := time.Duration(cfg.RetentionHours) * time.Hour
	if completedRetention <= 0 {
		completedRetention = defaultRetention
	}

	return &Dispatcher{
		db:      db,
		repo:    repo,
		handler: handler,
		policy: domain.RetryPolicy{
			MaxAttempts: maxAttempts,
			BaseDelay:   baseDelay,
			MaxDelay:    maxDelay,
		},
		workerCount:        workerCount,
		pollInterval:       pollInterval,
		staleAfter:         staleAfter,
		completedRetention: completedRetention,
		deadRetention:      7 * completedRetention,
		jobs:               make(chan domain.Job),
		stopChan:           make(chan struct{}),
	}
}

// Policy exposes the effective retry policy.
func (d *Dispatcher) Policy() domain.RetryPolicy {
	return d.policy
}

// Enqueue persists a new job so it survives restarts. The job becomes due
// immediately.
func (d *Dispatcher) Enqueue(ctx context.Context, payload domain.ScanJobPayload) (domain.JobID, error) {
	if payload.ScanID == 0 || payload.UserID == "" {
		return 0, ErrInvalidJobPayload
	}

	encoded, err := payload.Encode()
	if err != nil {
		return 0, ErrInvalidJobPayload
	}

	jobID, err := d.repo.Create(ctx, domain.Job{
		Payload:       encoded,
		Status:        domain.JobStatusQueued,
		MaxAttempts:   d.policy.MaxAttempts,
		NextAttemptAt: time.Now(),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to enqueue job for scan %d: %v", payload.ScanID, err)
		return 0, ErrJobOnEnqueue
	}

	logger.InfoContext(ctx, "enqueued job %d for scan %d", jobID, payload.ScanID)
	return jobID, nil
}

// Start launches the worker pool and the polling loops.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		logger.Warn("queue dispatcher already running")
		return
	}
	d.running = true

	logger.Info("queue dispatcher starting with %d workers, poll interval %s", d.workerCount, d.pollInterval)

	for i := 0; i < d.workerCount; i++ {
		d.wg.Add(1)
		go d.worker()
	}

	d.wg.Add(1)
	go d.pollLoop()

	d.wg.Add(1)
	go d.maintenanceLoop()
}

// Stop halts polling and waits for in-flight jobs to finish.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.mu.Unlock()

	logger.Info("queue dispatcher stopping")
	close(d.stopChan)
	d.wg.Wait()
}

func (d *Dispatcher) pollLoop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	// Pick up work left over from before the last shutdown right away.
	d.dispatchDue()

	for {
		select {
		case <-ticker.C:
			d.dispatchDue()
		case <-d.stopChan:
			return
		}
	}
}

func (d *Dispatcher) dispatchDue() {
	ctx := d.newJobContext()

	jobs, err := d.repo.ClaimDue(ctx, d.workerCount, time.Now())
	if err != nil {
		logger.ErrorContext(ctx, "failed to claim due jobs: %v", err)
		return
	}

	for _, job := range jobs {
		select {
		case d.jobs <- job:
		case <-d.stopChan:
			// Claimed but undispatched jobs are recovered later by the
			// stale in-flight sweep.
			return
		}
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for {
		select {
		case job := <-d.jobs:
			d.process(job)
		case <-d.stopChan:
			return
		}
	}
}

func (d *Dispatcher) process(job domain.Job) {
	ctx := d.newJobContext()

	payload, err := domain.DecodeScanJobPayload(job.Payload)
	if err != nil {
		logger.ErrorContext(ctx, "job %d carries an undecodable payload, parking as dead: %v", job.ID, err)
		if markErr := d.repo.MarkDead(ctx, job.ID, "undecodable payload: "+err.Error()); markErr != nil {
			logger.ErrorContext(ctx, "failed to mark job %d dead: %v", job.ID, markErr)
		}
		return
	}

	logger.InfoContext(ctx, "processing job %d (scan %d, attempt %d/%d)", job.ID, payload.ScanID, job.Attempts, job.MaxAttempts)

	if err := d.handler(ctx, payload); err != nil {
		d.handleFailure(ctx, job, payload, err)
		return
	}

	if err := d.repo.MarkCompleted(ctx, job.ID); err != nil {
		logger.ErrorContext(ctx, "failed to mark job %d completed: %v", job.ID, err)
		return
	}
	logger.InfoContext(ctx, "job %d completed (scan %d)", job.ID, payload.ScanID)
}

func (d *Dispatcher) handleFailure(ctx context.Context, job domain.Job, payload domain.ScanJobPayload, jobErr error) {
	if d.policy.Exhausted(job.Attempts) {
		logger.ErrorContext(ctx, "job %d exhausted %d attempts, parking as dead (scan %d): %v", job.ID, job.Attempts, payload.ScanID, jobErr)
		if err := d.repo.MarkDead(ctx, job.ID, jobErr.Error()); err != nil {
			logger.ErrorContext(ctx, "failed to mark job %d dead: %v", job.ID, err)
		}
		return
	}

	delay := d.policy.Delay(job.Attempts)
	nextAttemptAt := time.Now().Add(delay)
	logger.WarnContext(ctx, "job %d failed on attempt %d, retrying in %s (scan %d): %v", job.ID, job.Attempts, delay, payload.ScanID, jobErr)

	if err := d.repo.MarkFailed(ctx, job.ID, nextAttemptAt, jobErr.Error()); err != nil {
		logger.ErrorContext(ctx, "failed to requeue job %d: %v", job.ID, err)
	}
}

func (d *Dispatcher) maintenanceLoop() {
	defer d.wg.Done()

	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.runMaintenance()
		case <-d.stopChan:
			return
		}
	}
}

func (d *Dispatcher) runMaintenance() {
	ctx := d.newJobContext()
	now := time.Now()

	requeued, err := d.repo.RequeueStale(ctx, now.Add(-d.staleAfter))
	if err != nil {
		logger.ErrorContext(ctx, "failed to requeue stale jobs: %v", err)
	} else if requeued > 0 {
		logger.WarnContext(ctx, "requeued %d stale in-flight jobs", requeued)
	}

	pruned, err := d.repo.Prune(ctx, now.Add(-d.completedRetention), now.Add(-d.deadRetention))
	if err != nil {
		logger.ErrorContext(ctx, "failed to prune old jobs: %v", err)
	} else if pruned > 0 {
		logger.InfoContext(ctx, "pruned %d old jobs", pruned)
	}
}

// newJobContext builds a background context carrying the shared DB handle,
// mirroring what the HTTP middlewares set up per request.
func (d *Dispatcher) newJobContext() context.Context {
	return appContext.NewAppContext(context.Background(), appContext.WithDB(d.db, false))
}
