package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/clearpath-sec/cloudscan/config"
	"github.com/clearpath-sec/cloudscan/internal/queue/domain"
)

type mockQueueRepo struct {
	mock.Mock
}

func (m *mockQueueRepo) Create(ctx context.Context, job domain.Job) (domain.JobID, error) {
	args := m.Called(ctx, job)
	return args.Get(0).(domain.JobID), args.Error(1)
}

func (m *mockQueueRepo) ClaimDue(ctx context.Context, limit int, now time.Time) ([]domain.Job, error) {
	args := m.Called(ctx, limit, now)
	if jobs := args.Get(0); jobs != nil {
		return jobs.([]domain.Job), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockQueueRepo) MarkCompleted(ctx context.Context, jobID domain.JobID) error {
	return m.Called(ctx, jobID).Error(0)
}

func (m *mockQueueRepo) MarkFailed(ctx context.Context, jobID domain.JobID, nextAttemptAt time.Time, lastError string) error {
	return m.Called(ctx, jobID, nextAttemptAt, lastError).Error(0)
}

func (m *mockQueueRepo) MarkDead(ctx context.Context, jobID domain.JobID, lastError string) error {
	return m.Called(ctx, jobID, lastError).Error(0)
}

func (m *mockQueueRepo) RequeueStale(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockQueueRepo) Prune(ctx context.Context, completedBefore, deadBefore time.Time) (int64, error) {
	args := m.Called(ctx, completedBefore, deadBefore)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockQueueRepo) GetByID(ctx context.Context, jobID domain.JobID) (*domain.Job, error) {
	args := m.Called(ctx, jobID)
	if j := args.Get(0); j != nil {
		return j.(*domain.Job), args.Error(1)
	}
	return nil, args.Error(1)
}

func encodedPayload(t *testing.T) string {
	t.Helper()
	encoded, err := domain.ScanJobPayload{ScanID: 42, UserID: "user-1"}.Encode()
	require.NoError(t, err)
	return encoded
}

func TestDispatcher_Enqueue(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo := new(mockQueueRepo)
		repo.On("Create", mock.Anything, mock.MatchedBy(func(job domain.Job) bool {
			return job.Status == domain.JobStatusQueued && job.MaxAttempts == 3
		})).Return(domain.JobID(1), nil)

		d := NewDispatcher(nil, repo, nil, config.QueueConfig{MaxAttempts: 3})

		jobID, err := d.Enqueue(context.Background(), domain.ScanJobPayload{ScanID: 42, UserID: "user-1"})

		require.NoError(t, err)
		assert.Equal(t, domain.JobID(1), jobID)
		repo.AssertExpectations(t)
	})

	t.Run("missing scan ID", func(t *testing.T) {
		d := NewDispatcher(nil, new(mockQueueRepo), nil, config.QueueConfig{})

		_, err := d.Enqueue(context.Background(), domain.ScanJobPayload{UserID: "user-1"})

		assert.ErrorIs(t, err, ErrInvalidJobPayload)
	})

	t.Run("repository failure", func(t *testing.T) {
		repo := new(mockQueueRepo)
		repo.On("Create", mock.Anything, mock.Anything).
			Return(domain.JobID(0), errors.New("db down"))

		d := NewDispatcher(nil, repo, nil, config.QueueConfig{})

		_, err := d.Enqueue(context.Background(), domain.ScanJobPayload{ScanID: 42, UserID: "user-1"})

		assert.ErrorIs(t, err, ErrJobOnEnqueue)
	})
}

func TestDispatcher_Process(t *testing.T) {
	t.Run("successful handler completes the job", func(t *testing.T) {
		repo := new(mockQueueRepo)
		repo.On("MarkCompleted", mock.Anything, int64(1)).Return(nil)

		var handled domain.ScanJobPayload
		d := NewDispatcher(nil, repo, func(ctx context.Context, payload domain.ScanJobPayload) error {
			handled = payload
			return nil
		}, config.QueueConfig{})

		d.process(domain.Job{ID: 1, Payload: encodedPayload(t), Attempts: 1, MaxAttempts: 3})

		assert.Equal(t, int64(42), handled.ScanID)
		repo.AssertExpectations(t)
	})

	t.Run("failed handler requeues with backoff", func(t *testing.T) {
		repo := new(mockQueueRepo)
		before := time.Now()
		repo.On("MarkFailed", mock.Anything, int64(1), mock.MatchedBy(func(next time.Time) bool {
			// Attempt 1 of 3 retries after the base delay.
			return next.After(before)
		}), "scanner exploded").Return(nil)

		d := NewDispatcher(nil, repo, func(ctx context.Context, payload domain.ScanJobPayload) error {
			return errors.New("scanner exploded")
		}, config.QueueConfig{MaxAttempts: 3})

		d.process(domain.Job{ID: 1, Payload: encodedPayload(t), Attempts: 1, MaxAttempts: 3})

		repo.AssertExpectations(t)
		repo.AssertNotCalled(t, "MarkDead", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("exhausted retry budget parks the job as dead", func(t *testing.T) {
		repo := new(mockQueueRepo)
		repo.On("MarkDead", mock.Anything, int64(1), "scanner exploded").Return(nil)

		d := NewDispatcher(nil, repo, func(ctx context.Context, payload domain.ScanJobPayload) error {
			return errors.New("scanner exploded")
		}, config.QueueConfig{MaxAttempts: 3})

		d.process(domain.Job{ID: 1, Payload: encodedPayload(t), Attempts: 3, MaxAttempts: 3})

		repo.AssertExpectations(t)
		repo.AssertNotCalled(t, "MarkFailed", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("undecodable payload is parked without invoking the handler", func(t *testing.T) {
		repo := new(mockQueueRepo)
		repo.On("MarkDead", mock.Anything, int64(1), mock.MatchedBy(func(lastError string) bool {
			return len(lastError) > 0
		})).Return(nil)

		handlerCalled := false
		d := NewDispatcher(nil, repo, func(ctx context.Context, payload domain.ScanJobPayload) error {
			handlerCalled = true
			return nil
		}, config.QueueConfig{})

		d.process(domain.Job{ID: 1, Payload: "{broken", Attempts: 1, MaxAttempts: 3})

		assert.False(t, handlerCalled)
		repo.AssertExpectations(t)
	})
}

func TestNewDispatcher_Defaults(t *testing.T) {
	d := NewDispatcher(nil, new(mockQueueRepo), nil, config.QueueConfig{})

	assert.Equal(t, defaultWorkerCount, d.workerCount)
	assert.Equal(t, defaultPollInterval, d.pollInterval)
	assert.Equal(t, uint(defaultMaxAttempts), d.Policy().MaxAttempts)
	assert.Equal(t, defaultBaseDelay, d.Policy().BaseDelay)
	assert.Equal(t, defaultMaxDelay, d.Policy().MaxDelay)
}

func TestDispatcher_StartStop(t *testing.T) {
	repo := new(mockQueueRepo)
	repo.On("ClaimDue", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

	d := NewDispatcher(nil, repo, func(ctx context.Context, payload domain.ScanJobPayload) error {
		return nil
	}, config.QueueConfig{PollIntervalSeconds: 60})

	d.Start()
	d.Start()

	d.Stop()
	d.Stop()
}
