package storage_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormMysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/clearpath-sec/cloudscan/internal/queue/domain"
	queuePort "github.com/clearpath-sec/cloudscan/internal/queue/port"
	"github.com/clearpath-sec/cloudscan/pkg/adapter/storage"
)

type QueueRepoTestSuite struct {
	db     *sql.DB
	gormDB *gorm.DB
	mock   sqlmock.Sqlmock
	repo   queuePort.Repo
	ctx    context.Context
}

func setupQueueRepoTest(t *testing.T) *QueueRepoTestSuite {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(gormMysql.New(gormMysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	repo := storage.NewQueueRepo(gormDB)
	ctx := context.Background()

	return &QueueRepoTestSuite{
		db:     db,
		gormDB: gormDB,
		mock:   mock,
		repo:   repo,
		ctx:    ctx,
	}
}

func (suite *QueueRepoTestSuite) tearDown() {
	suite.db.Close()
}

func queueJobColumns() []string {
	return []string{
		"id", "payload", "status", "attempts", "max_attempts",
		"next_attempt_at", "last_error", "created_at", "updated_at", "completed_at",
	}
}

func TestQueueRepository_ClaimDue_Success(t *testing.T) {
	suite := setupQueueRepoTest(t)
	defer suite.tearDown()

	// Arrange
	now := time.Now()
	candidates := sqlmock.NewRows(queueJobColumns()).
		AddRow(int64(1), `{"scanId":42}`, "queued", 0, 5, now, nil, now, nil, nil)

	suite.mock.ExpectQuery("SELECT (.+) FROM `queue_jobs`").
		WillReturnRows(candidates)

	// Conditional claim update
	suite.mock.ExpectBegin()
	suite.mock.ExpectExec("UPDATE `queue_jobs`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	suite.mock.ExpectCommit()

	// Reload of the claimed row
	claimed := sqlmock.NewRows(queueJobColumns()).
		AddRow(int64(1), `{"scanId":42}`, "in_flight", 1, 5, now, nil, now, now, nil)
	suite.mock.ExpectQuery("SELECT (.+) FROM `queue_jobs`").
		WillReturnRows(claimed)

	// Act
	jobs, err := suite.repo.ClaimDue(suite.ctx, 10, now)

	// Assert
	assert.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, domain.JobStatusInFlight, jobs[0].Status)
	assert.Equal(t, uint(1), jobs[0].Attempts)
	assert.NoError(t, suite.mock.ExpectationsWereMet())
}

func TestQueueRepository_ClaimDue_LostRace(t *testing.T) {
	suite := setupQueueRepoTest(t)
	defer suite.tearDown()

	// Arrange
	now := time.Now()
	candidates := sqlmock.NewRows(queueJobColumns()).
		AddRow(int64(1), `{"scanId":42}`, "queued", 0, 5, now, nil, now, nil, nil)

	suite.mock.ExpectQuery("SELECT (.+) FROM `queue_jobs`").
		WillReturnRows(candidates)

	// Another dispatcher already claimed the row, the update matches nothing
	// and the candidate is skipped without a reload.
	suite.mock.ExpectBegin()
	suite.mock.ExpectExec("UPDATE `queue_jobs`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	suite.mock.ExpectCommit()

	// Act
	jobs, err := suite.repo.ClaimDue(suite.ctx, 10, now)

	// Assert
	assert.NoError(t, err)
	assert.Empty(t, jobs)
	assert.NoError(t, suite.mock.ExpectationsWereMet())
}

func TestQueueRepository_ClaimDue_ZeroLimit(t *testing.T) {
	suite := setupQueueRepoTest(t)
	defer suite.tearDown()

	// Act - no SQL expected
	jobs, err := suite.repo.ClaimDue(suite.ctx, 0, time.Now())

	// Assert
	assert.NoError(t, err)
	assert.Nil(t, jobs)
	assert.NoError(t, suite.mock.ExpectationsWereMet())
}

func TestQueueRepository_MarkFailed_TruncatesLastError(t *testing.T) {
	suite := setupQueueRepoTest(t)
	defer suite.tearDown()

	// Arrange
	longError := strings.Repeat("x", 2048)
	truncated := longError[:1024]
	nextAttemptAt := time.Now().Add(time.Minute)

	suite.mock.ExpectBegin()
	// Map updates are applied in alphabetical column order.
	suite.mock.ExpectExec("UPDATE `queue_jobs`").
		WithArgs(truncated, nextAttemptAt, "queued", sqlmock.AnyArg(), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	suite.mock.ExpectCommit()

	// Act
	err := suite.repo.MarkFailed(suite.ctx, 1, nextAttemptAt, longError)

	// Assert
	assert.NoError(t, err)
	assert.NoError(t, suite.mock.ExpectationsWereMet())
}

func TestQueueRepository_MarkCompleted_Success(t *testing.T) {
	suite := setupQueueRepoTest(t)
	defer suite.tearDown()

	// Arrange
	suite.mock.ExpectBegin()
	suite.mock.ExpectExec("UPDATE `queue_jobs`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	suite.mock.ExpectCommit()

	// Act
	err := suite.repo.MarkCompleted(suite.ctx, 1)

	// Assert
	assert.NoError(t, err)
	assert.NoError(t, suite.mock.ExpectationsWereMet())
}

func TestQueueRepository_RequeueStale_ReturnsAffectedCount(t *testing.T) {
	suite := setupQueueRepoTest(t)
	defer suite.tearDown()

	// Arrange
	suite.mock.ExpectBegin()
	suite.mock.ExpectExec("UPDATE `queue_jobs`").
		WillReturnResult(sqlmock.NewResult(0, 3))
	suite.mock.ExpectCommit()

	// Act
	requeued, err := suite.repo.RequeueStale(suite.ctx, time.Now().Add(-10*time.Minute))

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, int64(3), requeued)
	assert.NoError(t, suite.mock.ExpectationsWereMet())
}

func TestQueueRepository_Prune_Success(t *testing.T) {
	suite := setupQueueRepoTest(t)
	defer suite.tearDown()

	// Arrange
	suite.mock.ExpectBegin()
	suite.mock.ExpectExec("DELETE FROM `queue_jobs`").
		WillReturnResult(sqlmock.NewResult(0, 2))
	suite.mock.ExpectCommit()

	// Act
	pruned, err := suite.repo.Prune(suite.ctx, time.Now(), time.Now())

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, int64(2), pruned)
	assert.NoError(t, suite.mock.ExpectationsWereMet())
}

func TestQueueRepository_GetByID_NotFound(t *testing.T) {
	suite := setupQueueRepoTest(t)
	defer suite.tearDown()

	// Arrange
	suite.mock.ExpectQuery("SELECT (.+) FROM `queue_jobs`").
		WithArgs(int64(9), 1).
		WillReturnRows(sqlmock.NewRows(queueJobColumns()))

	// Act
	job, err := suite.repo.GetByID(suite.ctx, 9)

	// Assert
	assert.NoError(t, err)
	assert.Nil(t, job)
	assert.NoError(t, suite.mock.ExpectationsWereMet())
}
