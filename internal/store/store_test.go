package store_test

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/docminer/docminer/internal/store"
	"github.com/docminer/docminer/pkg/models"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// migrationsDir returns the absolute path to the migrations directory.
func migrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

// setupTestDB spins up a Postgres container, runs migrations, and returns a pool.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("docminer_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	err = store.RunMigrations(connStr, migrationsDir())
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	return pool
}

func TestPostgresStore_CreateGetJob(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	job := newJob()
	job.CorpusDir = "/data/analysis_" + job.ID.String()
	require.NoError(t, s.CreateJob(ctx, job))

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, models.JobKindUpload, got.Kind)
	assert.Equal(t, models.JobStatusQueued, got.Status)
	assert.Equal(t, job.CorpusDir, got.CorpusDir)
	assert.Equal(t, "software.xml", got.Params.Dictionary)
	assert.Nil(t, got.Result)
	assert.Nil(t, got.Error)
}

func TestPostgresStore_DuplicateCreate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	job := newJob()
	require.NoError(t, s.CreateJob(ctx, job))
	assert.ErrorIs(t, s.CreateJob(ctx, job), store.ErrDuplicateKey)
}

func TestPostgresStore_StatusLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	job := newJob()
	require.NoError(t, s.CreateJob(ctx, job))

	started := time.Now().UTC()
	require.NoError(t, s.UpdateJobStatus(ctx, job.ID, models.JobStatusRunning,
		store.WithStartedAt(started), store.WithProgress(10), store.WithStep("acquiring documents")))
	require.NoError(t, s.UpdateJobProgress(ctx, job.ID, 40, "extracting entities"))
	require.NoError(t, s.UpdateJobProgress(ctx, job.ID, 20, "stale"))

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusRunning, got.Status)
	assert.Equal(t, 40, got.Progress)

	finished := time.Now().UTC()
	require.NoError(t, s.UpdateJobStatus(ctx, job.ID, models.JobStatusCompleted,
		store.WithProgress(100),
		store.WithFinishedAt(finished),
		store.WithResult(models.ResultSummary{
			ItemsProcessed:  2,
			MatchesFound:    7,
			Elapsed:         models.Duration(3 * time.Second),
			OutputArtifacts: map[string]string{"results.csv": "/data/x/results.csv"},
		})))

	// Terminal state must be sticky.
	require.NoError(t, s.UpdateJobStatus(ctx, job.ID, models.JobStatusFailed,
		store.WithError("sectioning", "late failure")))

	got, err = s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	require.NotNil(t, got.Result)
	assert.Equal(t, 7, got.Result.MatchesFound)
	assert.Equal(t, "/data/x/results.csv", got.Result.OutputArtifacts["results.csv"])
	assert.Nil(t, got.Error)
	require.NotNil(t, got.FinishedAt)
}

func TestPostgresStore_UpdateUnknownJob(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	err := s.UpdateJobStatus(ctx, newJob().ID, models.JobStatusRunning)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
