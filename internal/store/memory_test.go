package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/docminer/docminer/internal/store"
	"github.com/docminer/docminer/pkg/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJob() *models.Job {
	return &models.Job{
		ID:        uuid.New(),
		Kind:      models.JobKindUpload,
		Status:    models.JobStatusQueued,
		CreatedAt: time.Now().UTC(),
		Params:    models.JobParams{Dictionary: "software.xml"},
	}
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	job := newJob()

	require.NoError(t, s.CreateJob(ctx, job))

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, models.JobStatusQueued, got.Status)
	assert.Equal(t, "software.xml", got.Params.Dictionary)
}

func TestMemoryStore_GetUnknownID(t *testing.T) {
	s := store.NewMemoryStore()

	_, err := s.GetJob(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMemoryStore_DuplicateCreate(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	job := newJob()

	require.NoError(t, s.CreateJob(ctx, job))
	assert.ErrorIs(t, s.CreateJob(ctx, job), store.ErrDuplicateKey)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	job := newJob()
	require.NoError(t, s.CreateJob(ctx, job))

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	got.Status = models.JobStatusFailed
	got.Params.Dictionary = "mutated"

	fresh, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusQueued, fresh.Status)
	assert.Equal(t, "software.xml", fresh.Params.Dictionary)
}

func TestMemoryStore_ProgressNeverDecreases(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	job := newJob()
	require.NoError(t, s.CreateJob(ctx, job))

	require.NoError(t, s.UpdateJobProgress(ctx, job.ID, 40, "extracting entities"))
	require.NoError(t, s.UpdateJobProgress(ctx, job.ID, 20, "stale update"))

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, got.Progress)
}

func TestMemoryStore_TerminalStateIsSticky(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	job := newJob()
	require.NoError(t, s.CreateJob(ctx, job))

	now := time.Now().UTC()
	require.NoError(t, s.UpdateJobStatus(ctx, job.ID, models.JobStatusFailed,
		store.WithError("sectioning", "boom"), store.WithFinishedAt(now)))

	// A late completion from a stale executor must not resurrect the job.
	require.NoError(t, s.UpdateJobStatus(ctx, job.ID, models.JobStatusCompleted,
		store.WithResult(models.ResultSummary{MatchesFound: 3})))
	require.NoError(t, s.UpdateJobProgress(ctx, job.ID, 100, "done"))

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, got.Status)
	assert.Nil(t, got.Result)
	require.NotNil(t, got.Error)
	assert.Equal(t, "sectioning", got.Error.Stage)
	require.NotNil(t, got.FinishedAt)
	assert.WithinDuration(t, now, *got.FinishedAt, time.Second)
}

func TestMemoryStore_ConcurrentInsertsAndReads(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	const n = 50
	ids := make([]uuid.UUID, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		job := newJob()
		ids[i] = job.ID
		wg.Add(2)
		go func(j *models.Job) {
			defer wg.Done()
			assert.NoError(t, s.CreateJob(ctx, j))
		}(job)
		go func(id uuid.UUID) {
			defer wg.Done()
			// May race creation; only NotFound is acceptable as an error.
			if _, err := s.GetJob(ctx, id); err != nil {
				assert.ErrorIs(t, err, store.ErrNotFound)
			}
		}(job.ID)
	}
	wg.Wait()

	for _, id := range ids {
		_, err := s.GetJob(ctx, id)
		assert.NoError(t, err)
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	job := newJob()
	require.NoError(t, s.CreateJob(ctx, job))

	require.NoError(t, s.DeleteJob(ctx, job.ID))
	_, err := s.GetJob(ctx, job.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteJob(ctx, job.ID), store.ErrNotFound)
}
