// Package jobs owns the job lifecycle around the pipeline: submission and
// validation, queueing onto the worker pool, status lookup, cancellation, and
// access to result artifacts.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/docminer/docminer/internal/store"
	"github.com/docminer/docminer/internal/worker"
	"github.com/docminer/docminer/pkg/models"
	"github.com/google/uuid"
)

// Sentinel errors surfaced to the API layer.
var (
	ErrInvalidParams = errors.New("invalid job parameters")
	ErrBusy          = errors.New("analysis queue full")
)

// Runner executes the pipeline for one job. Satisfied by pipeline.Executor.
type Runner interface {
	Run(ctx context.Context, jobID uuid.UUID)
}

// Manager creates jobs, hands them to the pool, and answers questions about
// them afterwards.
type Manager struct {
	store   store.Store
	pool    *worker.Pool
	runner  Runner
	dataDir string

	mu      sync.Mutex
	cancels map[uuid.UUID]context.CancelFunc
}

// NewManager wires a manager.
func NewManager(st store.Store, pool *worker.Pool, runner Runner, dataDir string) *Manager {
	return &Manager{
		store:   st,
		pool:    pool,
		runner:  runner,
		dataDir: dataDir,
		cancels: make(map[uuid.UUID]context.CancelFunc),
	}
}

// Submit validates the submission, records the job as queued, and enqueues it
// on the pool. When the queue is saturated the job record is removed again
// and ErrBusy is returned, so a refused submission leaves no trace.
func (m *Manager) Submit(ctx context.Context, kind models.JobKind, params models.JobParams) (*models.Job, error) {
	if err := validate(kind, params); err != nil {
		return nil, err
	}

	job := &models.Job{
		ID:        uuid.New(),
		Kind:      kind,
		Params:    params,
		Status:    models.JobStatusQueued,
		Progress:  0,
		CreatedAt: time.Now().UTC(),
	}
	if kind == models.JobKindExisting {
		job.CorpusDir = params.CorpusDir
	} else {
		job.CorpusDir = filepath.Join(m.dataDir, "analysis_"+job.ID.String())
	}

	if err := m.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("recording job: %w", err)
	}

	jobID := job.ID
	err := m.pool.Submit(func(workerCtx context.Context) error {
		runCtx, cancel := context.WithCancel(workerCtx)
		m.registerCancel(jobID, cancel)
		defer m.unregisterCancel(jobID)
		m.runner.Run(runCtx, jobID)
		return nil
	})
	if err != nil {
		_ = m.store.DeleteJob(ctx, jobID)
		if errors.Is(err, worker.ErrQueueFull) {
			return nil, ErrBusy
		}
		return nil, fmt.Errorf("queueing job: %w", err)
	}
	return job.Clone(), nil
}

// Get returns the current job record.
func (m *Manager) Get(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	return m.store.GetJob(ctx, id)
}

// Cancel asks a running job to stop. Jobs that have not started yet will be
// cancelled the moment a worker picks them up; terminal jobs are left alone.
func (m *Manager) Cancel(ctx context.Context, id uuid.UUID) error {
	job, err := m.store.GetJob(ctx, id)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return nil
	}

	m.mu.Lock()
	cancel, ok := m.cancels[id]
	m.mu.Unlock()
	if ok {
		cancel()
		return nil
	}

	// Still queued: fail it directly so the poller sees a terminal state.
	return m.store.UpdateJobStatus(ctx, id, models.JobStatusFailed,
		store.WithFinishedAt(time.Now().UTC()),
		store.WithError("pipeline", "cancelled before start"))
}

// OpenArtifact opens a named result artifact of a completed job. Anything
// else, an unfinished job, an artifact name the job did not produce, or a
// file missing on disk, reads as not found.
func (m *Manager) OpenArtifact(ctx context.Context, id uuid.UUID, name string) (io.ReadCloser, error) {
	job, err := m.store.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != models.JobStatusCompleted || job.Result == nil {
		return nil, store.ErrNotFound
	}
	path, ok := job.Result.OutputArtifacts[name]
	if !ok {
		return nil, store.ErrNotFound
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, store.ErrNotFound
	}
	return f, nil
}

func (m *Manager) registerCancel(id uuid.UUID, cancel context.CancelFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancels[id] = cancel
}

func (m *Manager) unregisterCancel(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cancels, id)
}

func validate(kind models.JobKind, params models.JobParams) error {
	if params.Dictionary == "" {
		return fmt.Errorf("%w: dictionary is required", ErrInvalidParams)
	}
	switch kind {
	case models.JobKindDownload:
		if params.Query == "" {
			return fmt.Errorf("%w: query is required for download jobs", ErrInvalidParams)
		}
	case models.JobKindUpload:
		if len(params.Files) == 0 {
			return fmt.Errorf("%w: upload jobs need at least one file", ErrInvalidParams)
		}
	case models.JobKindExisting:
		if params.CorpusDir == "" {
			return fmt.Errorf("%w: corpus_dir is required for existing-corpus jobs", ErrInvalidParams)
		}
	default:
		return fmt.Errorf("%w: unknown job kind %q", ErrInvalidParams, kind)
	}
	return nil
}
