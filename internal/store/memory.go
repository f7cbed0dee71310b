package store

import (
	"context"
	"sync"

	"github.com/docminer/docminer/pkg/models"
	"github.com/google/uuid"
)

// MemoryStore implements Store with a mutex-guarded map. Jobs live for the
// remainder of the process; TTL cleanup, if wanted, is layered on outside.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*models.Job
}

// NewMemoryStore creates an empty in-memory job store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[uuid.UUID]*models.Job)}
}

func (s *MemoryStore) Ping(_ context.Context) error { return nil }

func (s *MemoryStore) CreateJob(_ context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return ErrDuplicateKey
	}
	s.jobs[job.ID] = job.Clone()
	return nil
}

func (s *MemoryStore) GetJob(_ context.Context, id uuid.UUID) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return job.Clone(), nil
}

func (s *MemoryStore) DeleteJob(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return ErrNotFound
	}
	delete(s.jobs, id)
	return nil
}

func (s *MemoryStore) UpdateJobStatus(_ context.Context, id uuid.UUID, status models.JobStatus, opts ...JobUpdateOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if job.Status.Terminal() {
		return nil
	}

	p := applyOptions(opts)
	job.Status = status
	if p.Step != nil {
		job.CurrentStep = *p.Step
	}
	if p.Progress != nil && *p.Progress > job.Progress {
		job.Progress = *p.Progress
	}
	if p.StartedAt != nil {
		job.StartedAt = p.StartedAt
	}
	if p.FinishedAt != nil && job.FinishedAt == nil {
		job.FinishedAt = p.FinishedAt
	}
	if p.Result != nil {
		job.Result = p.Result
	}
	if p.Error != nil {
		job.Error = p.Error
	}
	return nil
}

func (s *MemoryStore) UpdateJobProgress(_ context.Context, id uuid.UUID, progress int, step string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if job.Status.Terminal() {
		return nil
	}
	if progress > job.Progress {
		job.Progress = progress
	}
	job.CurrentStep = step
	return nil
}
