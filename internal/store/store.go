package store

import (
	"context"
	"errors"
	"time"

	"github.com/docminer/docminer/pkg/models"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the job registry. All job state access goes through here.
// Implementations must be safe for concurrent use: submissions insert while
// pollers read and executors update, and a reader must never observe a
// partially updated record.
type Store interface {
	Ping(ctx context.Context) error

	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	DeleteJob(ctx context.Context, id uuid.UUID) error

	// UpdateJobStatus moves a job through its state machine. Updates against
	// a job already in a terminal state are ignored.
	UpdateJobStatus(ctx context.Context, id uuid.UUID, status models.JobStatus, opts ...JobUpdateOption) error

	// UpdateJobProgress advances the progress indicator and step label.
	// Progress is clamped so it never decreases.
	UpdateJobProgress(ctx context.Context, id uuid.UUID, progress int, step string) error
}

type jobUpdateParams struct {
	Step       *string
	Progress   *int
	StartedAt  *time.Time
	FinishedAt *time.Time
	Result     *models.ResultSummary
	Error      *models.JobError
}

type JobUpdateOption func(*jobUpdateParams)

func WithStep(step string) JobUpdateOption {
	return func(p *jobUpdateParams) { p.Step = &step }
}

func WithProgress(progress int) JobUpdateOption {
	return func(p *jobUpdateParams) { p.Progress = &progress }
}

func WithStartedAt(t time.Time) JobUpdateOption {
	return func(p *jobUpdateParams) { p.StartedAt = &t }
}

func WithFinishedAt(t time.Time) JobUpdateOption {
	return func(p *jobUpdateParams) { p.FinishedAt = &t }
}

func WithResult(r models.ResultSummary) JobUpdateOption {
	return func(p *jobUpdateParams) { p.Result = &r }
}

func WithError(stage, message string) JobUpdateOption {
	return func(p *jobUpdateParams) {
		p.Error = &models.JobError{Stage: stage, Message: message}
	}
}

func applyOptions(opts []JobUpdateOption) jobUpdateParams {
	var p jobUpdateParams
	for _, opt := range opts {
		opt(&p)
	}
	return p
}
