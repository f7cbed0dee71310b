package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/docminer/docminer/pkg/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements the Store interface using pgx/v5. It is selected
// when DATABASE_URL is configured; otherwise the in-memory store is used.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) CreateJob(ctx context.Context, job *models.Job) error {
	params, err := json.Marshal(job.Params)
	if err != nil {
		return fmt.Errorf("marshal job params: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO jobs (id, kind, params, status, progress, current_step, corpus_dir, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		job.ID, job.Kind, params, job.Status, job.Progress, job.CurrentStep, job.CorpusDir, job.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var (
		job       models.Job
		paramsRaw []byte
		resultRaw []byte
		errRaw    []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, kind, params, status, progress, current_step, corpus_dir, result, error, created_at, started_at, finished_at
		 FROM jobs WHERE id = $1`, id,
	).Scan(&job.ID, &job.Kind, &paramsRaw, &job.Status, &job.Progress, &job.CurrentStep,
		&job.CorpusDir, &resultRaw, &errRaw, &job.CreatedAt, &job.StartedAt, &job.FinishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}

	if err := json.Unmarshal(paramsRaw, &job.Params); err != nil {
		return nil, fmt.Errorf("unmarshal job params: %w", err)
	}
	if resultRaw != nil {
		job.Result = &models.ResultSummary{}
		if err := json.Unmarshal(resultRaw, job.Result); err != nil {
			return nil, fmt.Errorf("unmarshal job result: %w", err)
		}
	}
	if errRaw != nil {
		job.Error = &models.JobError{}
		if err := json.Unmarshal(errRaw, job.Error); err != nil {
			return nil, fmt.Errorf("unmarshal job error: %w", err)
		}
	}
	return &job, nil
}

func (s *PostgresStore) DeleteJob(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpdateJobStatus(ctx context.Context, id uuid.UUID, status models.JobStatus, opts ...JobUpdateOption) error {
	p := applyOptions(opts)

	var resultRaw, errRaw []byte
	var err error
	if p.Result != nil {
		if resultRaw, err = json.Marshal(p.Result); err != nil {
			return fmt.Errorf("marshal job result: %w", err)
		}
	}
	if p.Error != nil {
		if errRaw, err = json.Marshal(p.Error); err != nil {
			return fmt.Errorf("marshal job error: %w", err)
		}
	}

	// Terminal states are sticky; the WHERE clause makes late updates no-ops.
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET
		     status = $2,
		     current_step = COALESCE($3, current_step),
		     progress = GREATEST(progress, COALESCE($4, progress)),
		     started_at = COALESCE($5, started_at),
		     finished_at = COALESCE(finished_at, $6),
		     result = COALESCE($7, result),
		     error = COALESCE($8, error)
		 WHERE id = $1 AND status NOT IN ('completed', 'failed')`,
		id, status, p.Step, p.Progress, p.StartedAt, p.FinishedAt, resultRaw, errRaw)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, getErr := s.GetJob(ctx, id); getErr != nil {
			return getErr
		}
	}
	return nil
}

func (s *PostgresStore) UpdateJobProgress(ctx context.Context, id uuid.UUID, progress int, step string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET progress = GREATEST(progress, $2), current_step = $3
		 WHERE id = $1 AND status NOT IN ('completed', 'failed')`,
		id, progress, step)
	if err != nil {
		return fmt.Errorf("update job progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, getErr := s.GetJob(ctx, id); getErr != nil {
			return getErr
		}
	}
	return nil
}
