package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// JobRepositoryPG implements domain.JobRepository backed by PostgreSQL.
type JobRepositoryPG struct {
	runner *infra.SQLRunner
}

// NewJobRepository creates a new JobRepositoryPG.
func NewJobRepository(runner *infra.SQLRunner) *JobRepositoryPG {
	return &JobRepositoryPG{runner: runner}
}

// Create inserts a new job record.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.Job) error {
	row := r.runner.QueryRow(ctx, sqlinline.QInsertJob,
		job.ID,
		job.OwnerID,
		string(job.State),
		job.Progress,
		job.Cost,
		job.Config.DurationSeconds,
		string(job.Config.AspectRatio),
		string(job.Config.Quality),
		job.MotionID,
		job.InputImageKey,
		job.ReferenceKey,
		job.EngineHandle,
		job.ResultURI,
		job.FailureReason,
		job.CreatedAt,
	)
	return row.Scan(&job.CreatedAt, &job.UpdatedAt)
}

// GetByID fetches a job by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	row := r.runner.QueryRow(ctx, sqlinline.QSelectJobByID, id)
	return scanJob(row)
}

// Update applies mutate to the job under a row lock. The locked read and
// the write happen in one transaction, so concurrent pollers serialize on
// the row. Terminal jobs are refused before the mutator runs.
func (r *JobRepositoryPG) Update(ctx context.Context, id string, mutate func(*domain.Job) error) (*domain.Job, error) {
	var updated *domain.Job
	err := r.runner.WithTx(ctx, func(tx *infra.TxRunner) error {
		job, err := scanJob(tx.QueryRow(ctx, sqlinline.QSelectJobForUpdate, id))
		if err != nil {
			return err
		}
		if job.State.Terminal() {
			return domain.ErrJobTerminal
		}
		if err := mutate(job); err != nil {
			return err
		}
		row := tx.QueryRow(ctx, sqlinline.QUpdateJob,
			job.ID,
			string(job.State),
			job.Progress,
			job.EngineHandle,
			job.ResultURI,
			job.FailureReason,
		)
		if err := row.Scan(&job.UpdatedAt); err != nil {
			return err
		}
		updated = job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListByOwner returns the owner's jobs, newest first.
func (r *JobRepositoryPG) ListByOwner(ctx context.Context, ownerID string) ([]domain.Job, error) {
	return r.queryJobs(ctx, sqlinline.QListJobsByOwner, ownerID)
}

// ListActive returns every job not yet in a terminal state.
func (r *JobRepositoryPG) ListActive(ctx context.Context) ([]domain.Job, error) {
	return r.queryJobs(ctx, sqlinline.QListActiveJobs)
}

// ListAll returns every job, newest first.
func (r *JobRepositoryPG) ListAll(ctx context.Context) ([]domain.Job, error) {
	return r.queryJobs(ctx, sqlinline.QListAllJobs)
}

func (r *JobRepositoryPG) queryJobs(ctx context.Context, query string, args ...any) ([]domain.Job, error) {
	rows, err := r.runner.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		var j domain.Job
		if err := scanJobFields(rows, &j); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func scanJob(row pgx.Row) (*domain.Job, error) {
	var j domain.Job
	if err := scanJobFields(row, &j); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, err
	}
	return &j, nil
}

func scanJobFields(row pgx.Row, j *domain.Job) error {
	return row.Scan(
		&j.ID,
		&j.OwnerID,
		&j.State,
		&j.Progress,
		&j.Cost,
		&j.Config.DurationSeconds,
		&j.Config.AspectRatio,
		&j.Config.Quality,
		&j.MotionID,
		&j.InputImageKey,
		&j.ReferenceKey,
		&j.EngineHandle,
		&j.ResultURI,
		&j.FailureReason,
		&j.CreatedAt,
		&j.UpdatedAt,
	)
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)
