package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"imageforge/internal/domain"
	"imageforge/internal/infra"
	"imageforge/internal/sqlinline"
)

// JobRepositoryPG implements domain.JobRepository against PostgreSQL. All
// statements run through the audited SQL executor; the claim statements are
// single read-modify-writes, which is what makes TryClaim safe under
// duplicate trigger deliveries.
type JobRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewJobRepository creates a job repository backed by the given executor.
func NewJobRepository(sql infra.SQLExecutor) *JobRepositoryPG {
	return &JobRepositoryPG{sql: sql}
}

// UpsertQueued creates the record queued, or re-queues one in error. When the
// record exists in a non-requeueable state it is returned as-is.
func (r *JobRepositoryPG) UpsertQueued(ctx context.Context, key, title string) (*domain.Job, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QUpsertQueuedJob, key, title)
	job, err := scanJob(row)
	if err == nil {
		return job, nil
	}
	if !infra.IsNoRows(err) {
		return nil, fmt.Errorf("upsert queued job: %w", err)
	}
	// Conflict on a record that is not requeueable; hand back current state.
	return r.Get(ctx, key)
}

// Get fetches a record by key.
func (r *JobRepositoryPG) Get(ctx context.Context, key string) (*domain.Job, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectJob, key)
	job, err := scanJob(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select job: %w", err)
	}
	return job, nil
}

// TryClaim atomically transitions queued -> processing. No row back means the
// record is already owned, already resolved, or absent; the caller gets
// claimed=false and the current record state when it still exists.
func (r *JobRepositoryPG) TryClaim(ctx context.Context, key string, staleBefore *time.Time) (*domain.Job, bool, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QClaimJobByKey, key, staleBefore)
	job, err := scanJob(row)
	if err == nil {
		return job, true, nil
	}
	if !infra.IsNoRows(err) {
		return nil, false, fmt.Errorf("claim job: %w", err)
	}
	job, err = r.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	return job, false, nil
}

// ClaimNext claims the oldest queued record, or ErrNotFound when none.
func (r *JobRepositoryPG) ClaimNext(ctx context.Context) (*domain.Job, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QClaimNextJob)
	job, err := scanJob(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("claim next job: %w", err)
	}
	return job, nil
}

// MarkGenerating records the pre-generation observability transition.
func (r *JobRepositoryPG) MarkGenerating(ctx context.Context, key string) error {
	_, err := r.sql.Exec(ctx, sqlinline.QMarkJobGenerating, key)
	return err
}

// Complete marks the record done with its output location. A repeat call with
// identical arguments affects no rows; zero rows for a vanished record
// surfaces ErrNotFound so the caller can report the dropped update.
func (r *JobRepositoryPG) Complete(ctx context.Context, key, outputBucket, outputPath, outputURL string) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QCompleteJob, key, outputBucket, outputPath, outputURL)
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.checkExists(ctx, key)
	}
	return nil
}

// Fail marks the record errored and bumps the failure counter.
func (r *JobRepositoryPG) Fail(ctx context.Context, key, message string) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QFailJob, key, message)
	if err != nil {
		return fmt.Errorf("fail job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.checkExists(ctx, key)
	}
	return nil
}

// SetOutputURL persists a refreshed URL; no-op when unchanged.
func (r *JobRepositoryPG) SetOutputURL(ctx context.Context, key, url string) error {
	_, err := r.sql.Exec(ctx, sqlinline.QSetJobOutputURL, key, url)
	return err
}

// NormalizeDone forces status done; no-op when already done.
func (r *JobRepositoryPG) NormalizeDone(ctx context.Context, key string) error {
	_, err := r.sql.Exec(ctx, sqlinline.QNormalizeJobDone, key)
	return err
}

// checkExists distinguishes an idempotent no-op from a vanished record.
func (r *JobRepositoryPG) checkExists(ctx context.Context, key string) error {
	if _, err := r.Get(ctx, key); err != nil {
		return err
	}
	return nil
}

func scanJob(row pgx.Row) (*domain.Job, error) {
	var job domain.Job
	if err := row.Scan(
		&job.RecordKey,
		&job.Status,
		&job.Title,
		&job.Prompt,
		&job.SourceBucket,
		&job.SourcePath,
		&job.OutputBucket,
		&job.OutputPath,
		&job.OutputURL,
		&job.ErrorMessage,
		&job.ErrorCount,
		&job.StartedAt,
		&job.CompletedAt,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &job, nil
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)
