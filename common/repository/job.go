package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clipvault/clipvault/common/clerr"
	"github.com/clipvault/clipvault/common/db"
	"github.com/clipvault/clipvault/common/models"
	"github.com/clipvault/clipvault/common/tenant"
)

// JobRepository handles enrichment job rows. Jobs are system-owned: every
// mutation requires the privileged scope; tenants only ever read status.
type JobRepository struct {
	db *db.DB
}

// NewJobRepository creates a new job repository
func NewJobRepository(database *db.DB) *JobRepository {
	return &JobRepository{db: database}
}

const jobColumns = `job_id, content_id, job_type, status, attempts, max_attempts,
	priority, error_detail, result, created_at, started_at, finished_at`

// CreateForContent seeds one pending job per enrichment type for a content
// row. Re-seeding is a no-op per (content_id, job_type).
func (r *JobRepository) CreateForContent(ctx context.Context, sys tenant.SystemScope, contentID uuid.UUID, types []models.JobType, maxAttempts, priority int) error {
	query := `
		INSERT INTO enrichment_job (content_id, job_type, max_attempts, priority)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (content_id, job_type) DO NOTHING
	`

	for _, jobType := range types {
		if _, err := r.db.Exec(ctx, query, contentID, jobType, maxAttempts, priority); err != nil {
			return storeErr("create enrichment job", err)
		}
	}

	return nil
}

// NextPending fetches claimable jobs, priority descending then FIFO by
// creation time. The partial index keeps this scan off terminal rows.
func (r *JobRepository) NextPending(ctx context.Context, sys tenant.SystemScope, limit int) ([]*models.EnrichmentJob, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM enrichment_job
		WHERE status = 'pending'
		ORDER BY priority DESC, created_at ASC
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, storeErr("list pending jobs", err)
	}
	defer rows.Close()

	return scanJobs(rows)
}

// Claim atomically moves a job from pending to running. The state guard in
// the WHERE clause is the whole claim protocol: of N workers racing on the
// same job id, exactly one update matches and the rest observe
// ErrNotClaimed with no intermediate state.
func (r *JobRepository) Claim(ctx context.Context, sys tenant.SystemScope, jobID uuid.UUID) (*models.EnrichmentJob, error) {
	query := `
		UPDATE enrichment_job
		SET status = 'running', attempts = attempts + 1, started_at = now()
		WHERE job_id = $1 AND status = 'pending'
		RETURNING ` + jobColumns

	job, err := scanJobRow(r.db.QueryRow(ctx, query, jobID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: job %s", clerr.ErrNotClaimed, jobID)
	}
	if err != nil {
		return nil, storeErr("claim job", err)
	}

	return job, nil
}

// Complete finishes a running job with its result payload.
func (r *JobRepository) Complete(ctx context.Context, sys tenant.SystemScope, jobID uuid.UUID, result map[string]any) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode job result: %w", err)
	}

	query := `
		UPDATE enrichment_job
		SET status = 'completed', result = $2, error_detail = '', finished_at = now()
		WHERE job_id = $1 AND status = 'running'
	`

	tag, err := r.db.Exec(ctx, query, jobID, resultJSON)
	if err != nil {
		return storeErr("complete job", err)
	}

	if tag.RowsAffected() == 0 {
		return clerr.NotFoundf("running job %s", jobID)
	}

	return nil
}

// Fail records a failed attempt. While the attempt budget lasts the job
// goes back to pending for automatic retry; once attempts reach
// max_attempts it parks in terminal failed.
func (r *JobRepository) Fail(ctx context.Context, sys tenant.SystemScope, jobID uuid.UUID, errorDetail string) (models.JobStatus, error) {
	query := `
		UPDATE enrichment_job
		SET status = CASE WHEN attempts < max_attempts THEN 'pending' ELSE 'failed' END,
		    error_detail = $2,
		    finished_at = CASE WHEN attempts < max_attempts THEN NULL ELSE now() END
		WHERE job_id = $1 AND status = 'running'
		RETURNING status
	`

	var status models.JobStatus
	err := r.db.QueryRow(ctx, query, jobID, errorDetail).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", clerr.NotFoundf("running job %s", jobID)
	}
	if err != nil {
		return "", storeErr("fail job", err)
	}

	return status, nil
}

// Cancel aborts a job that has not finished.
func (r *JobRepository) Cancel(ctx context.Context, sys tenant.SystemScope, jobID uuid.UUID) error {
	query := `
		UPDATE enrichment_job
		SET status = 'cancelled', finished_at = now()
		WHERE job_id = $1 AND status IN ('pending', 'running')
	`

	tag, err := r.db.Exec(ctx, query, jobID)
	if err != nil {
		return storeErr("cancel job", err)
	}

	if tag.RowsAffected() == 0 {
		return clerr.NotFoundf("live job %s", jobID)
	}

	return nil
}

// ListForContent returns all job lineages for a content row. Job status is
// globally readable; no tenant scope applies.
func (r *JobRepository) ListForContent(ctx context.Context, contentID uuid.UUID) ([]*models.EnrichmentJob, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM enrichment_job
		WHERE content_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query, contentID)
	if err != nil {
		return nil, storeErr("list jobs for content", err)
	}
	defer rows.Close()

	return scanJobs(rows)
}

func scanJobs(rows pgx.Rows) ([]*models.EnrichmentJob, error) {
	var jobs []*models.EnrichmentJob
	for rows.Next() {
		job, err := scanJobRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating jobs: %w", err)
	}

	return jobs, nil
}

func scanJobRow(row pgx.Row) (*models.EnrichmentJob, error) {
	job := &models.EnrichmentJob{}
	var resultRaw []byte

	err := row.Scan(
		&job.JobID,
		&job.ContentID,
		&job.JobType,
		&job.Status,
		&job.Attempts,
		&job.MaxAttempts,
		&job.Priority,
		&job.ErrorDetail,
		&resultRaw,
		&job.CreatedAt,
		&job.StartedAt,
		&job.FinishedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(resultRaw) > 0 {
		if err := json.Unmarshal(resultRaw, &job.Result); err != nil {
			return nil, fmt.Errorf("decode job result: %w", err)
		}
	}

	return job, nil
}
