package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/clipvault/clipvault/common/logger"
	"github.com/clipvault/clipvault/common/models"
	"github.com/clipvault/clipvault/common/repository"
	"github.com/clipvault/clipvault/common/tenant"
)

// JobService exposes enrichment job status and cancellation. Job rows are
// system-owned; the API surface only reads them and requests cancellation.
type JobService struct {
	repo *repository.JobRepository
	sys  tenant.SystemScope
	log  *logger.Logger
}

// NewJobService creates a new job service
func NewJobService(repo *repository.JobRepository, log *logger.Logger) *JobService {
	return &JobService{
		repo: repo,
		sys:  tenant.NewSystemScope("api"),
		log:  log,
	}
}

// ListForContent returns all enrichment job lineages for a content row.
func (s *JobService) ListForContent(ctx context.Context, contentID uuid.UUID) ([]*models.EnrichmentJob, error) {
	jobs, err := s.repo.ListForContent(ctx, contentID)
	if err != nil {
		return nil, err
	}

	if jobs == nil {
		jobs = []*models.EnrichmentJob{}
	}
	return jobs, nil
}

// Cancel aborts a pending or running job.
func (s *JobService) Cancel(ctx context.Context, jobID uuid.UUID) error {
	if err := s.repo.Cancel(ctx, s.sys, jobID); err != nil {
		return err
	}

	s.log.Info("job cancelled", "job_id", jobID)
	return nil
}
