package models

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is the enrichment job state machine:
//
//	pending -> running -> {completed | failed | cancelled}
//	failed  -> pending   (only while attempts < max_attempts)
//
// completed and cancelled are terminal; failed becomes terminal once the
// attempt budget is exhausted.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// JobType names an enrichment pipeline stage.
type JobType string

const (
	JobTypeTranscription JobType = "transcription"
	JobTypeSummarization JobType = "summarization"
	JobTypeTagging       JobType = "tagging"
)

// EnrichmentJob is one (content_id, job_type) attempt lineage, system-owned
// and driven exclusively by enrichment workers.
// Maps to: enrichment_job table
type EnrichmentJob struct {
	JobID       uuid.UUID      `db:"job_id" json:"job_id"`
	ContentID   uuid.UUID      `db:"content_id" json:"content_id"`
	JobType     JobType        `db:"job_type" json:"job_type"`
	Status      JobStatus      `db:"status" json:"status"`
	Attempts    int            `db:"attempts" json:"attempts"`
	MaxAttempts int            `db:"max_attempts" json:"max_attempts"`
	Priority    int            `db:"priority" json:"priority"`
	ErrorDetail string         `db:"error_detail" json:"error_detail,omitempty"`
	Result      map[string]any `db:"result" json:"result,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	StartedAt   *time.Time     `db:"started_at" json:"started_at,omitempty"`
	FinishedAt  *time.Time     `db:"finished_at" json:"finished_at,omitempty"`
}

// CanTransition reports whether moving the job from its current status to
// next is a legal state-machine step.
func (j *EnrichmentJob) CanTransition(next JobStatus) bool {
	switch j.Status {
	case JobStatusPending:
		return next == JobStatusRunning || next == JobStatusCancelled
	case JobStatusRunning:
		return next == JobStatusCompleted || next == JobStatusFailed || next == JobStatusCancelled
	case JobStatusFailed:
		// Automatic retry re-queues a failed job while budget remains.
		return next == JobStatusPending && j.Attempts < j.MaxAttempts
	default:
		return false
	}
}

// Terminal reports whether the job can never transition again.
func (j *EnrichmentJob) Terminal() bool {
	switch j.Status {
	case JobStatusCompleted, JobStatusCancelled:
		return true
	case JobStatusFailed:
		return j.Attempts >= j.MaxAttempts
	default:
		return false
	}
}
