// Package worker is the enrichment harness: it consumes clip.created
// events, ensures job lineages exist, and drives the claim/execute/finish
// cycle against the store's privileged write path.
package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/clipvault/clipvault/common/bootstrap"
	"github.com/clipvault/clipvault/common/clerr"
	"github.com/clipvault/clipvault/common/models"
	"github.com/clipvault/clipvault/common/repository"
	"github.com/clipvault/clipvault/common/tenant"
)

// Worker runs the event consumer and the job claim loop.
type Worker struct {
	components *bootstrap.Components
	content    *repository.ContentRepository
	tags       *repository.TagRepository
	jobs       *repository.JobRepository
	enricher   Enricher
	sys        tenant.SystemScope
	consumer   string
}

// New creates a worker with its repositories wired to the bootstrap
// components.
func New(components *bootstrap.Components, enricher Enricher) *Worker {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = uuid.NewString()[:8]
	}

	return &Worker{
		components: components,
		content:    repository.NewContentRepository(components.DB),
		tags:       repository.NewTagRepository(components.DB),
		jobs:       repository.NewJobRepository(components.DB),
		enricher:   enricher,
		sys:        tenant.NewSystemScope("enricher"),
		consumer:   fmt.Sprintf("enricher-%s", hostname),
	}
}

// Run blocks until the context is cancelled, interleaving event consumption
// with job claims.
func (w *Worker) Run(ctx context.Context) error {
	cfg := w.components.Config
	log := w.components.Logger

	if err := w.components.Redis.CreateStreamGroup(ctx, cfg.Dispatcher.EventStream, cfg.Jobs.ConsumerGroup); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	log.Info("enricher started",
		"consumer", w.consumer,
		"group", cfg.Jobs.ConsumerGroup,
		"stream", cfg.Dispatcher.EventStream,
	)

	ticker := time.NewTicker(cfg.Jobs.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("enricher stopping")
			return nil
		case <-ticker.C:
		}

		if err := w.consumeEvents(ctx); err != nil && ctx.Err() == nil {
			log.Error("event consumption failed", "error", err)
		}

		if err := w.claimAndRun(ctx); err != nil && ctx.Err() == nil {
			log.Error("claim cycle failed", "error", err)
		}
	}
}

// consumeEvents reads clip.created events and seeds job lineages. Seeding is
// idempotent, so redelivered events after a crash are harmless.
func (w *Worker) consumeEvents(ctx context.Context) error {
	cfg := w.components.Config
	log := w.components.Logger

	streams, err := w.components.Redis.ReadFromStreamGroup(
		ctx,
		cfg.Jobs.ConsumerGroup,
		w.consumer,
		cfg.Dispatcher.EventStream,
		int64(cfg.Jobs.ClaimBatch),
		100*time.Millisecond,
	)
	if err != nil {
		return err
	}

	for _, stream := range streams {
		for _, msg := range stream.Messages {
			payload, ok := msg.Values["payload"].(string)
			if !ok {
				log.Warn("event without payload, acking", "message_id", msg.ID)
				_ = w.components.Redis.AckStreamMessage(ctx, cfg.Dispatcher.EventStream, cfg.Jobs.ConsumerGroup, msg.ID)
				continue
			}

			event, err := models.UnmarshalClipEvent([]byte(payload))
			if err != nil {
				log.Warn("undecodable event, acking", "message_id", msg.ID, "error", err)
				_ = w.components.Redis.AckStreamMessage(ctx, cfg.Dispatcher.EventStream, cfg.Jobs.ConsumerGroup, msg.ID)
				continue
			}

			if err := w.jobs.CreateForContent(ctx, w.sys, event.ContentID, w.jobTypes(), cfg.Jobs.MaxAttempts, 0); err != nil {
				// Leave the message unacked so the group redelivers it.
				log.Error("failed to seed jobs from event",
					"content_id", event.ContentID,
					"event_id", event.EventID,
					"error", err,
				)
				continue
			}

			if err := w.components.Redis.AckStreamMessage(ctx, cfg.Dispatcher.EventStream, cfg.Jobs.ConsumerGroup, msg.ID); err != nil {
				log.Warn("ack failed, event may redeliver", "message_id", msg.ID, "error", err)
			}

			log.Info("event consumed",
				"event_id", event.EventID,
				"content_id", event.ContentID,
			)
		}
	}

	return nil
}

// claimAndRun claims a batch of pending jobs and executes them. Claim races
// with other workers are expected; losers just move on.
func (w *Worker) claimAndRun(ctx context.Context) error {
	cfg := w.components.Config
	log := w.components.Logger

	pending, err := w.jobs.NextPending(ctx, w.sys, cfg.Jobs.ClaimBatch)
	if err != nil {
		return err
	}

	for _, candidate := range pending {
		job, err := w.jobs.Claim(ctx, w.sys, candidate.JobID)
		if errors.Is(err, clerr.ErrNotClaimed) {
			continue
		}
		if err != nil {
			log.Error("claim failed", "job_id", candidate.JobID, "error", err)
			continue
		}

		w.execute(ctx, job)
	}

	return nil
}

// execute runs one claimed job end to end: enrich, write back, finish.
func (w *Worker) execute(ctx context.Context, job *models.EnrichmentJob) {
	log := w.components.Logger.WithJob(job.JobID.String())

	content, err := w.content.GetSystem(ctx, w.sys, job.ContentID)
	if err != nil {
		w.fail(ctx, job, fmt.Sprintf("load content: %v", err))
		return
	}

	enrichment, err := w.enricher.Enrich(ctx, job, content)
	if err != nil {
		w.fail(ctx, job, err.Error())
		return
	}

	if err := w.writeBack(ctx, job, enrichment); err != nil {
		w.fail(ctx, job, fmt.Sprintf("write back: %v", err))
		return
	}

	if err := w.jobs.Complete(ctx, w.sys, job.JobID, enrichment.Result); err != nil {
		log.Error("failed to complete job", "error", err)
		return
	}

	log.Info("job completed",
		"content_id", job.ContentID,
		"job_type", job.JobType,
		"attempt", job.Attempts,
	)
}

// writeBack applies the enrichment through the privileged store path.
func (w *Worker) writeBack(ctx context.Context, job *models.EnrichmentJob, enrichment *Enrichment) error {
	if enrichment.Transcript != "" || enrichment.Summary != "" || enrichment.Title != "" {
		err := w.content.ApplyEnrichment(
			ctx, w.sys, job.ContentID,
			enrichment.Title, "", enrichment.Transcript, enrichment.Summary,
			models.ContentStatusEnriched,
		)
		if err != nil {
			return err
		}
	}

	for _, suggestion := range enrichment.Tags {
		tagID, err := w.tags.Upsert(ctx, w.sys, suggestion.Name, models.TagOriginSystem)
		if err != nil {
			return err
		}
		if _, err := w.tags.Attach(ctx, w.sys, job.ContentID, tagID, suggestion.Confidence, models.ProvenanceAI); err != nil {
			return err
		}
	}

	return nil
}

// fail records the attempt; the store routes the job back to pending while
// the attempt budget lasts.
func (w *Worker) fail(ctx context.Context, job *models.EnrichmentJob, detail string) {
	log := w.components.Logger.WithJob(job.JobID.String())

	status, err := w.jobs.Fail(ctx, w.sys, job.JobID, detail)
	if err != nil {
		log.Error("failed to record job failure", "error", err, "detail", detail)
		return
	}

	log.Warn("job attempt failed",
		"job_type", job.JobType,
		"attempt", job.Attempts,
		"next_status", status,
		"detail", detail,
	)

	// Once the job parks in terminal failed, surface it on the content row.
	if status == models.JobStatusFailed {
		err := w.content.ApplyEnrichment(ctx, w.sys, job.ContentID, "", "", "", "", models.ContentStatusFailed)
		if err != nil {
			log.Error("failed to mark content failed", "error", err)
		}
	}
}

func (w *Worker) jobTypes() []models.JobType {
	cfg := w.components.Config
	types := make([]models.JobType, 0, len(cfg.Jobs.Types))
	for _, t := range cfg.Jobs.Types {
		types = append(types, models.JobType(t))
	}
	return types
}
