package service

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/clipvault/clipvault/common/clerr"
	"github.com/clipvault/clipvault/common/config"
	"github.com/clipvault/clipvault/common/logger"
	"github.com/clipvault/clipvault/common/models"
	"github.com/clipvault/clipvault/common/tenant"
)

// ContentStore is the subset of the content repository the clip service
// depends on.
type ContentStore interface {
	Ingest(ctx context.Context, sourceURL string, mediaKind models.MediaKind) (uuid.UUID, bool, error)
	SaveForTenant(ctx context.Context, scope tenant.Scope, contentID uuid.UUID, notes string) (*models.SavedContent, bool, error)
	UnsaveForTenant(ctx context.Context, scope tenant.Scope, contentID uuid.UUID) error
	GetForTenant(ctx context.Context, scope tenant.Scope, contentID uuid.UUID) (*models.ContentView, error)
	ListSavedForTenant(ctx context.Context, scope tenant.Scope, limit, offset int) ([]*models.ContentView, error)
}

// JobSeeder creates the enrichment job lineages for new content.
type JobSeeder interface {
	CreateForContent(ctx context.Context, sys tenant.SystemScope, contentID uuid.UUID, types []models.JobType, maxAttempts, priority int) error
}

// Notifier hands a clip.created event to the outbound dispatcher.
type Notifier interface {
	NotifyCreated(contentID uuid.UUID, sourceURL, tenantID string)
}

// SaveClipRequest is the inbound save payload.
type SaveClipRequest struct {
	SourceURL string `json:"source_url" validate:"required,url"`
	MediaKind string `json:"media_kind" validate:"omitempty,oneof=link video audio article"`
	Notes     string `json:"notes"`
}

// SaveClipResult reports the outcome of a save.
type SaveClipResult struct {
	ContentID uuid.UUID            `json:"content_id"`
	Created   bool                 `json:"created"`
	Duplicate bool                 `json:"-"`
	Saved     *models.SavedContent `json:"saved"`
}

// ClipService orchestrates the ingestion flow: dedup-or-create the canonical
// content, link it to the saving tenant, and on fresh content kick off the
// enrichment pipeline.
type ClipService struct {
	content ContentStore
	jobs    JobSeeder
	events  Notifier
	sys     tenant.SystemScope
	cfg     *config.Config
	log     *logger.Logger
}

// NewClipService creates a new clip service
func NewClipService(content ContentStore, jobs JobSeeder, events Notifier, cfg *config.Config, log *logger.Logger) *ClipService {
	return &ClipService{
		content: content,
		jobs:    jobs,
		events:  events,
		sys:     tenant.NewSystemScope("ingest"),
		cfg:     cfg,
		log:     log,
	}
}

// Save ingests a source reference for a tenant. Exactly one clip.created
// event is emitted per newly created canonical row, no matter how many
// tenants race on the same URL. A repeat save by the same tenant surfaces
// ErrDuplicateSave with the existing id attached to the result.
func (s *ClipService) Save(ctx context.Context, scope tenant.Scope, req SaveClipRequest) (*SaveClipResult, error) {
	if err := validateSourceURL(req.SourceURL); err != nil {
		return nil, err
	}

	mediaKind := models.MediaKind(req.MediaKind)
	if mediaKind == "" {
		mediaKind = models.MediaKindLink
	}

	contentID, created, err := s.content.Ingest(ctx, req.SourceURL, mediaKind)
	if err != nil {
		return nil, fmt.Errorf("failed to ingest content: %w", err)
	}

	saved, isNew, err := s.content.SaveForTenant(ctx, scope, contentID, req.Notes)
	if err != nil {
		return nil, fmt.Errorf("failed to save content: %w", err)
	}

	result := &SaveClipResult{
		ContentID: contentID,
		Created:   created,
		Saved:     saved,
	}

	if created {
		// Fire-and-forget: delivery problems never surface to the saver.
		s.events.NotifyCreated(contentID, req.SourceURL, scope.TenantID())

		if err := s.jobs.CreateForContent(ctx, s.sys, contentID, s.jobTypes(), s.cfg.Jobs.MaxAttempts, 0); err != nil {
			// Content and the event both exist; job seeding can be redone by
			// the enricher when it consumes the event.
			s.log.Error("failed to seed enrichment jobs",
				"content_id", contentID,
				"error", err,
			)
		}

		s.log.Info("content created",
			"content_id", contentID,
			"tenant", scope.TenantID(),
			"media_kind", mediaKind,
		)
	}

	if !isNew {
		result.Duplicate = true
		return result, fmt.Errorf("%w: content %s", clerr.ErrDuplicateSave, contentID)
	}

	return result, nil
}

// Get returns the content view for the requesting tenant.
func (s *ClipService) Get(ctx context.Context, scope tenant.Scope, contentID uuid.UUID) (*models.ContentView, error) {
	return s.content.GetForTenant(ctx, scope, contentID)
}

// ListSaved returns the tenant's saved content by save recency.
func (s *ClipService) ListSaved(ctx context.Context, scope tenant.Scope, limit, offset int) ([]*models.ContentView, error) {
	if limit < 1 || limit > s.cfg.Search.MaxPageSize {
		limit = s.cfg.Search.PageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.content.ListSavedForTenant(ctx, scope, limit, offset)
}

// Unsave removes the tenant's association to a content row.
func (s *ClipService) Unsave(ctx context.Context, scope tenant.Scope, contentID uuid.UUID) error {
	if err := s.content.UnsaveForTenant(ctx, scope, contentID); err != nil {
		return err
	}

	s.log.Info("content unsaved", "content_id", contentID, "tenant", scope.TenantID())
	return nil
}

func (s *ClipService) jobTypes() []models.JobType {
	types := make([]models.JobType, 0, len(s.cfg.Jobs.Types))
	for _, t := range s.cfg.Jobs.Types {
		types = append(types, models.JobType(t))
	}
	return types
}

// validateSourceURL rejects references that are not absolute http(s) URLs.
func validateSourceURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return clerr.Invalidf("malformed source url: %v", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return clerr.Invalidf("source url must be http or https, got %q", parsed.Scheme)
	}

	if parsed.Host == "" {
		return clerr.Invalidf("source url has no host")
	}

	return nil
}
