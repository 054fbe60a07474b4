package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clipvault/clipvault/common/clerr"
	"github.com/clipvault/clipvault/common/db"
	"github.com/clipvault/clipvault/common/models"
	"github.com/clipvault/clipvault/common/tenant"
)

// ContentRepository handles database operations for canonical content and
// per-tenant saved associations.
type ContentRepository struct {
	db *db.DB
}

// NewContentRepository creates a new content repository
func NewContentRepository(database *db.DB) *ContentRepository {
	return &ContentRepository{db: database}
}

// Ingest atomically finds or creates the canonical content row for a source
// reference. Safe under arbitrary concurrent callers racing on the same
// URL: the conflict-resolving insert guarantees exactly one caller observes
// created=true and every other caller gets the pre-existing id. The
// (xmax = 0) test distinguishes a fresh insert from a conflict update
// within the same statement.
func (r *ContentRepository) Ingest(ctx context.Context, sourceURL string, mediaKind models.MediaKind) (uuid.UUID, bool, error) {
	query := `
		INSERT INTO content (source_url, media_kind)
		VALUES ($1, $2)
		ON CONFLICT (source_url) DO UPDATE SET source_url = EXCLUDED.source_url
		RETURNING content_id, (xmax = 0) AS is_new
	`

	var contentID uuid.UUID
	var created bool
	err := r.db.QueryRow(ctx, query, sourceURL, mediaKind).Scan(&contentID, &created)
	if err != nil {
		return uuid.Nil, false, storeErr("ingest content", err)
	}

	return contentID, created, nil
}

// SaveForTenant upserts the tenant's association to a content row. Returns
// the saved row and whether the link is new; a repeat save refreshes notes
// instead of erroring so the caller can decide how to surface it.
func (r *ContentRepository) SaveForTenant(ctx context.Context, scope tenant.Scope, contentID uuid.UUID, notes string) (*models.SavedContent, bool, error) {
	if !scope.Valid() {
		return nil, false, clerr.Invalidf("unbound tenant scope")
	}

	query := `
		INSERT INTO saved_content (owner_id, content_id, notes)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner_id, content_id) DO UPDATE
		SET notes = COALESCE(NULLIF(EXCLUDED.notes, ''), saved_content.notes)
		RETURNING owner_id, content_id, notes, favorite, saved_at, (xmax = 0) AS is_new
	`

	saved := &models.SavedContent{}
	var isNew bool
	err := r.db.QueryRow(ctx, query, scope.TenantID(), contentID, notes).Scan(
		&saved.OwnerID,
		&saved.ContentID,
		&saved.Notes,
		&saved.Favorite,
		&saved.SavedAt,
		&isNew,
	)
	if err != nil {
		return nil, false, storeErr("save content for tenant", err)
	}

	return saved, isNew, nil
}

// UnsaveForTenant removes the tenant's association. The content row itself
// is never deleted here; other tenants may still reference it.
func (r *ContentRepository) UnsaveForTenant(ctx context.Context, scope tenant.Scope, contentID uuid.UUID) error {
	if !scope.Valid() {
		return clerr.Invalidf("unbound tenant scope")
	}

	query := `DELETE FROM saved_content WHERE owner_id = $1 AND content_id = $2`

	result, err := r.db.Exec(ctx, query, scope.TenantID(), contentID)
	if err != nil {
		return storeErr("unsave content", err)
	}

	if result.RowsAffected() == 0 {
		return clerr.NotFoundf("content %s", contentID)
	}

	return nil
}

// GetForTenant returns a content view: the canonical row, the requesting
// tenant's saved association if present, and the attached tags. The saved
// join is bound to the caller's scope inside the statement, so another
// tenant's private fields can never leak into the result set.
func (r *ContentRepository) GetForTenant(ctx context.Context, scope tenant.Scope, contentID uuid.UUID) (*models.ContentView, error) {
	if !scope.Valid() {
		return nil, clerr.Invalidf("unbound tenant scope")
	}

	query := `
		SELECT c.content_id, c.source_url, c.media_kind, c.title, c.description,
		       c.transcript, c.summary, c.status, c.metadata, c.created_at, c.updated_at,
		       sc.notes, sc.favorite, sc.saved_at,
		       COALESCE(json_agg(json_build_object(
		           'tag_id', t.tag_id, 'name', t.name, 'confidence', ct.confidence)
		           ORDER BY ct.confidence DESC)
		           FILTER (WHERE t.tag_id IS NOT NULL), '[]') AS tags
		FROM content c
		LEFT JOIN saved_content sc ON sc.content_id = c.content_id AND sc.owner_id = $2
		LEFT JOIN content_tag ct ON ct.content_id = c.content_id
		LEFT JOIN tag t ON t.tag_id = ct.tag_id
		WHERE c.content_id = $1
		GROUP BY c.content_id, sc.owner_id, sc.content_id
	`

	view := &models.ContentView{}
	var notes *string
	var favorite *bool
	var savedAt *time.Time
	var metadataRaw []byte
	var tagsRaw []byte

	row := r.db.QueryRow(ctx, query, contentID, scope.TenantID())
	err := row.Scan(
		&view.Content.ContentID,
		&view.Content.SourceURL,
		&view.Content.MediaKind,
		&view.Content.Title,
		&view.Content.Description,
		&view.Content.Transcript,
		&view.Content.Summary,
		&view.Content.Status,
		&metadataRaw,
		&view.Content.CreatedAt,
		&view.Content.UpdatedAt,
		&notes,
		&favorite,
		&savedAt,
		&tagsRaw,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, clerr.NotFoundf("content %s", contentID)
	}
	if err != nil {
		return nil, storeErr("get content", err)
	}

	if len(metadataRaw) > 0 {
		if err := json.Unmarshal(metadataRaw, &view.Content.Metadata); err != nil {
			return nil, fmt.Errorf("decode content metadata: %w", err)
		}
	}

	if err := json.Unmarshal(tagsRaw, &view.Tags); err != nil {
		return nil, fmt.Errorf("decode content tags: %w", err)
	}

	if savedAt != nil {
		view.Saved = &models.SavedContent{
			OwnerID:   scope.TenantID(),
			ContentID: contentID,
			Notes:     deref(notes),
			Favorite:  favorite != nil && *favorite,
			SavedAt:   *savedAt,
		}
	}

	return view, nil
}

// ListSavedForTenant lists the tenant's saved content by save recency. Tags
// ride along so rule evaluation and list rendering see the same view shape
// GetForTenant produces.
func (r *ContentRepository) ListSavedForTenant(ctx context.Context, scope tenant.Scope, limit, offset int) ([]*models.ContentView, error) {
	if !scope.Valid() {
		return nil, clerr.Invalidf("unbound tenant scope")
	}

	query := `
		SELECT c.content_id, c.source_url, c.media_kind, c.title, c.description,
		       c.summary, c.status, c.created_at, c.updated_at,
		       sc.notes, sc.favorite, sc.saved_at,
		       COALESCE(json_agg(json_build_object(
		           'tag_id', t.tag_id, 'name', t.name, 'confidence', ct.confidence)
		           ORDER BY ct.confidence DESC)
		           FILTER (WHERE t.tag_id IS NOT NULL), '[]') AS tags
		FROM saved_content sc
		JOIN content c ON c.content_id = sc.content_id
		LEFT JOIN content_tag ct ON ct.content_id = c.content_id
		LEFT JOIN tag t ON t.tag_id = ct.tag_id
		WHERE sc.owner_id = $1
		GROUP BY c.content_id, sc.owner_id, sc.content_id
		ORDER BY sc.saved_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, scope.TenantID(), limit, offset)
	if err != nil {
		return nil, storeErr("list saved content", err)
	}
	defer rows.Close()

	var views []*models.ContentView
	for rows.Next() {
		view := &models.ContentView{Saved: &models.SavedContent{OwnerID: scope.TenantID()}}
		var tagsRaw []byte
		err := rows.Scan(
			&view.Content.ContentID,
			&view.Content.SourceURL,
			&view.Content.MediaKind,
			&view.Content.Title,
			&view.Content.Description,
			&view.Content.Summary,
			&view.Content.Status,
			&view.Content.CreatedAt,
			&view.Content.UpdatedAt,
			&view.Saved.Notes,
			&view.Saved.Favorite,
			&view.Saved.SavedAt,
			&tagsRaw,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan saved content: %w", err)
		}
		if err := json.Unmarshal(tagsRaw, &view.Tags); err != nil {
			return nil, fmt.Errorf("decode saved content tags: %w", err)
		}
		view.Saved.ContentID = view.Content.ContentID
		views = append(views, view)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating saved content: %w", err)
	}

	return views, nil
}

// GetSystem reads the canonical row without tenant joins. Pipeline-only:
// workers hold no tenant scope, and nothing tenant-private is selected.
func (r *ContentRepository) GetSystem(ctx context.Context, sys tenant.SystemScope, contentID uuid.UUID) (*models.Content, error) {
	query := `
		SELECT content_id, source_url, media_kind, title, description,
		       transcript, summary, status, created_at, updated_at
		FROM content
		WHERE content_id = $1
	`

	content := &models.Content{}
	err := r.db.QueryRow(ctx, query, contentID).Scan(
		&content.ContentID,
		&content.SourceURL,
		&content.MediaKind,
		&content.Title,
		&content.Description,
		&content.Transcript,
		&content.Summary,
		&content.Status,
		&content.CreatedAt,
		&content.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, clerr.NotFoundf("content %s", contentID)
	}
	if err != nil {
		return nil, storeErr("get content (system)", err)
	}

	return content, nil
}

// ApplyEnrichment writes derived transcript/summary text and metadata back
// onto the canonical row. Privileged path: only holders of a system scope
// reach it, never a tenant-facing handler.
func (r *ContentRepository) ApplyEnrichment(ctx context.Context, sys tenant.SystemScope, contentID uuid.UUID, title, description, transcript, summary string, status models.ContentStatus) error {
	query := `
		UPDATE content
		SET title = COALESCE(NULLIF($2, ''), title),
		    description = COALESCE(NULLIF($3, ''), description),
		    transcript = COALESCE(NULLIF($4, ''), transcript),
		    summary = COALESCE(NULLIF($5, ''), summary),
		    status = $6,
		    updated_at = now()
		WHERE content_id = $1
	`

	result, err := r.db.Exec(ctx, query, contentID, title, description, transcript, summary, status)
	if err != nil {
		return storeErr("apply enrichment", err)
	}

	if result.RowsAffected() == 0 {
		return clerr.NotFoundf("content %s", contentID)
	}

	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
