package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clipvault/clipvault/common/clerr"
	"github.com/clipvault/clipvault/common/db"
	"github.com/clipvault/clipvault/common/models"
	"github.com/clipvault/clipvault/common/tenant"
)

// TagRepository handles the global tag catalog and content/tag links. Reads
// are unscoped (the catalog is shared across tenants); writes require the
// privileged system scope.
type TagRepository struct {
	db *db.DB
}

// NewTagRepository creates a new tag repository
func NewTagRepository(database *db.DB) *TagRepository {
	return &TagRepository{db: database}
}

// Upsert finds or creates a catalog tag by name.
func (r *TagRepository) Upsert(ctx context.Context, sys tenant.SystemScope, name string, origin models.TagOrigin) (uuid.UUID, error) {
	query := `
		INSERT INTO tag (name, origin)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING tag_id
	`

	var tagID uuid.UUID
	if err := r.db.QueryRow(ctx, query, name, origin).Scan(&tagID); err != nil {
		return uuid.Nil, storeErr("upsert tag", err)
	}

	return tagID, nil
}

// Attach links a tag to content with a confidence score. Attaching the same
// tag twice is a no-op. The usage counter is a derived aggregate, bumped
// only when the link is actually new.
func (r *TagRepository) Attach(ctx context.Context, sys tenant.SystemScope, contentID, tagID uuid.UUID, confidence float64, provenance models.TagProvenance) (bool, error) {
	query := `
		INSERT INTO content_tag (content_id, tag_id, confidence, provenance)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (content_id, tag_id) DO NOTHING
		RETURNING content_id
	`

	var attached uuid.UUID
	err := r.db.QueryRow(ctx, query, contentID, tagID, confidence, provenance).Scan(&attached)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storeErr("attach tag", err)
	}

	usage := `UPDATE tag SET usage_count = usage_count + 1 WHERE tag_id = $1`
	if _, err := r.db.Exec(ctx, usage, tagID); err != nil {
		// The link exists; a missed counter bump is recoverable drift.
		return true, storeErr("bump tag usage", err)
	}

	return true, nil
}

// GetByName retrieves a catalog tag by exact name.
func (r *TagRepository) GetByName(ctx context.Context, name string) (*models.Tag, error) {
	query := `
		SELECT tag_id, name, usage_count, origin, created_at
		FROM tag
		WHERE name = $1
	`

	tag := &models.Tag{}
	err := r.db.QueryRow(ctx, query, name).Scan(
		&tag.TagID,
		&tag.Name,
		&tag.UsageCount,
		&tag.Origin,
		&tag.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, clerr.NotFoundf("tag %q", name)
	}
	if err != nil {
		return nil, storeErr("get tag", err)
	}

	return tag, nil
}

// List retrieves catalog tags ordered by usage.
func (r *TagRepository) List(ctx context.Context, limit int) ([]*models.Tag, error) {
	query := `
		SELECT tag_id, name, usage_count, origin, created_at
		FROM tag
		ORDER BY usage_count DESC, name ASC
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, storeErr("list tags", err)
	}
	defer rows.Close()

	var tags []*models.Tag
	for rows.Next() {
		tag := &models.Tag{}
		err := rows.Scan(&tag.TagID, &tag.Name, &tag.UsageCount, &tag.Origin, &tag.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tags: %w", err)
	}

	return tags, nil
}

// ListForContent retrieves the tags attached to a content row, highest
// confidence first.
func (r *TagRepository) ListForContent(ctx context.Context, contentID uuid.UUID) ([]models.TagRef, error) {
	query := `
		SELECT t.tag_id, t.name, ct.confidence
		FROM content_tag ct
		JOIN tag t ON t.tag_id = ct.tag_id
		WHERE ct.content_id = $1
		ORDER BY ct.confidence DESC, t.name ASC
	`

	rows, err := r.db.Query(ctx, query, contentID)
	if err != nil {
		return nil, storeErr("list content tags", err)
	}
	defer rows.Close()

	var refs []models.TagRef
	for rows.Next() {
		var ref models.TagRef
		if err := rows.Scan(&ref.TagID, &ref.Name, &ref.Confidence); err != nil {
			return nil, fmt.Errorf("failed to scan tag ref: %w", err)
		}
		refs = append(refs, ref)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tag refs: %w", err)
	}

	return refs, nil
}
