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

// CollectionRepository handles tenant-owned collections and their curated
// membership. Every operation carries the owner predicate inside the
// statement itself; reads additionally honor the is_public carve-out.
type CollectionRepository struct {
	db *db.DB
}

// NewCollectionRepository creates a new collection repository
func NewCollectionRepository(database *db.DB) *CollectionRepository {
	return &CollectionRepository{db: database}
}

// Create inserts a new collection for the bound tenant. A name collision
// within the tenant surfaces as ErrDuplicateName.
func (r *CollectionRepository) Create(ctx context.Context, scope tenant.Scope, coll *models.Collection) error {
	if !scope.Valid() {
		return clerr.Invalidf("unbound tenant scope")
	}

	query := `
		INSERT INTO collection (owner_id, name, description, is_smart, rule, is_public, color_hex)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING collection_id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		scope.TenantID(),
		coll.Name,
		coll.Description,
		coll.IsSmart,
		coll.Rule,
		coll.IsPublic,
		coll.ColorHex,
	).Scan(&coll.CollectionID, &coll.CreatedAt, &coll.UpdatedAt)

	if isUniqueViolation(err) {
		return fmt.Errorf("%w: collection %q", clerr.ErrDuplicateName, coll.Name)
	}
	if err != nil {
		return storeErr("create collection", err)
	}

	coll.OwnerID = scope.TenantID()
	return nil
}

// ListForTenant lists the tenant's own collections with membership counts,
// newest first.
func (r *CollectionRepository) ListForTenant(ctx context.Context, scope tenant.Scope, limit, offset int) ([]*models.Collection, int64, error) {
	if !scope.Valid() {
		return nil, 0, clerr.Invalidf("unbound tenant scope")
	}

	query := `
		SELECT c.collection_id, c.owner_id, c.name, c.description, c.is_smart,
		       c.rule, c.is_public, c.color_hex, c.created_at, c.updated_at,
		       COUNT(cc.content_id) AS content_count
		FROM collection c
		LEFT JOIN collection_content cc ON cc.collection_id = c.collection_id
		WHERE c.owner_id = $1
		GROUP BY c.collection_id
		ORDER BY c.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, scope.TenantID(), limit, offset)
	if err != nil {
		return nil, 0, storeErr("list collections", err)
	}
	defer rows.Close()

	var colls []*models.Collection
	for rows.Next() {
		coll := &models.Collection{}
		err := rows.Scan(
			&coll.CollectionID,
			&coll.OwnerID,
			&coll.Name,
			&coll.Description,
			&coll.IsSmart,
			&coll.Rule,
			&coll.IsPublic,
			&coll.ColorHex,
			&coll.CreatedAt,
			&coll.UpdatedAt,
			&coll.ContentCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan collection: %w", err)
		}
		colls = append(colls, coll)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating collections: %w", err)
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM collection WHERE owner_id = $1`
	if err := r.db.QueryRow(ctx, countQuery, scope.TenantID()).Scan(&total); err != nil {
		return nil, 0, storeErr("count collections", err)
	}

	return colls, total, nil
}

// GetByID retrieves a collection the tenant owns, or any public collection.
// A row excluded by the predicate is indistinguishable from a missing row.
func (r *CollectionRepository) GetByID(ctx context.Context, scope tenant.Scope, collectionID uuid.UUID) (*models.Collection, error) {
	if !scope.Valid() {
		return nil, clerr.Invalidf("unbound tenant scope")
	}

	query := `
		SELECT collection_id, owner_id, name, description, is_smart, rule,
		       is_public, color_hex, created_at, updated_at
		FROM collection
		WHERE collection_id = $1 AND (owner_id = $2 OR is_public)
	`

	coll := &models.Collection{}
	err := r.db.QueryRow(ctx, query, collectionID, scope.TenantID()).Scan(
		&coll.CollectionID,
		&coll.OwnerID,
		&coll.Name,
		&coll.Description,
		&coll.IsSmart,
		&coll.Rule,
		&coll.IsPublic,
		&coll.ColorHex,
		&coll.CreatedAt,
		&coll.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, clerr.NotFoundf("collection %s", collectionID)
	}
	if err != nil {
		return nil, storeErr("get collection", err)
	}

	return coll, nil
}

// Update applies new field values to a collection the tenant owns.
func (r *CollectionRepository) Update(ctx context.Context, scope tenant.Scope, coll *models.Collection) error {
	if !scope.Valid() {
		return clerr.Invalidf("unbound tenant scope")
	}

	query := `
		UPDATE collection
		SET name = $3, description = $4, rule = $5, is_public = $6,
		    color_hex = $7, updated_at = now()
		WHERE collection_id = $1 AND owner_id = $2
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query,
		coll.CollectionID,
		scope.TenantID(),
		coll.Name,
		coll.Description,
		coll.Rule,
		coll.IsPublic,
		coll.ColorHex,
	).Scan(&coll.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return clerr.NotFoundf("collection %s", coll.CollectionID)
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: collection %q", clerr.ErrDuplicateName, coll.Name)
	}
	if err != nil {
		return storeErr("update collection", err)
	}

	return nil
}

// Delete removes a collection the tenant owns. Membership rows go with it.
func (r *CollectionRepository) Delete(ctx context.Context, scope tenant.Scope, collectionID uuid.UUID) error {
	if !scope.Valid() {
		return clerr.Invalidf("unbound tenant scope")
	}

	query := `DELETE FROM collection WHERE collection_id = $1 AND owner_id = $2`

	result, err := r.db.Exec(ctx, query, collectionID, scope.TenantID())
	if err != nil {
		return storeErr("delete collection", err)
	}

	if result.RowsAffected() == 0 {
		return clerr.NotFoundf("collection %s", collectionID)
	}

	return nil
}

// AddContent appends a content item to a collection the tenant owns,
// assigning the next position. The ownership predicate lives in the insert
// itself so a non-owner write can never land. Re-adding is a no-op.
func (r *CollectionRepository) AddContent(ctx context.Context, scope tenant.Scope, collectionID, contentID uuid.UUID) (bool, error) {
	if !scope.Valid() {
		return false, clerr.Invalidf("unbound tenant scope")
	}

	query := `
		WITH owned AS (
			SELECT collection_id FROM collection
			WHERE collection_id = $1 AND owner_id = $2
		)
		INSERT INTO collection_content (collection_id, content_id, position, added_by)
		SELECT owned.collection_id, $3,
		       COALESCE((SELECT MAX(position) + 1 FROM collection_content WHERE collection_id = $1), 0),
		       $2
		FROM owned
		ON CONFLICT (collection_id, content_id) DO NOTHING
		RETURNING position
	`

	var position int
	err := r.db.QueryRow(ctx, query, collectionID, scope.TenantID(), contentID).Scan(&position)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either not owned or already a member; tell them apart without
		// exposing existence of someone else's collection.
		owned, ownErr := r.ownedBy(ctx, collectionID, scope.TenantID())
		if ownErr != nil {
			return false, ownErr
		}
		if !owned {
			return false, clerr.NotFoundf("collection %s", collectionID)
		}
		return false, nil
	}
	if err != nil {
		return false, storeErr("add content to collection", err)
	}

	return true, nil
}

// RemoveContent removes a membership row from a collection the tenant owns.
func (r *CollectionRepository) RemoveContent(ctx context.Context, scope tenant.Scope, collectionID, contentID uuid.UUID) error {
	if !scope.Valid() {
		return clerr.Invalidf("unbound tenant scope")
	}

	query := `
		DELETE FROM collection_content cc
		USING collection c
		WHERE cc.collection_id = c.collection_id
		  AND cc.collection_id = $1 AND cc.content_id = $3
		  AND c.owner_id = $2
	`

	result, err := r.db.Exec(ctx, query, collectionID, scope.TenantID(), contentID)
	if err != nil {
		return storeErr("remove content from collection", err)
	}

	if result.RowsAffected() == 0 {
		return clerr.NotFoundf("collection %s content %s", collectionID, contentID)
	}

	return nil
}

// ListContent lists a collection's membership in curated order. Readable by
// the owner, or by anyone when the collection is public.
func (r *CollectionRepository) ListContent(ctx context.Context, scope tenant.Scope, collectionID uuid.UUID, limit, offset int) ([]*models.Content, int64, error) {
	if !scope.Valid() {
		return nil, 0, clerr.Invalidf("unbound tenant scope")
	}

	query := `
		SELECT c.content_id, c.source_url, c.media_kind, c.title, c.description,
		       c.summary, c.status, c.created_at, c.updated_at
		FROM collection_content cc
		JOIN collection col ON col.collection_id = cc.collection_id
		JOIN content c ON c.content_id = cc.content_id
		WHERE cc.collection_id = $1 AND (col.owner_id = $2 OR col.is_public)
		ORDER BY cc.position ASC, cc.added_at ASC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Query(ctx, query, collectionID, scope.TenantID(), limit, offset)
	if err != nil {
		return nil, 0, storeErr("list collection content", err)
	}
	defer rows.Close()

	var items []*models.Content
	for rows.Next() {
		item := &models.Content{}
		err := rows.Scan(
			&item.ContentID,
			&item.SourceURL,
			&item.MediaKind,
			&item.Title,
			&item.Description,
			&item.Summary,
			&item.Status,
			&item.CreatedAt,
			&item.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan collection content: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating collection content: %w", err)
	}

	var total int64
	countQuery := `
		SELECT COUNT(*)
		FROM collection_content cc
		JOIN collection col ON col.collection_id = cc.collection_id
		WHERE cc.collection_id = $1 AND (col.owner_id = $2 OR col.is_public)
	`
	if err := r.db.QueryRow(ctx, countQuery, collectionID, scope.TenantID()).Scan(&total); err != nil {
		return nil, 0, storeErr("count collection content", err)
	}

	return items, total, nil
}

func (r *CollectionRepository) ownedBy(ctx context.Context, collectionID uuid.UUID, tenantID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM collection WHERE collection_id = $1 AND owner_id = $2)`

	var owned bool
	if err := r.db.QueryRow(ctx, query, collectionID, tenantID).Scan(&owned); err != nil {
		return false, storeErr("check collection ownership", err)
	}

	return owned, nil
}
