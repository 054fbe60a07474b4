package service

import (
	"context"
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/google/uuid"

	"github.com/clipvault/clipvault/common/clerr"
	"github.com/clipvault/clipvault/common/logger"
	"github.com/clipvault/clipvault/common/models"
	"github.com/clipvault/clipvault/common/repository"
	"github.com/clipvault/clipvault/common/rules"
	"github.com/clipvault/clipvault/common/tenant"
)

// CreateCollectionRequest is the inbound collection payload.
type CreateCollectionRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=120"`
	Description string `json:"description" validate:"max=2000"`
	IsSmart     bool   `json:"is_smart"`
	Rule        string `json:"rule"`
	IsPublic    bool   `json:"is_public"`
	ColorHex    string `json:"color_hex" validate:"omitempty,hexcolor"`
}

// CollectionService manages tenant collections, curated membership, and
// smart-collection rule resolution.
type CollectionService struct {
	repo    *repository.CollectionRepository
	content *repository.ContentRepository
	rules   *rules.Evaluator
	log     *logger.Logger
}

// NewCollectionService creates a new collection service
func NewCollectionService(repo *repository.CollectionRepository, content *repository.ContentRepository, evaluator *rules.Evaluator, log *logger.Logger) *CollectionService {
	return &CollectionService{
		repo:    repo,
		content: content,
		rules:   evaluator,
		log:     log,
	}
}

// Create validates and inserts a new collection. Smart collections must
// carry a compilable rule; curated ones must not carry a rule at all.
func (s *CollectionService) Create(ctx context.Context, scope tenant.Scope, req CreateCollectionRequest) (*models.Collection, error) {
	if req.IsSmart {
		if err := s.rules.Validate(req.Rule); err != nil {
			return nil, err
		}
	} else if req.Rule != "" {
		return nil, clerr.Invalidf("rule is only valid on smart collections")
	}

	coll := &models.Collection{
		Name:        req.Name,
		Description: req.Description,
		IsSmart:     req.IsSmart,
		Rule:        req.Rule,
		IsPublic:    req.IsPublic,
		ColorHex:    req.ColorHex,
	}

	if err := s.repo.Create(ctx, scope, coll); err != nil {
		return nil, err
	}

	s.log.Info("collection created",
		"collection_id", coll.CollectionID,
		"tenant", scope.TenantID(),
		"smart", coll.IsSmart,
	)

	return coll, nil
}

// List returns the tenant's collections with membership counts.
func (s *CollectionService) List(ctx context.Context, scope tenant.Scope, limit, offset int) ([]*models.Collection, int64, error) {
	return s.repo.ListForTenant(ctx, scope, limit, offset)
}

// Get returns a collection the tenant owns or any public collection.
func (s *CollectionService) Get(ctx context.Context, scope tenant.Scope, collectionID uuid.UUID) (*models.Collection, error) {
	return s.repo.GetByID(ctx, scope, collectionID)
}

// Update applies an RFC 7386 merge patch to the collection's mutable
// fields. Absent fields are untouched; explicit nulls reset to zero values.
func (s *CollectionService) Update(ctx context.Context, scope tenant.Scope, collectionID uuid.UUID, patch []byte) (*models.Collection, error) {
	coll, err := s.repo.GetByID(ctx, scope, collectionID)
	if err != nil {
		return nil, err
	}

	// GetByID also returns public collections; updates stay owner-only.
	if coll.OwnerID != scope.TenantID() {
		return nil, clerr.NotFoundf("collection %s", collectionID)
	}

	current, err := json.Marshal(models.CollectionPatch{
		Name:        &coll.Name,
		Description: &coll.Description,
		Rule:        &coll.Rule,
		IsPublic:    &coll.IsPublic,
		ColorHex:    &coll.ColorHex,
	})
	if err != nil {
		return nil, fmt.Errorf("encode collection document: %w", err)
	}

	merged, err := jsonpatch.MergePatch(current, patch)
	if err != nil {
		return nil, clerr.Invalidf("invalid merge patch: %v", err)
	}

	var doc models.CollectionPatch
	if err := json.Unmarshal(merged, &doc); err != nil {
		return nil, clerr.Invalidf("invalid merge patch result: %v", err)
	}

	applyPatch(coll, doc)

	if coll.Name == "" {
		return nil, clerr.Invalidf("collection name cannot be empty")
	}
	if coll.IsSmart {
		if err := s.rules.Validate(coll.Rule); err != nil {
			return nil, err
		}
	} else if coll.Rule != "" {
		return nil, clerr.Invalidf("rule is only valid on smart collections")
	}

	if err := s.repo.Update(ctx, scope, coll); err != nil {
		return nil, err
	}

	return coll, nil
}

// Delete removes a collection the tenant owns.
func (s *CollectionService) Delete(ctx context.Context, scope tenant.Scope, collectionID uuid.UUID) error {
	return s.repo.Delete(ctx, scope, collectionID)
}

// AddContent appends a content item to a curated collection.
func (s *CollectionService) AddContent(ctx context.Context, scope tenant.Scope, collectionID, contentID uuid.UUID) (bool, error) {
	coll, err := s.repo.GetByID(ctx, scope, collectionID)
	if err != nil {
		return false, err
	}
	if coll.IsSmart {
		return false, clerr.Invalidf("smart collections derive membership from their rule")
	}

	return s.repo.AddContent(ctx, scope, collectionID, contentID)
}

// RemoveContent removes a membership row from a curated collection.
func (s *CollectionService) RemoveContent(ctx context.Context, scope tenant.Scope, collectionID, contentID uuid.UUID) error {
	return s.repo.RemoveContent(ctx, scope, collectionID, contentID)
}

// ListContent lists a collection's membership. Curated collections read the
// membership table in position order; smart collections evaluate their rule
// over the tenant's saved content at read time.
func (s *CollectionService) ListContent(ctx context.Context, scope tenant.Scope, collectionID uuid.UUID, limit, offset int) ([]*models.Content, int64, error) {
	coll, err := s.repo.GetByID(ctx, scope, collectionID)
	if err != nil {
		return nil, 0, err
	}

	if !coll.IsSmart {
		return s.repo.ListContent(ctx, scope, collectionID, limit, offset)
	}

	return s.resolveSmart(ctx, scope, coll, limit, offset)
}

// resolveSmart filters the tenant's saved content through the collection
// rule. A public smart collection is resolved against the viewer's own
// library, not the owner's: membership never leaks another tenant's saves.
func (s *CollectionService) resolveSmart(ctx context.Context, scope tenant.Scope, coll *models.Collection, limit, offset int) ([]*models.Content, int64, error) {
	const scanBatch = 200

	var matched []*models.Content
	var total int64

	for scanOffset := 0; ; scanOffset += scanBatch {
		views, err := s.content.ListSavedForTenant(ctx, scope, scanBatch, scanOffset)
		if err != nil {
			return nil, 0, err
		}
		if len(views) == 0 {
			break
		}

		for _, view := range views {
			ok, err := s.rules.Matches(coll.Rule, view)
			if err != nil {
				return nil, 0, err
			}
			if !ok {
				continue
			}
			total++
			if total > int64(offset) && len(matched) < limit {
				item := view.Content
				matched = append(matched, &item)
			}
		}

		if len(views) < scanBatch {
			break
		}
	}

	return matched, total, nil
}

func applyPatch(coll *models.Collection, doc models.CollectionPatch) {
	coll.Name = derefString(doc.Name)
	coll.Description = derefString(doc.Description)
	coll.Rule = derefString(doc.Rule)
	coll.ColorHex = derefString(doc.ColorHex)
	coll.IsPublic = doc.IsPublic != nil && *doc.IsPublic
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
