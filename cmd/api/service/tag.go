package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/clipvault/clipvault/common/cache"
	"github.com/clipvault/clipvault/common/logger"
	"github.com/clipvault/clipvault/common/models"
	"github.com/clipvault/clipvault/common/repository"
)

// tagListTTL bounds staleness of the cached catalog page. The usage counter
// is already an eventually-consistent aggregate, so a short lag is harmless.
const tagListTTL = 30 * time.Second

// TagService serves the shared tag catalog. The catalog is global and
// read-heavy, so list pages are cached per replica.
type TagService struct {
	repo  *repository.TagRepository
	cache cache.Cache
	log   *logger.Logger
}

// NewTagService creates a new tag service
func NewTagService(repo *repository.TagRepository, c cache.Cache, log *logger.Logger) *TagService {
	return &TagService{
		repo:  repo,
		cache: c,
		log:   log,
	}
}

// List returns catalog tags by usage, served from cache when fresh.
func (s *TagService) List(ctx context.Context, limit int) ([]*models.Tag, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}

	key := fmt.Sprintf("tags:top:%d", limit)
	if raw, hit, err := s.cache.Get(ctx, key); err == nil && hit {
		var tags []*models.Tag
		if err := json.Unmarshal(raw, &tags); err == nil {
			return tags, nil
		}
		// Undecodable entry; fall through to the store and overwrite it.
	}

	tags, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []*models.Tag{}
	}

	if raw, err := json.Marshal(tags); err == nil {
		if err := s.cache.Set(ctx, key, raw, tagListTTL); err != nil {
			s.log.Warn("failed to cache tag list", "error", err)
		}
	}

	return tags, nil
}

// GetByName returns one catalog tag by exact name.
func (s *TagService) GetByName(ctx context.Context, name string) (*models.Tag, error) {
	return s.repo.GetByName(ctx, name)
}
