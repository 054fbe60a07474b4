package service

import (
	"context"

	"github.com/clipvault/clipvault/common/config"
	"github.com/clipvault/clipvault/common/logger"
	"github.com/clipvault/clipvault/common/repository"
	"github.com/clipvault/clipvault/common/tenant"
)

// SearchPage is the paginated search response shape.
type SearchPage struct {
	Results  []*repository.SearchResult `json:"results"`
	Total    int64                      `json:"total"`
	Page     int                        `json:"page"`
	PageSize int                        `json:"page_size"`
}

// SearchService is the scoped read path over the store.
type SearchService struct {
	repo *repository.SearchRepository
	cfg  config.SearchConfig
	log  *logger.Logger
}

// NewSearchService creates a new search service
func NewSearchService(repo *repository.SearchRepository, cfg config.SearchConfig, log *logger.Logger) *SearchService {
	return &SearchService{
		repo: repo,
		cfg:  cfg,
		log:  log,
	}
}

// Search runs a full-text and tag-filtered query over the tenant's saved
// content. Page sizes are clamped to the configured bounds.
func (s *SearchService) Search(ctx context.Context, scope tenant.Scope, query string, tags []string, page, pageSize int) (*SearchPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = s.cfg.PageSize
	}
	if pageSize > s.cfg.MaxPageSize {
		pageSize = s.cfg.MaxPageSize
	}

	results, total, err := s.repo.Search(ctx, scope, repository.SearchParams{
		Query:  query,
		Tags:   tags,
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	})
	if err != nil {
		return nil, err
	}

	if results == nil {
		results = []*repository.SearchResult{}
	}

	return &SearchPage{
		Results:  results,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}
