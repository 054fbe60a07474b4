package container

import (
	"github.com/labstack/echo/v4"

	apimw "github.com/clipvault/clipvault/cmd/api/middleware"
	"github.com/clipvault/clipvault/cmd/api/service"
	"github.com/clipvault/clipvault/common/bootstrap"
	"github.com/clipvault/clipvault/common/cache"
	custommw "github.com/clipvault/clipvault/common/middleware"
	"github.com/clipvault/clipvault/common/ratelimit"
	"github.com/clipvault/clipvault/common/repository"
	"github.com/clipvault/clipvault/common/rules"
)

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	// Components
	Components *bootstrap.Components

	// Repositories
	ContentRepo    *repository.ContentRepository
	TagRepo        *repository.TagRepository
	CollectionRepo *repository.CollectionRepository
	JobRepo        *repository.JobRepository
	SearchRepo     *repository.SearchRepository

	// Services
	Rules             *rules.Evaluator
	ClipService       *service.ClipService
	CollectionService *service.CollectionService
	SearchService     *service.SearchService
	JobService        *service.JobService
	TagService        *service.TagService

	// Rate limiter (nil when disabled)
	Limiter *ratelimit.RateLimiter

	// In-process cache for the tag catalog
	Cache cache.Cache
}

// Close releases container-owned resources
func (c *Container) Close() error {
	if c.Cache != nil {
		return c.Cache.Close()
	}
	return nil
}

// TenantMiddleware returns the middleware chain for tenant-facing routes:
// identity extraction first, then the per-tenant rate limit when enabled.
func (c *Container) TenantMiddleware() []echo.MiddlewareFunc {
	chain := []echo.MiddlewareFunc{apimw.ExtractTenant()}

	cfg := c.Components.Config.RateLimit
	if c.Limiter != nil && cfg.Enabled {
		chain = append(chain, custommw.TenantRateLimit(c.Limiter, cfg.TenantLimit, cfg.WindowSec))
	}

	return chain
}

// NewContainer initializes all services and repositories once
func NewContainer(components *bootstrap.Components) (*Container, error) {
	// Initialize repositories
	contentRepo := repository.NewContentRepository(components.DB)
	tagRepo := repository.NewTagRepository(components.DB)
	collectionRepo := repository.NewCollectionRepository(components.DB)
	jobRepo := repository.NewJobRepository(components.DB)
	searchRepo := repository.NewSearchRepository(components.DB)

	// Initialize services (bottom-up: dependencies first)
	evaluator := rules.NewEvaluator()

	clipService := service.NewClipService(
		contentRepo,
		jobRepo,
		components.Dispatcher,
		components.Config,
		components.Logger,
	)

	collectionService := service.NewCollectionService(
		collectionRepo,
		contentRepo,
		evaluator,
		components.Logger,
	)

	searchService := service.NewSearchService(
		searchRepo,
		components.Config.Search,
		components.Logger,
	)

	jobService := service.NewJobService(jobRepo, components.Logger)

	tagCache := cache.NewMemoryCache(components.Logger)
	tagService := service.NewTagService(tagRepo, tagCache, components.Logger)

	var limiter *ratelimit.RateLimiter
	if components.Config.RateLimit.Enabled && components.Redis != nil {
		limiter = ratelimit.NewRateLimiter(components.Redis.GetUnderlying(), components.Logger)
	}

	return &Container{
		Components:        components,
		ContentRepo:       contentRepo,
		TagRepo:           tagRepo,
		CollectionRepo:    collectionRepo,
		JobRepo:           jobRepo,
		SearchRepo:        searchRepo,
		Rules:             evaluator,
		ClipService:       clipService,
		CollectionService: collectionService,
		SearchService:     searchService,
		JobService:        jobService,
		TagService:        tagService,
		Limiter:           limiter,
		Cache:             tagCache,
	}, nil
}
