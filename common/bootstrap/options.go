package bootstrap

import (
	"github.com/clipvault/clipvault/common/config"
	"github.com/clipvault/clipvault/common/db"
	"github.com/clipvault/clipvault/common/logger"
)

// Option configures the bootstrap process
type Option func(*options)

type options struct {
	skipDB         bool
	skipMigrate    bool
	skipRedis      bool
	skipDispatcher bool
	customLogger   *logger.Logger
	customConfig   *config.Config
	dbInitHook     func(*db.DB) error
}

// WithoutDB skips database initialization
func WithoutDB() Option {
	return func(o *options) {
		o.skipDB = true
	}
}

// WithoutMigrate skips schema application on startup
func WithoutMigrate() Option {
	return func(o *options) {
		o.skipMigrate = true
	}
}

// WithoutRedis skips Redis initialization
func WithoutRedis() Option {
	return func(o *options) {
		o.skipRedis = true
		o.skipDispatcher = true
	}
}

// WithoutDispatcher skips event dispatcher initialization
func WithoutDispatcher() Option {
	return func(o *options) {
		o.skipDispatcher = true
	}
}

// WithCustomLogger uses a custom logger instead of creating one
func WithCustomLogger(log *logger.Logger) Option {
	return func(o *options) {
		o.customLogger = log
	}
}

// WithCustomConfig uses a custom config instead of loading from env
func WithCustomConfig(cfg *config.Config) Option {
	return func(o *options) {
		o.customConfig = cfg
	}
}

// WithDBInitHook runs a custom function after DB initialization.
// Useful for seeding data in development.
func WithDBInitHook(hook func(*db.DB) error) Option {
	return func(o *options) {
		o.dbInitHook = hook
	}
}

func defaultOptions() *options {
	return &options{}
}
