// Package app assembles the feed gateway: credential store, response
// cache, upstream client, fetch pipeline and HTTP surface.
package app

import (
	"context"
	"strconv"

	"feed-gateway/internal/auth"
	"feed-gateway/internal/cache"
	"feed-gateway/internal/common/logging"
	"feed-gateway/internal/config"
	"feed-gateway/internal/feed"
	"feed-gateway/internal/handlers"
	"feed-gateway/internal/storage"
	"feed-gateway/internal/upstream"

	// Register storage backends.
	_ "feed-gateway/internal/storage/postgres"
	_ "feed-gateway/internal/storage/sqlite"
)

// App holds all the application dependencies
type App struct {
	Config   *config.Config
	Storage  storage.Storage
	Cache    *cache.Store
	Upstream upstream.Client
	Pipeline *feed.Pipeline
	Gate     *auth.Gate
	Handlers *handlers.Handlers
	Logger   logging.Logger
}

// New creates a new application instance with all dependencies
// initialized in order: storage, cache, upstream, pipeline, auth,
// handlers.
func New(cfg *config.Config) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logging.GetGlobalLogger().WithFields(logging.Field{Key: "component", Value: "app"}),
	}

	if err := app.initializeStorage(); err != nil {
		return nil, err
	}

	if err := app.initializeCache(); err != nil {
		return nil, err
	}

	app.initializeUpstream()
	app.initializePipeline()

	app.Gate = auth.NewGate(app.Storage, app.Logger)
	app.Handlers = handlers.New(app.Storage, app.Pipeline, app.Cache, cfg, app.Logger)

	return app, nil
}

func (app *App) initializeStorage() error {
	store, err := storage.NewStorage(app.Config)
	if err != nil {
		return err
	}
	app.Storage = store

	app.Logger.Info("Storage: Connected",
		logging.Field{Key: "type", Value: app.Config.DatabaseType},
		logging.Field{Key: "encrypted", Value: app.Config.CookieEncryptionKey != ""},
	)
	return nil
}

func (app *App) initializeCache() error {
	redisDB, _ := strconv.Atoi(app.Config.RedisDB)
	redisPoolSize, _ := strconv.Atoi(app.Config.RedisPoolSize)

	store, err := cache.New(cache.Config{
		Address:  app.Config.RedisAddress,
		Password: app.Config.RedisPassword,
		DB:       redisDB,
		PoolSize: redisPoolSize,
		TTL:      app.Config.CacheTTLDuration(),
	})
	if err != nil {
		return err
	}
	app.Cache = store

	app.Logger.Info("Cache: Connected",
		logging.Field{Key: "address", Value: app.Config.RedisAddress},
		logging.Field{Key: "ttl", Value: app.Config.CacheTTL},
	)
	return nil
}

func (app *App) initializeUpstream() {
	app.Upstream = upstream.NewInnertubeClient(upstream.Config{
		BaseURL: app.Config.UpstreamBaseURL,
		Timeout: app.Config.UpstreamTimeoutDuration(),
	}, app.Logger)

	app.Logger.Info("Upstream: Configured",
		logging.Field{Key: "base_url", Value: app.Config.UpstreamBaseURL},
		logging.Field{Key: "timeout", Value: app.Config.UpstreamTimeout},
	)
}

func (app *App) initializePipeline() {
	app.Pipeline = feed.NewPipeline(app.Storage, app.Cache, app.Upstream, app.Logger)
}

// Cleanup releases all resources
func (app *App) Cleanup() {
	if app.Cache != nil {
		if err := app.Cache.Close(); err != nil {
			app.Logger.Warn("Failed to close cache", logging.Err(err))
		}
	}
	if app.Storage != nil {
		if err := app.Storage.Close(); err != nil {
			app.Logger.Warn("Failed to close storage", logging.Err(err))
		}
	}
}

// Shutdown performs a graceful shutdown of application components.
func (app *App) Shutdown(ctx context.Context) error {
	return nil
}
