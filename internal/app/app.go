// Package app wires configuration into the running components.
package app

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/dshills/apertium-stats-mcp/internal/classifier"
	"github.com/dshills/apertium-stats-mcp/internal/command"
	"github.com/dshills/apertium-stats-mcp/internal/config"
	"github.com/dshills/apertium-stats-mcp/internal/coordinator"
	"github.com/dshills/apertium-stats-mcp/internal/fetcher"
	"github.com/dshills/apertium-stats-mcp/internal/listing"
	"github.com/dshills/apertium-stats-mcp/internal/notify/redis"
	"github.com/dshills/apertium-stats-mcp/internal/parser"
	"github.com/dshills/apertium-stats-mcp/internal/service"
	"github.com/dshills/apertium-stats-mcp/internal/storage"
)

// App holds the wired components
type App struct {
	Classifier  *classifier.Classifier
	Lister      *listing.Client
	Store       *storage.SQLiteStorage
	Coordinator *coordinator.Coordinator
	Service     *service.Service
	Notifier    *redis.Notifier // nil unless redis.url is configured

	logger *zap.Logger
}

// New builds every component from cfg. Close releases the store and notifier.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	runner := &command.ExecRunner{}
	cls := classifier.Default()

	lister := listing.New(listing.Config{
		OrganizationRoot: cfg.Listing.OrganizationRoot,
		SVN:              cfg.Listing.SVN,
		Runner:           runner,
		Logger:           logger.Named("listing"),
		HashConcurrency:  cfg.Listing.HashConcurrency,
		HashCacheSize:    cfg.Listing.HashCacheSize,
	})

	fetch := fetcher.New(fetcher.Config{
		RawRoot: cfg.GitHub.RawRoot,
		Token:   cfg.GitHub.Token,
		Client:  &http.Client{Timeout: cfg.Fetch.Timeout.Duration},
		Retry: fetcher.RetryConfig{
			MaxAttempts: cfg.Fetch.MaxAttempts,
			BaseDelay:   cfg.Fetch.BaseDelay.Duration,
			MaxDelay:    cfg.Fetch.MaxDelay.Duration,
		},
		Logger: logger.Named("fetcher"),
	})

	p := parser.New(parser.Config{
		CGCompiler: cfg.Rlx.Compiler,
		Runner:     runner,
		Logger:     logger.Named("parser"),
	})

	store, err := storage.NewSQLiteStorage(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	a := &App{
		Classifier: cls,
		Lister:     lister,
		Store:      store,
		logger:     logger,
	}

	coordCfg := coordinator.Config{
		Lister:     lister,
		Classifier: cls,
		Fetcher:    fetch,
		Parser:     p,
		Sink:       store,
		Workers:    cfg.Workers,
		Logger:     logger.Named("coordinator"),
	}

	if cfg.Redis.Enabled() {
		retries := config.DefaultRedisRetries
		if cfg.Redis.Retries != nil {
			retries = *cfg.Redis.Retries
		}
		n, err := redis.New(redis.Config{
			URL:     cfg.Redis.URL,
			Channel: cfg.Redis.Channel,
			Timeout: cfg.Redis.Timeout.Duration,
			Retries: retries,
		})
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to initialize notifier: %w", err)
		}
		a.Notifier = n
		coordCfg.Notifier = n
	}

	a.Coordinator = coordinator.New(coordCfg)
	a.Service = service.New(a.Coordinator, store, logger.Named("service"))

	logger.Info("components initialized",
		zap.String("database", cfg.Database),
		zap.String("build_mode", storage.BuildMode),
		zap.String("driver", storage.DriverName),
		zap.Bool("cg_compiler", cfg.Rlx.Compiler != ""),
		zap.Bool("notifier", a.Notifier != nil))

	return a, nil
}

// Close releases the notifier and the store
func (a *App) Close() error {
	var errs []error
	if a.Notifier != nil {
		if err := a.Notifier.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close notifier: %w", err))
		}
	}
	if err := a.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}
	return errors.Join(errs...)
}
