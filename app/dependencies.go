package app

import (
	"context"
	"fmt"
	"time"

	"github.com/upb/cascade-control-plane/config"
	"github.com/upb/cascade-control-plane/repositories"
	"github.com/upb/cascade-control-plane/repositories/postgres"
	"github.com/upb/cascade-control-plane/services"
	"github.com/upb/cascade-control-plane/services/assess"
	"github.com/upb/cascade-control-plane/services/catalog"
	"github.com/upb/cascade-control-plane/services/dispatch"
	"github.com/upb/cascade-control-plane/services/envelope"
	"github.com/upb/cascade-control-plane/services/ranking"
	"github.com/upb/cascade-control-plane/services/transport"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Catalog
	CatalogRegistry *catalog.Registry
	CatalogRepo     repositories.CatalogRepository

	// Dispatch pipeline
	Normalizer *envelope.Normalizer
	Assessor   *assess.Assessor
	Ranking    *ranking.Service
	Dispatcher *dispatch.Service

	refreshStop chan struct{}
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := deps.initCatalog(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize catalog: %w", err)
	}

	if err := deps.initDispatch(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize dispatcher: %w", err)
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the PostgreSQL catalog source. Without one the
// catalog starts empty and the process still serves; dispatches exhaust
// immediately until entries arrive.
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	if cfg.Database == nil {
		d.Logger.Warn("no database configured, catalog starts empty")
		return nil
	}

	db, err := postgres.NewDB(*cfg.Database, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	d.DB = db

	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if err := db.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	d.CatalogRepo = postgres.NewCatalogRepository(db, d.Logger)

	d.Logger.Info("database connection established",
		zap.String("connection", cfg.Database.LogString()))

	return nil
}

// initCatalog seeds the in-memory registry from the configured source and,
// when a refresh interval is set, keeps reloading it in the background
func (d *Dependencies) initCatalog(ctx context.Context, cfg *config.Config) error {
	d.CatalogRegistry = catalog.NewRegistry()

	if d.CatalogRepo == nil {
		return nil
	}

	entries, err := d.CatalogRepo.ListEntries(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", services.ErrCatalogUnavailable, err)
	}
	if err := d.CatalogRegistry.ReplaceAll(entries); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}

	d.Logger.Info("catalog seeded", zap.Int("entries", len(entries)))

	if cfg.Catalog.RefreshInterval > 0 {
		d.refreshStop = make(chan struct{})
		go d.refreshCatalog(cfg.Catalog.RefreshInterval)
	}

	return nil
}

// refreshCatalog periodically reloads the registry from the catalog source.
// A failed reload keeps the previous snapshot; in-flight dispatches are
// unaffected either way because each one froze its own snapshot.
func (d *Dependencies) refreshCatalog(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.refreshStop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			entries, err := d.CatalogRepo.ListEntries(ctx)
			cancel()
			if err != nil {
				d.Logger.Warn("catalog refresh failed, keeping previous entries", zap.Error(err))
				continue
			}
			if err := d.CatalogRegistry.ReplaceAll(entries); err != nil {
				d.Logger.Warn("catalog refresh rejected", zap.Error(err))
				continue
			}
			d.Logger.Debug("catalog refreshed", zap.Int("entries", len(entries)))
		}
	}
}

// initDispatch wires the ranking, transport, and assessment pipeline into
// the dispatcher
func (d *Dependencies) initDispatch(cfg *config.Config) error {
	var provider ranking.Provider
	if cfg.Ranking.ProviderURL != "" {
		provider = ranking.NewHTTPProvider(cfg.Ranking.ProviderURL, cfg.Ranking.ProviderTimeout)
		d.Logger.Info("ranking provider configured",
			zap.String("endpoint", cfg.Ranking.ProviderURL))
	} else {
		d.Logger.Info("no ranking provider configured, using keyword-overlap ranking")
	}

	d.Ranking = ranking.NewService(provider, ranking.Config{
		ProviderTimeout: cfg.Ranking.ProviderTimeout,
	}, d.Logger)

	d.Normalizer = envelope.NewNormalizer()
	d.Assessor = assess.NewAssessor(cfg.Dispatch.MinQualityScore)

	mux := transport.NewMux(
		transport.NewHTTPInvoker(d.Logger),
		transport.NewJSONRPCInvoker(d.Logger),
	)

	dispatcher, err := dispatch.NewService(dispatch.Config{
		MaxFallbackAttempts: cfg.Dispatch.MaxFallbackAttempts,
		MinQualityScore:     cfg.Dispatch.MinQualityScore,
		StopOnFirstSuccess:  cfg.Dispatch.StopOnFirstSuccess,
		AttemptTimeout:      cfg.Dispatch.AttemptTimeout,
	}, d.Ranking, mux, d.Normalizer, d.Assessor, d.Logger)
	if err != nil {
		return err
	}
	d.Dispatcher = dispatcher

	return nil
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.refreshStop != nil {
		close(d.refreshStop)
	}

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
