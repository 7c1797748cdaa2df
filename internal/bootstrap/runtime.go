// Package bootstrap assembles the orchestrator from configuration. The API,
// the worker and dramactl share it so they run the same wiring.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"aishortx/internal/adapter/repo"
	"aishortx/internal/assets"
	"aishortx/internal/generation"
	"aishortx/internal/infra"
	"aishortx/internal/infra/credentials"
	"aishortx/internal/providers/registry"
	"aishortx/internal/storage"
)

type Runtime struct {
	Config      *infra.Config
	Logger      infra.Logger
	Pool        *pgxpool.Pool
	Store       *repo.Store
	Credentials *credentials.Store
	Files       *storage.FileStore
	Registry    *registry.Registry
	Assets      *assets.Store
	Service     *generation.Service
}

// Open connects to the database and builds every component on top of it.
func Open(ctx context.Context, cfg *infra.Config, logger infra.Logger) (*Runtime, error) {
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	rt, err := build(cfg, logger, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return rt, nil
}

func build(cfg *infra.Config, logger infra.Logger, pool *pgxpool.Pool) (*Runtime, error) {
	runner := infra.NewSQLRunner(pool, logger.With().Str("component", "sql").Logger())
	store := repo.NewStore(runner)
	creds := credentials.NewStore(runner)

	files, err := storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
	if err != nil {
		return nil, fmt.Errorf("configure storage: %w", err)
	}

	reg, err := registry.NewFromConfig(cfg, creds, files, logger)
	if err != nil {
		return nil, fmt.Errorf("configure providers: %w", err)
	}

	repos := store.Repositories()
	svc := generation.NewService(store, repos.Tasks, reg, logger, generation.Options{
		PendingTimeout:    cfg.PendingTimeout,
		ProcessingTimeout: cfg.ProcessingTimeout,
		BatchSize:         cfg.SweepBatchSize,
	})

	return &Runtime{
		Config:      cfg,
		Logger:      logger,
		Pool:        pool,
		Store:       store,
		Credentials: creds,
		Files:       files,
		Registry:    reg,
		Assets:      assets.NewStore(repos.Assets),
		Service:     svc,
	}, nil
}

// Close releases the credential cache and the pool.
func (r *Runtime) Close() {
	r.Registry.Close()
	r.Pool.Close()
}
