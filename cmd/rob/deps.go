package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ersonp/rob-core/internal/domain/ports"
	"github.com/ersonp/rob-core/internal/infrastructure/config"
	"github.com/ersonp/rob-core/internal/infrastructure/store/local"
	"github.com/ersonp/rob-core/internal/infrastructure/store/s3"
	"github.com/ersonp/rob-core/internal/infrastructure/store/sqlite"
	"github.com/ersonp/rob-core/internal/logging"
)

// Deps holds high-level dependencies for commands.
type Deps struct {
	Config *config.Config
	Logger *slog.Logger
	Store  ports.Store
	Source ports.BatchSource
}

// withDeps loads config, builds the configured backend and calls the
// provided function. It handles cleanup automatically.
func withDeps(ctx context.Context, fn func(*Deps) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New(cfg.Logging.Level)

	store, source, err := buildBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(&Deps{
		Config: cfg,
		Logger: logger,
		Store:  store,
		Source: source,
	})
}

// buildBackend wires the Store and the BatchSource for the configured
// backend. The SQLite backend keeps the tables in the database but
// still picks up raw batches and changelog markers from the data
// directory.
func buildBackend(ctx context.Context, cfg *config.Config) (ports.Store, ports.BatchSource, error) {
	switch cfg.Backend {
	case config.BackendLocal:
		return local.NewStore(cfg.Data.Dir), local.NewSource(cfg.Data.Dir), nil

	case config.BackendS3:
		store, err := s3.NewStore(ctx, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.Prefix)
		if err != nil {
			return nil, nil, fmt.Errorf("creating s3 store: %w", err)
		}
		return store, store, nil

	case config.BackendSQLite:
		store, err := sqlite.NewStore(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("creating sqlite store: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("ensuring sqlite schema: %w", err)
		}
		return store, local.NewSource(cfg.Data.Dir), nil

	default:
		return nil, nil, fmt.Errorf("unknown backend: %s", cfg.Backend)
	}
}
