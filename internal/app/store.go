package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/studyvault-backend/internal/adapter/filestore"
	"github.com/heartmarshall/studyvault-backend/internal/adapter/postgres"
	"github.com/heartmarshall/studyvault-backend/internal/config"
	"github.com/heartmarshall/studyvault-backend/internal/storage"
)

// OpenStore connects the configured backend and wraps it in a Store.
// The returned close function releases the backend.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger, obs storage.Observer) (*storage.Store, func(), error) {
	var (
		backend storage.Backend
		closeFn = func() {}
	)

	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		if err := postgres.Migrate(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate database: %w", err)
		}
		backend = postgres.NewDocuments(pool)
		closeFn = pool.Close
	default:
		fs, err := filestore.New(cfg.Storage.ContentDir)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using file store", slog.String("root", fs.Root()))
		backend = fs
	}

	opts := storage.Options{
		OpTimeout: cfg.Storage.OpTimeout,
		Retries:   cfg.Storage.LockRetries,
	}
	if obs != nil {
		opts.Observer = obs
	}

	return storage.New(logger, backend, opts), closeFn, nil
}
