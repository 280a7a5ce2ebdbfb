package main

import (
	"context"
	"fmt"

	"doclib/internal/cache"
	"doclib/internal/config"
	"doclib/internal/database"
	"doclib/internal/database/migration"
	"doclib/internal/logging"
	"doclib/internal/repository"
	"doclib/internal/repository/cached"
	"doclib/internal/repository/jsonfile"
	"doclib/internal/repository/postgres"
	"doclib/internal/storage"
)

// newStorage selects the blob backend named by STORAGE_BACKEND.
func newStorage(cfg *config.AppConfig) (storage.Storage, error) {
	switch cfg.Documents.StorageBackend {
	case "", "local":
		return storage.NewLocal(cfg.Documents.Dir)
	case "minio":
		return storage.NewMinIO(cfg.MinIO)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Documents.StorageBackend)
	}
}

// newRepository selects the metadata backend named by METADATA_BACKEND and
// wraps it in the Redis list cache when REDIS_ADDR is set. The returned func
// releases whatever connections were opened.
func newRepository(ctx context.Context, cfg *config.AppConfig, blobs storage.Storage) (repository.DocumentRepository, func(), error) {
	var (
		repo    repository.DocumentRepository
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch cfg.Documents.MetadataBackend {
	case "", "json":
		store, err := jsonfile.NewDocumentJSONFile(cfg.Documents.MetadataPath(), blobs)
		if err != nil {
			return nil, nil, err
		}
		repo = store
	case "postgres":
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		closers = append(closers, func() { _ = db.Close() })
		if err := migration.EnsureMigrated(ctx, db, cfg.Database.Host); err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		repo = postgres.NewDocumentPostgres(db, blobs)
	default:
		return nil, nil, fmt.Errorf("unknown metadata backend %q", cfg.Documents.MetadataBackend)
	}

	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			l := logging.Component("api")
			l.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("document list cache disabled")
		} else {
			closers = append(closers, func() { _ = rc.Close() })
			repo = cached.NewDocumentCached(repo, rc)
		}
	}

	return repo, closeAll, nil
}
