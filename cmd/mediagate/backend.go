package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sagarc03/mediagate"
	"github.com/sagarc03/mediagate/config"
	"github.com/sagarc03/mediagate/database"
	"github.com/sagarc03/mediagate/filesystem"
	"github.com/sagarc03/mediagate/s3"
)

// backend bundles the stores every command needs.
type backend struct {
	db      database.Database
	storage mediagate.BlobStorage
	service *mediagate.Service
	closers []func() error
}

// openBackend connects the metadata database and the blob store described by
// cfg. With migrate set, missing tables are created; otherwise the existing
// schema is validated.
func openBackend(ctx context.Context, cfg *config.Config, migrate bool) (*backend, error) {
	b := &backend{}

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	b.db = db
	b.closers = append(b.closers, db.Close)

	if err = db.Ping(ctx); err != nil {
		b.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if migrate {
		if err = db.Migrate(ctx); err != nil {
			b.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		slog.Info("database migration complete")
	}

	if err = db.Validate(ctx); err != nil {
		b.Close()
		return nil, fmt.Errorf("validate database schema: %w", err)
	}
	slog.Debug("connected to database", "type", cfg.Database.Type)

	storage, closeStorage, err := openStorage(cfg.Storage)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.storage = storage
	b.closers = append(b.closers, closeStorage)

	service, err := mediagate.NewService(db.GetRepo(), storage, cfg.Service.Options())
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("create service: %w", err)
	}
	b.service = service

	return b, nil
}

// openStorage opens the configured blob backend.
func openStorage(cfg config.StorageConfig) (mediagate.BlobStorage, func() error, error) {
	switch cfg.Type {
	case "filesystem":
		store, err := filesystem.Open(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open storage: %w", err)
		}
		slog.Debug("opened filesystem storage", "path", cfg.Path)
		return store, store.Close, nil
	case "s3":
		store, err := s3.New(cfg.S3)
		if err != nil {
			return nil, nil, fmt.Errorf("open storage: %w", err)
		}
		slog.Debug("opened s3 storage", "endpoint", cfg.S3.Endpoint, "bucket", cfg.S3.Bucket)
		return store, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("open storage: unsupported storage type: %q", cfg.Type)
	}
}

// Close releases everything openBackend acquired, in reverse order.
func (b *backend) Close() {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	if err := errors.Join(errs...); err != nil {
		slog.Warn("close backend", "err", err)
	}
}
