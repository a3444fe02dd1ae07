package database

import (
	"context"
	"fmt"

	"github.com/sagarc03/mediagate"
	"github.com/sagarc03/mediagate/database/postgres"
	"github.com/sagarc03/mediagate/database/sqlite"
)

// Config holds the configuration for connecting to a metadata backend.
type Config struct {
	// Type specifies the database type: "sqlite" or "postgres"
	Type string `mapstructure:"type" validate:"required,oneof=sqlite postgres"`
	// DSN is the data source name (connection string)
	DSN string `mapstructure:"dsn" validate:"required"`
	// Tables names the metadata, users and todos tables
	Tables mediagate.Tables `mapstructure:"tables"`
	// AutoMigrate creates missing tables when the server starts
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// Database is a connected backend. Connect does not touch the schema; callers
// run Migrate (or Validate, for schemas managed elsewhere) before GetRepo.
type Database interface {
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Validate(ctx context.Context) error
	GetRepo() mediagate.MetaDataRepo
	GetRecords() mediagate.RecordRepo
	Close() error
}

// Connect validates the table names and opens the configured backend.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	if err := cfg.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	switch cfg.Type {
	case "sqlite":
		return sqlite.Connect(ctx, cfg.DSN, cfg.Tables)
	case "postgres":
		return postgres.Connect(ctx, cfg.DSN, cfg.Tables)
	default:
		return nil, fmt.Errorf("connect: unsupported database type: %q", cfg.Type)
	}
}
