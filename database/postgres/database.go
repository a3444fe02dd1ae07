package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/mediagate"
)

type database struct {
	pool   *pgxpool.Pool
	tables mediagate.Tables
}

// Connect creates a PostgreSQL connection pool. Connections are established
// lazily; call Ping to verify reachability.
// Tables should be validated before calling Connect.
func Connect(ctx context.Context, dsn string, tables mediagate.Tables) (*database, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	return &database{
		pool:   pool,
		tables: tables,
	}, nil
}

func (d *database) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

// Migrate creates any missing tables and indexes.
func (d *database) Migrate(ctx context.Context) error {
	return Migrate(ctx, d.pool, d.tables)
}

// Validate checks that every table matches the expected column layout.
func (d *database) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.pool, d.tables)
}

func (d *database) GetRepo() mediagate.MetaDataRepo {
	return &repo{pool: d.pool, tableName: pgx.Identifier{d.tables.MetaData}.Sanitize()}
}

func (d *database) GetRecords() mediagate.RecordRepo {
	return &recordRepo{
		pool:  d.pool,
		users: pgx.Identifier{d.tables.Users}.Sanitize(),
		todos: pgx.Identifier{d.tables.Todos}.Sanitize(),
	}
}

func (d *database) Close() error {
	d.pool.Close()
	return nil
}
