// Package sqlite implements the metadata and record repositories on SQLite
// using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/mediagate"

	_ "modernc.org/sqlite" // SQLite driver
)

type database struct {
	db     *sql.DB
	tables mediagate.Tables
}

// Connect opens a SQLite database. Tables should be validated before calling Connect.
//
// The pool is limited to one connection: SQLite serializes writers anyway, and
// a ":memory:" database exists only inside the connection that created it.
func Connect(ctx context.Context, dsn string, tables mediagate.Tables) (*database, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("connect sqlite: %s: %w", pragma, err)
		}
	}

	return &database{
		db:     db,
		tables: tables,
	}, nil
}

func (d *database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Migrate creates any missing tables and indexes.
func (d *database) Migrate(ctx context.Context) error {
	return Migrate(ctx, d.db, d.tables)
}

// Validate checks that every table matches the expected column layout.
func (d *database) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.db, d.tables)
}

func (d *database) GetRepo() mediagate.MetaDataRepo {
	return &repo{db: d.db, tableName: quoteIdentifier(d.tables.MetaData)}
}

func (d *database) GetRecords() mediagate.RecordRepo {
	return &recordRepo{
		db:    d.db,
		users: quoteIdentifier(d.tables.Users),
		todos: quoteIdentifier(d.tables.Todos),
	}
}

func (d *database) Close() error {
	return d.db.Close()
}
