package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/mediagate"
	"github.com/sagarc03/mediagate/database/internal"
)

const timestamptz = "timestamp with time zone"

var metaDataSchema = internal.Schema{
	"id":              {Type: "uuid"},
	"object_key":      {Type: "text"},
	"content_type":    {Type: "text"},
	"etag":            {Type: "text"},
	"file_size_bytes": {Type: "bigint"},
	"created_at":      {Type: timestamptz},
	"updated_at":      {Type: timestamptz},
	"deleted_at":      {Type: timestamptz, Nullable: true},
	"cleaned_up_at":   {Type: timestamptz, Nullable: true},
}

var usersSchema = internal.Schema{
	"id":            {Type: "bigint"},
	"email":         {Type: "text"},
	"name":          {Type: "text"},
	"password_hash": {Type: "text"},
	"created_at":    {Type: timestamptz},
}

var todosSchema = internal.Schema{
	"id":         {Type: "bigint"},
	"title":      {Type: "text"},
	"completed":  {Type: "boolean"},
	"user_id":    {Type: "bigint"},
	"created_at": {Type: timestamptz},
}

// ValidateSchema checks that every table exists in the public schema with the
// expected columns. Extra columns are allowed.
func ValidateSchema(ctx context.Context, pool *pgxpool.Pool, tables mediagate.Tables) error {
	checks := []struct {
		table string
		want  internal.Schema
	}{
		{tables.MetaData, metaDataSchema},
		{tables.Users, usersSchema},
		{tables.Todos, todosSchema},
	}

	for _, c := range checks {
		got, err := tableColumns(ctx, pool, c.table)
		if err == nil {
			err = internal.DiffSchema(c.table, c.want, got)
		}
		if err != nil {
			return fmt.Errorf("validate schema %s: %w", c.table, err)
		}
	}
	return nil
}

func tableColumns(ctx context.Context, pool *pgxpool.Pool, table string) (internal.Schema, error) {
	if !mediagate.IsValidTableName(table) {
		return nil, fmt.Errorf("invalid table name: %s", table)
	}

	rows, err := pool.Query(ctx, `
		SELECT column_name, data_type, is_nullable = 'YES'
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1`, table)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	cols := internal.Schema{}
	for rows.Next() {
		var (
			name, typ string
			nullable  bool
		)
		if err := rows.Scan(&name, &typ, &nullable); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		cols[name] = internal.Column{Type: typ, Nullable: nullable}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	// A table without columns does not exist in information_schema.
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s does not exist", table)
	}
	return cols, nil
}
