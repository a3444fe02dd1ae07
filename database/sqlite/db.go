package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/mediagate"
	"github.com/sagarc03/mediagate/database/internal"
)

var metaDataSchema = internal.Schema{
	"id":              {Type: "text"},
	"object_key":      {Type: "text"},
	"content_type":    {Type: "text"},
	"etag":            {Type: "text"},
	"file_size_bytes": {Type: "integer"},
	"created_at":      {Type: "text"},
	"updated_at":      {Type: "text"},
	"deleted_at":      {Type: "text", Nullable: true},
	"cleaned_up_at":   {Type: "text", Nullable: true},
}

var usersSchema = internal.Schema{
	"id":            {Type: "integer"},
	"email":         {Type: "text"},
	"name":          {Type: "text"},
	"password_hash": {Type: "text"},
	"created_at":    {Type: "text"},
}

var todosSchema = internal.Schema{
	"id":         {Type: "integer"},
	"title":      {Type: "text"},
	"completed":  {Type: "integer"},
	"user_id":    {Type: "integer"},
	"created_at": {Type: "text"},
}

// ValidateSchema checks that every table exists with the expected columns.
// Extra columns are allowed.
func ValidateSchema(ctx context.Context, db *sql.DB, tables mediagate.Tables) error {
	checks := []struct {
		table string
		want  internal.Schema
	}{
		{tables.MetaData, metaDataSchema},
		{tables.Users, usersSchema},
		{tables.Todos, todosSchema},
	}

	for _, c := range checks {
		got, err := tableColumns(ctx, db, c.table)
		if err == nil {
			err = internal.DiffSchema(c.table, c.want, got)
		}
		if err != nil {
			return fmt.Errorf("validate schema %s: %w", c.table, err)
		}
	}
	return nil
}

// tableColumns reads the column list of table. PRAGMA table_info returns no
// rows for a missing table, so existence is checked first.
func tableColumns(ctx context.Context, db *sql.DB, table string) (internal.Schema, error) {
	if !mediagate.IsValidTableName(table) {
		return nil, fmt.Errorf("invalid table name: %s", table)
	}

	var n int
	err := db.QueryRowContext(ctx,
		`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n)
	if err != nil {
		return nil, fmt.Errorf("check table exists: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("table %s does not exist", table)
	}

	rows, err := db.QueryContext(ctx, `PRAGMA table_info(`+quoteIdentifier(table)+`)`)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols := internal.Schema{}
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, typ        string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		cols[name] = internal.Column{Type: typ, Nullable: notNull == 0}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	return cols, nil
}
