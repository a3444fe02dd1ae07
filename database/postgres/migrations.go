package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/mediagate"
)

type TableMigration struct {
	TableName string
	Up        func(ctx context.Context, pool *pgxpool.Pool) error
	Down      func(ctx context.Context, pool *pgxpool.Pool) error
}

// getTableMigrations returns the migrations in dependency order.
func getTableMigrations(tables mediagate.Tables) []TableMigration {
	return []TableMigration{
		{
			TableName: tables.MetaData,
			Up:        createMetaTable(tables.MetaData),
			Down:      dropTable(tables.MetaData),
		},
		{
			TableName: tables.Users,
			Up:        createUsersTable(tables.Users),
			Down:      dropTable(tables.Users),
		},
		{
			TableName: tables.Todos,
			Up:        createTodosTable(tables.Todos, tables.Users),
			Down:      dropTable(tables.Todos),
		},
	}
}

func Migrate(ctx context.Context, pool *pgxpool.Pool, tables mediagate.Tables) error {
	for _, migration := range getTableMigrations(tables) {
		if err := migration.Up(ctx, pool); err != nil {
			return fmt.Errorf("migrate up %s: %w", migration.TableName, err)
		}
	}
	return nil
}

// DropTables removes all tables in reverse dependency order.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables mediagate.Tables) error {
	migrations := getTableMigrations(tables)

	for i := len(migrations) - 1; i >= 0; i-- {
		migration := migrations[i]
		if err := migration.Down(ctx, pool); err != nil {
			return fmt.Errorf("migrate down %s: %w", migration.TableName, err)
		}
	}
	return nil
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func createMetaTable(tableName string) func(context.Context, *pgxpool.Pool) error {
	return func(ctx context.Context, pool *pgxpool.Pool) error {
		table := ident(tableName)

		sql := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				object_key TEXT NOT NULL UNIQUE,
				content_type TEXT NOT NULL,
				etag TEXT NOT NULL,
				file_size_bytes BIGINT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				deleted_at TIMESTAMPTZ,
				cleaned_up_at TIMESTAMPTZ
			);

			CREATE INDEX IF NOT EXISTS %s
			ON %s (deleted_at, cleaned_up_at)
			WHERE (deleted_at IS NOT NULL AND cleaned_up_at IS NULL);

			CREATE INDEX IF NOT EXISTS %s
			ON %s (created_at, object_key)
			WHERE (deleted_at IS NULL);
		`,
			table,
			ident("idx_"+tableName+"_pending_cleanup"), table,
			ident("idx_"+tableName+"_active_list"), table,
		)

		if _, err := pool.Exec(ctx, sql); err != nil {
			return fmt.Errorf("create metadata table: %w", err)
		}
		return nil
	}
}

func createUsersTable(tableName string) func(context.Context, *pgxpool.Pool) error {
	return func(ctx context.Context, pool *pgxpool.Pool) error {
		sql := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
				email TEXT NOT NULL UNIQUE,
				name TEXT NOT NULL,
				password_hash TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)
		`, ident(tableName))

		if _, err := pool.Exec(ctx, sql); err != nil {
			return fmt.Errorf("create users table: %w", err)
		}
		return nil
	}
}

func createTodosTable(tableName, usersTable string) func(context.Context, *pgxpool.Pool) error {
	return func(ctx context.Context, pool *pgxpool.Pool) error {
		table := ident(tableName)

		sql := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
				title TEXT NOT NULL,
				completed BOOLEAN NOT NULL DEFAULT FALSE,
				user_id BIGINT NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS %s ON %s (user_id);
		`,
			table, ident(usersTable),
			ident("idx_"+tableName+"_user_id"), table,
		)

		if _, err := pool.Exec(ctx, sql); err != nil {
			return fmt.Errorf("create todos table: %w", err)
		}
		return nil
	}
}

func dropTable(tableName string) func(context.Context, *pgxpool.Pool) error {
	return func(ctx context.Context, pool *pgxpool.Pool) error {
		_, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", ident(tableName)))
		return err
	}
}
