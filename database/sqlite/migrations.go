package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/mediagate"
)

// quoteIdentifier quotes a table or index name. Names are validated with
// mediagate.IsValidTableName before they get here.
func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

type TableMigration struct {
	TableName string
	Up        func(ctx context.Context, db *sql.DB) error
	Down      func(ctx context.Context, db *sql.DB) error
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

func Migrate(ctx context.Context, db *sql.DB, tables mediagate.Tables) error {
	for _, migration := range getTableMigrations(tables) {
		if err := migration.Up(ctx, db); err != nil {
			return fmt.Errorf("migrate up %s: %w", migration.TableName, err)
		}
	}
	return nil
}

// DropTables removes all tables in reverse dependency order.
func DropTables(ctx context.Context, db *sql.DB, tables mediagate.Tables) error {
	migrations := getTableMigrations(tables)

	for i := len(migrations) - 1; i >= 0; i-- {
		migration := migrations[i]
		if err := migration.Down(ctx, db); err != nil {
			return fmt.Errorf("migrate down %s: %w", migration.TableName, err)
		}
	}
	return nil
}

func execAll(ctx context.Context, db *sql.DB, stmts ...string) error {
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func createMetaTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		table := quoteIdentifier(tableName)

		err := execAll(ctx, db,
			fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT NOT NULL PRIMARY KEY,
				object_key TEXT NOT NULL UNIQUE,
				content_type TEXT NOT NULL,
				etag TEXT NOT NULL,
				file_size_bytes INTEGER NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				deleted_at TEXT,
				cleaned_up_at TEXT
			)`, table),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (deleted_at, cleaned_up_at)`,
				quoteIdentifier("idx_"+tableName+"_pending_cleanup"), table),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (created_at, object_key)`,
				quoteIdentifier("idx_"+tableName+"_active_list"), table),
		)
		if err != nil {
			return fmt.Errorf("create metadata table: %w", err)
		}
		return nil
	}
}

func createUsersTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		err := execAll(ctx, db, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id INTEGER NOT NULL PRIMARY KEY,
				email TEXT NOT NULL UNIQUE,
				name TEXT NOT NULL,
				password_hash TEXT NOT NULL,
				created_at TEXT NOT NULL
			)`, quoteIdentifier(tableName)))
		if err != nil {
			return fmt.Errorf("create users table: %w", err)
		}
		return nil
	}
}

func createTodosTable(tableName, usersTable string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		table := quoteIdentifier(tableName)

		err := execAll(ctx, db,
			fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id INTEGER NOT NULL PRIMARY KEY,
				title TEXT NOT NULL,
				completed INTEGER NOT NULL DEFAULT 0,
				user_id INTEGER NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
				created_at TEXT NOT NULL
			)`, table, quoteIdentifier(usersTable)),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (user_id)`,
				quoteIdentifier("idx_"+tableName+"_user_id"), table),
		)
		if err != nil {
			return fmt.Errorf("create todos table: %w", err)
		}
		return nil
	}
}

func dropTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		_, err := db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdentifier(tableName)))
		return err
	}
}
