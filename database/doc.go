// Package database connects to the metadata and record backends.
//
// # Supported Backends
//
//   - PostgreSQL: pgx connection pool, suited to multi-instance deployments
//   - SQLite: pure-Go driver, suited to single-node deployments and tests
//
// # Usage
//
//	db, err := database.Connect(ctx, database.Config{
//	    Type:   "sqlite",
//	    DSN:    "mediagate.db",
//	    Tables: mediagate.DefaultTables(),
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//	objects := db.GetRepo()
//	records := db.GetRecords()
package database
