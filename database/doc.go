// Package database connects siack to its metadata backend.
//
// The package supports PostgreSQL and SQLite and handles connection
// management, migrations, and schema validation automatically.
//
// # Supported Backends
//
//   - PostgreSQL: Production backend using a pgx connection pool
//   - SQLite: Lightweight backend for development and single-node deployments
//
// # Usage
//
//	cfg := database.Config{
//	    Type:   "sqlite",
//	    DSN:    "siack.db",
//	    Tables: siack.Tables{Files: "siack_files", Users: "siack_users"},
//	}
//
//	repos, cleanup, err := database.Connect(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cleanup()
//
// Connect opens the connection, creates missing tables, validates the
// schema, and returns the file and user repositories.
//
// # Subpackages
//
//   - database/postgres: PostgreSQL implementation using pgx
//   - database/sqlite: SQLite implementation using modernc.org/sqlite
package database
