package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dakgu/siack"

	_ "modernc.org/sqlite" // SQLite driver
)

// DB wraps a SQLite handle and the table names it serves.
type DB struct {
	db     *sql.DB
	tables siack.Tables
}

// Connect opens a SQLite database. Tables should be validated before calling
// Connect.
func Connect(ctx context.Context, dsn string, tables siack.Tables) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	// A single connection keeps ":memory:" databases shared and serializes
	// writers.
	db.SetMaxOpenConns(1)

	return &DB{
		db:     db,
		tables: tables,
	}, nil
}

// Ping verifies the database connection is alive.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Migrate creates the users and files tables when missing.
func (d *DB) Migrate(ctx context.Context) error {
	return Migrate(ctx, d.db, d.tables)
}

// Validate checks that the database schema matches expected structure.
func (d *DB) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.db, d.tables)
}

// Files returns the file metadata repository.
func (d *DB) Files() siack.FileRepo {
	return &FileRepo{db: d.db, tableName: quoteIdentifier(d.tables.Files)}
}

// Users returns the account repository.
func (d *DB) Users() siack.UserRepo {
	return &UserRepo{db: d.db, tableName: quoteIdentifier(d.tables.Users)}
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}
