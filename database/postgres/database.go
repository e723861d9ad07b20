package postgres

import (
	"context"
	"fmt"

	"github.com/dakgu/siack"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a pgx pool and the table names it serves.
type DB struct {
	pool   *pgxpool.Pool
	tables siack.Tables
}

// Connect establishes a connection pool to PostgreSQL.
// Tables should be validated before calling Connect.
func Connect(ctx context.Context, dsn string, tables siack.Tables) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	return &DB{
		pool:   pool,
		tables: tables,
	}, nil
}

// Ping verifies the database connection is alive.
func (d *DB) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

// Migrate creates the users and files tables when missing.
func (d *DB) Migrate(ctx context.Context) error {
	return Migrate(ctx, d.pool, d.tables)
}

// Validate checks that the database schema matches expected structure.
func (d *DB) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.pool, d.tables)
}

// Files returns the file metadata repository.
func (d *DB) Files() siack.FileRepo {
	return &FileRepo{pool: d.pool, tableName: pgxIdentifier(d.tables.Files)}
}

// Users returns the account repository.
func (d *DB) Users() siack.UserRepo {
	return &UserRepo{pool: d.pool, tableName: pgxIdentifier(d.tables.Users)}
}

// Close closes the database connection pool.
func (d *DB) Close() error {
	d.pool.Close()
	return nil
}
