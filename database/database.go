package database

import (
	"context"
	"fmt"

	"github.com/dakgu/siack"
	"github.com/dakgu/siack/database/postgres"
	"github.com/dakgu/siack/database/sqlite"
)

// Config holds the configuration for connecting to a metadata backend.
type Config struct {
	// Type specifies the database type: "sqlite" or "postgres"
	Type string `mapstructure:"type" validate:"required,oneof=sqlite postgres"`
	// DSN is the data source name (connection string)
	DSN string `mapstructure:"dsn" validate:"required"`
	// Tables names the users and files tables
	Tables siack.Tables `mapstructure:"tables"`
}

// Repos bundles the repositories served by one connection.
type Repos struct {
	Files siack.FileRepo
	Users siack.UserRepo
}

type backend interface {
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Validate(ctx context.Context) error
	Files() siack.FileRepo
	Users() siack.UserRepo
	Close() error
}

func open(ctx context.Context, cfg Config) (backend, error) {
	if err := cfg.Tables.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case "sqlite":
		return sqlite.Connect(ctx, cfg.DSN, cfg.Tables)
	case "postgres":
		return postgres.Connect(ctx, cfg.DSN, cfg.Tables)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

// Connect establishes a connection to the configured database backend,
// runs migrations, validates the schema, and returns the repositories.
// The returned cleanup function should be called to close the connection.
func Connect(ctx context.Context, cfg Config) (Repos, func(), error) {
	db, err := open(ctx, cfg)
	if err != nil {
		return Repos{}, nil, fmt.Errorf("connect %s: %w", cfg.Type, err)
	}

	if err := prepare(ctx, db); err != nil {
		_ = db.Close()
		return Repos{}, nil, fmt.Errorf("connect %s: %w", cfg.Type, err)
	}

	cleanup := func() {
		_ = db.Close()
	}

	return Repos{Files: db.Files(), Users: db.Users()}, cleanup, nil
}

// Migrate creates the tables and validates the schema without keeping the
// connection open.
func Migrate(ctx context.Context, cfg Config) error {
	db, err := open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("migrate %s: %w", cfg.Type, err)
	}
	defer func() { _ = db.Close() }()

	if err := prepare(ctx, db); err != nil {
		return fmt.Errorf("migrate %s: %w", cfg.Type, err)
	}
	return nil
}

func prepare(ctx context.Context, db backend) error {
	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		return err
	}
	if err := db.Validate(ctx); err != nil {
		return err
	}
	return nil
}
