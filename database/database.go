package database

import (
	"context"
	"fmt"

	"github.com/sagarc03/storefront"
	"github.com/sagarc03/storefront/database/postgres"
	"github.com/sagarc03/storefront/database/sqlite"
)

// Config holds the configuration for connecting to the entity store.
type Config struct {
	// Type specifies the database type: "sqlite" or "postgres"
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=sqlite postgres"`
	// DSN is the data source name (connection string)
	DSN string `mapstructure:"dsn" yaml:"dsn" validate:"required"`
	// AutoMigrate creates missing tables on startup
	AutoMigrate bool `mapstructure:"auto_migrate" yaml:"auto_migrate"`
	// Tables names the admins and products tables
	Tables storefront.Tables `mapstructure:"tables" yaml:"tables"`
}

// Database is an open connection to one of the supported backends.
type Database interface {
	// Ping verifies the connection is alive.
	Ping(ctx context.Context) error
	// Migrate creates the admins and products tables if they do not exist.
	Migrate(ctx context.Context) error
	// Validate checks that the existing tables match the expected columns.
	Validate(ctx context.Context) error
	AdminRepo() storefront.AdminRepo
	ProductRepo() storefront.ProductRepo
	Close() error
}

// Connect opens the configured backend. It neither migrates nor validates;
// callers decide that from Config.AutoMigrate.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	if err := cfg.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	switch cfg.Type {
	case "sqlite":
		db, err := sqlite.Connect(ctx, cfg.DSN, cfg.Tables)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.DSN, cfg.Tables)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}
