package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/storefront"
)

type TableMigration struct {
	TableName string
	Up        func(ctx context.Context, pool *pgxpool.Pool) error
	Down      func(ctx context.Context, pool *pgxpool.Pool) error
}

// getTableMigrations returns all table migrations in creation order.
func getTableMigrations(tables storefront.Tables) []TableMigration {
	return []TableMigration{
		{
			TableName: tables.Admins,
			Up:        createAdminsTable(tables.Admins),
			Down:      dropTable(tables.Admins),
		},
		{
			TableName: tables.Products,
			Up:        createProductsTable(tables.Products),
			Down:      dropTable(tables.Products),
		},
	}
}

func Migrate(ctx context.Context, pool *pgxpool.Pool, tables storefront.Tables) error {
	for _, migration := range getTableMigrations(tables) {
		if err := migration.Up(ctx, pool); err != nil {
			return fmt.Errorf("migrate up %s: %w", migration.TableName, err)
		}
	}
	return nil
}

func DropTables(ctx context.Context, pool *pgxpool.Pool, tables storefront.Tables) error {
	migrations := getTableMigrations(tables)

	for i := len(migrations) - 1; i >= 0; i-- {
		migration := migrations[i]
		if err := migration.Down(ctx, pool); err != nil {
			return fmt.Errorf("migrate down %s: %w", migration.TableName, err)
		}
	}

	return nil
}

func createAdminsTable(tableName string) func(context.Context, *pgxpool.Pool) error {
	return func(ctx context.Context, pool *pgxpool.Pool) error {
		quotedTable := pgx.Identifier{tableName}.Sanitize()

		sql := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				name TEXT NOT NULL,
				email TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				role TEXT NOT NULL DEFAULT 'admin',
				is_active BOOLEAN NOT NULL DEFAULT TRUE,
				picture JSONB NOT NULL DEFAULT '{}'::jsonb,
				last_login_at TIMESTAMPTZ,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
		`, quotedTable)

		if _, err := pool.Exec(ctx, sql); err != nil {
			return fmt.Errorf("create admins table: %w", err)
		}
		return nil
	}
}

func createProductsTable(tableName string) func(context.Context, *pgxpool.Pool) error {
	return func(ctx context.Context, pool *pgxpool.Pool) error {
		quotedTable := pgx.Identifier{tableName}.Sanitize()
		indexCategory := pgx.Identifier{fmt.Sprintf("idx_%s_category", tableName)}.Sanitize()
		indexStatus := pgx.Identifier{fmt.Sprintf("idx_%s_status", tableName)}.Sanitize()
		indexCreatedAt := pgx.Identifier{fmt.Sprintf("idx_%s_created_at", tableName)}.Sanitize()

		sql := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				name TEXT NOT NULL,
				description TEXT NOT NULL,
				price NUMERIC(12, 2) NOT NULL CHECK (price >= 0),
				category TEXT NOT NULL,
				brand TEXT NOT NULL DEFAULT '',
				sizes TEXT[] NOT NULL DEFAULT '{}',
				colors TEXT[] NOT NULL DEFAULT '{}',
				stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
				status TEXT NOT NULL DEFAULT 'active',
				featured BOOLEAN NOT NULL DEFAULT FALSE,
				main_image JSONB NOT NULL DEFAULT '{}'::jsonb,
				additional_images JSONB NOT NULL DEFAULT '[]'::jsonb,
				created_by UUID NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS %s ON %s (LOWER(category));

			CREATE INDEX IF NOT EXISTS %s ON %s (status);

			CREATE INDEX IF NOT EXISTS %s ON %s (created_at, id);
		`,
			quotedTable,
			indexCategory, quotedTable,
			indexStatus, quotedTable,
			indexCreatedAt, quotedTable,
		)

		if _, err := pool.Exec(ctx, sql); err != nil {
			return fmt.Errorf("create products table: %w", err)
		}
		return nil
	}
}

func dropTable(tableName string) func(context.Context, *pgxpool.Pool) error {
	return func(ctx context.Context, pool *pgxpool.Pool) error {
		sql := fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", pgx.Identifier{tableName}.Sanitize())
		_, err := pool.Exec(ctx, sql)
		return err
	}
}
