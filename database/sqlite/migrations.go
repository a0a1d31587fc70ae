package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/storefront"
)

// quoteIdentifier safely quotes a SQLite identifier
func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

type TableMigration struct {
	TableName string
	Up        func(ctx context.Context, db *sql.DB) error
	Down      func(ctx context.Context, db *sql.DB) error
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

func Migrate(ctx context.Context, db *sql.DB, tables storefront.Tables) error {
	migrations := getTableMigrations(tables)

	for _, migration := range migrations {
		if err := migration.Up(ctx, db); err != nil {
			return fmt.Errorf("migrate up %s: %w", migration.TableName, err)
		}
	}

	return nil
}

func DropTables(ctx context.Context, db *sql.DB, tables storefront.Tables) error {
	migrations := getTableMigrations(tables)

	for i := len(migrations) - 1; i >= 0; i-- {
		migration := migrations[i]
		if err := migration.Down(ctx, db); err != nil {
			return fmt.Errorf("migrate down %s: %w", migration.TableName, err)
		}
	}

	return nil
}

func createAdminsTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		quotedTable := quoteIdentifier(tableName)

		createTableSQL := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT NOT NULL PRIMARY KEY,
				name TEXT NOT NULL,
				email TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				role TEXT NOT NULL,
				is_active INTEGER NOT NULL,
				picture TEXT NOT NULL,
				last_login_at TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)
		`, quotedTable)

		if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
			return fmt.Errorf("create table: %w", err)
		}

		return nil
	}
}

func createProductsTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		quotedTable := quoteIdentifier(tableName)
		indexCategory := quoteIdentifier(fmt.Sprintf("idx_%s_category", tableName))
		indexStatus := quoteIdentifier(fmt.Sprintf("idx_%s_status", tableName))
		indexCreatedAt := quoteIdentifier(fmt.Sprintf("idx_%s_created_at", tableName))

		createTableSQL := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT NOT NULL PRIMARY KEY,
				name TEXT NOT NULL,
				description TEXT NOT NULL,
				price REAL NOT NULL,
				category TEXT NOT NULL,
				brand TEXT NOT NULL,
				sizes TEXT NOT NULL,
				colors TEXT NOT NULL,
				stock INTEGER NOT NULL,
				status TEXT NOT NULL,
				featured INTEGER NOT NULL,
				main_image TEXT NOT NULL,
				additional_images TEXT NOT NULL,
				created_by TEXT NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)
		`, quotedTable)

		if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
			return fmt.Errorf("create table: %w", err)
		}

		for name, column := range map[string]string{
			indexCategory:  "category",
			indexStatus:    "status",
			indexCreatedAt: "created_at",
		} {
			indexSQL := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (%s)`, name, quotedTable, column)
			if _, err := db.ExecContext(ctx, indexSQL); err != nil {
				return fmt.Errorf("create index %s: %w", column, err)
			}
		}

		return nil
	}
}

func dropTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		quotedTable := quoteIdentifier(tableName)
		dropSQL := fmt.Sprintf("DROP TABLE IF EXISTS %s", quotedTable)

		_, err := db.ExecContext(ctx, dropSQL)
		return err
	}
}
