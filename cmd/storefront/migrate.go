package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/storefront/config"
	"github.com/sagarc03/storefront/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the admins and products tables",
	Long: `Create the admins and products tables if they do not exist and check
that existing tables have the expected columns. Safe to run repeatedly.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err = db.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	if err = db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	if err = db.Validate(ctx); err != nil {
		return fmt.Errorf("validate database schema: %w", err)
	}

	slog.Info("migration complete",
		"type", cfg.Database.Type,
		"admins", cfg.Database.Tables.Admins,
		"products", cfg.Database.Tables.Products,
	)
	return nil
}
