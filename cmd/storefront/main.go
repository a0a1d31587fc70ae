package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/storefront/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "storefront",
	Short:   "Clothing store backend with dual-destination image uploads",
	Long: `Storefront serves the admin and product REST API of a clothing store.

Images are uploaded to an S3 compatible bucket when one is configured and
fall back to the local uploads directory when it is not reachable.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		files, _ := cmd.Flags().GetStringSlice("config")

		cfg, err := config.Load(files, cmd.Flags())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		setupLogging(cfg.Env, cfg.Log.Level)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSlice("config", nil, "config file path, repeat to merge (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("env", "", "environment: dev, prod (default: dev, env: STOREFRONT_ENV)")
	rootCmd.PersistentFlags().String("db-type", "", "database type: sqlite, postgres (default: sqlite, env: STOREFRONT_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database connection string (default: storefront.db, env: STOREFRONT_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("storage-path", "", "local uploads directory (default: ./uploads, env: STOREFRONT_STORAGE_LOCAL_PATH)")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
