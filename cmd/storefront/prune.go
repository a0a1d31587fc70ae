package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/storefront"
	"github.com/sagarc03/storefront/filesystem"
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove local image files no admin or product references",
	Long: `Walk the local uploads directory and delete files that no admin
picture or product image points at.

Discards after failed requests are best effort, so a crash or a slow disk can
leave files behind. Run this periodically to reclaim the space. Files newer
than --min-age are skipped so in-flight uploads are never removed.`,
	RunE: runPrune,
}

var (
	pruneDryRun bool
	pruneMinAge time.Duration
)

func init() {
	pruneCmd.Flags().BoolVar(&pruneDryRun, "dry-run", false, "list orphaned files without deleting them")
	pruneCmd.Flags().DurationVar(&pruneMinAge, "min-age", time.Hour, "skip files modified more recently than this")
	rootCmd.AddCommand(pruneCmd)
}

func runPrune(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := appFromCommand(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	entries, err := a.local.List(ctx)
	if err != nil {
		return fmt.Errorf("list local files: %w", err)
	}

	referenced, err := a.db.ProductRepo().ListImages(ctx)
	if err != nil {
		return fmt.Errorf("list product images: %w", err)
	}

	admins, err := allAdmins(cmd, a.db.AdminRepo(), storefront.AdminQuery{})
	if err != nil {
		return err
	}
	for _, admin := range admins {
		if !admin.Picture.IsZero() {
			referenced = append(referenced, admin.Picture)
		}
	}

	orphans := filesystem.Orphans(entries, referenced, time.Now().Add(-pruneMinAge))
	slog.Info("scanned uploads", "files", len(entries), "referenced", len(referenced), "orphaned", len(orphans))

	var (
		removed int
		freed   int64
	)
	for _, o := range orphans {
		if pruneDryRun {
			fmt.Fprintf(cmd.OutOrStdout(), "would remove %s (%d bytes)\n", o.Path, o.Size)
			continue
		}

		d := storefront.AssetDescriptor{Storage: storefront.BackendLocal, LocalPath: o.Path}
		if err := a.local.Delete(ctx, d); err != nil {
			slog.Warn("failed to remove orphaned file", "path", o.Path, "err", err)
			continue
		}
		removed++
		freed += o.Size
	}

	if !pruneDryRun {
		slog.Info("prune complete", "removed", removed, "bytes_freed", freed)
	}
	return nil
}
