package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/mediagate"
	"github.com/sagarc03/mediagate/config"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Clean up soft-deleted objects",
	Long: `Permanently remove soft-deleted objects from storage.

This command processes all objects that have been soft-deleted (marked for deletion)
but not yet physically removed from storage. It:
  1. Deletes the blob from storage
  2. Marks the metadata entry as cleaned up

Run this periodically to reclaim storage space from deleted objects.`,
	RunE: runCleanup,
}

var (
	cleanupLimit  int
	cleanupPrefix string
)

func init() {
	cleanupCmd.Flags().IntVar(&cleanupLimit, "limit", 100, "number of objects fetched per batch")
	cleanupCmd.Flags().StringVar(&cleanupPrefix, "prefix", "", "only clean up keys with this prefix")
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	b, err := openBackend(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer b.Close()

	slog.Info("starting cleanup", "limit", cleanupLimit, "prefix", cleanupPrefix)

	cleaned, err := b.service.Tombstone(ctx, mediagate.ListQuery{KeyPrefix: cleanupPrefix, Limit: cleanupLimit})
	if err != nil {
		return fmt.Errorf("tombstone after %d objects: %w", cleaned, err)
	}

	slog.Info("cleanup complete", "objects_cleaned", cleaned)
	return nil
}
