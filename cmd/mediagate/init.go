package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/mediagate"
	"github.com/sagarc03/mediagate/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create tables and index existing blobs",
	Long: `Create the metadata and record tables, then scan the blob store and
record metadata for every object found. This is useful when:
  - Setting up mediagate over an existing directory or bucket
  - Recovering metadata after database loss
  - Migrating from another storage system

For S3 storage the bucket is created if it does not exist.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

type bucketEnsurer interface {
	EnsureBucket(ctx context.Context) error
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	b, err := openBackend(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer b.Close()

	if ensurer, ok := b.storage.(bucketEnsurer); ok {
		if err := ensurer.EnsureBucket(ctx); err != nil {
			return err
		}
	}

	slog.Info("scanning storage", "type", cfg.Storage.Type)

	if err := b.service.Populate(ctx); err != nil {
		return fmt.Errorf("populate: %w", err)
	}

	total := 0
	cursor := ""
	for {
		result, err := b.service.List(ctx, mediagate.ListQuery{Limit: 1000, Cursor: cursor})
		if err != nil {
			return fmt.Errorf("count indexed objects: %w", err)
		}
		total += len(result.Items)
		if result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}

	slog.Info("initialization complete", "objects_indexed", total)
	return nil
}
