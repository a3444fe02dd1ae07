package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/mediagate"
	"github.com/sagarc03/mediagate/config"
)

var removeCmd = &cobra.Command{
	Use:   "remove [flags] <key1> [key2] ...",
	Short: "Remove objects from the gateway",
	Long: `Soft-delete objects by marking them for removal.

This command marks objects as deleted in the metadata database. They stop
being served immediately; the blobs are removed later by 'mediagate cleanup'.

Examples:
  # Remove a single object
  mediagate remove avatar.png

  # Remove multiple objects
  mediagate remove a.png b.png clip.mp4

  # Remove all objects with a prefix
  mediagate remove --prefix images/

  # Remove quietly (suppress per-object output)
  mediagate remove -q avatar.png`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRemove,
}

var (
	removePrefix bool
	removeQuiet  bool
)

func init() {
	removeCmd.Flags().BoolVarP(&removePrefix, "prefix", "p", false, "treat arguments as key prefixes and remove all matching objects")
	removeCmd.Flags().BoolVarP(&removeQuiet, "quiet", "q", false, "suppress per-object output")
	rootCmd.AddCommand(removeCmd)
}

// objectRemover is the part of mediagate.Service the remove command uses.
type objectRemover interface {
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, q mediagate.ListQuery) (mediagate.ListResult, error)
}

func runRemove(cmd *cobra.Command, args []string) error {
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

	removed := 0
	notFound := 0

	for _, key := range args {
		if removePrefix {
			count, nfCount, prefixErr := removeByPrefix(ctx, b.service, key)
			if prefixErr != nil {
				return prefixErr
			}
			removed += count
			notFound += nfCount
			continue
		}

		ok, deleteErr := removeOne(ctx, b.service, key)
		if deleteErr != nil {
			return deleteErr
		}
		if ok {
			removed++
		} else {
			notFound++
		}
	}

	slog.Info("remove complete", "removed", removed, "not_found", notFound)
	return nil
}

// removeOne soft-deletes key. It reports false when the key does not exist.
func removeOne(ctx context.Context, service objectRemover, key string) (bool, error) {
	err := service.Delete(ctx, key)
	if errors.Is(err, mediagate.ErrNotFound) {
		if !removeQuiet {
			slog.Warn("not found", "key", key)
		}
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("remove %s: %w", key, err)
	}
	if !removeQuiet {
		slog.Info("removed", "key", key)
	}
	return true, nil
}

// removeByPrefix removes all objects whose key starts with prefix.
// Returns the count of removed objects, not found count, and any error.
func removeByPrefix(ctx context.Context, service objectRemover, prefix string) (removed, notFound int, err error) {
	cursor := ""

	for {
		result, listErr := service.List(ctx, mediagate.ListQuery{
			KeyPrefix: prefix,
			Limit:     100,
			Cursor:    cursor,
		})
		if listErr != nil {
			return removed, notFound, fmt.Errorf("list prefix %s: %w", prefix, listErr)
		}

		if len(result.Items) == 0 {
			break
		}

		for _, item := range result.Items {
			ok, deleteErr := removeOne(ctx, service, item.Key)
			if deleteErr != nil {
				return removed, notFound, deleteErr
			}
			if ok {
				removed++
			} else {
				notFound++
			}
		}

		if result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}

	return removed, notFound, nil
}
