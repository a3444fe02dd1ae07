package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sagarc03/mediagate"
	"github.com/sagarc03/mediagate/config"
)

var addCmd = &cobra.Command{
	Use:   "add [flags] <file1> [file2] ...",
	Short: "Import local files into the gateway",
	Long: `Import files from local paths into the configured blob store.

This command streams each file into storage and records its metadata in
the database. Objects are addressed by their key, which defaults to the
file name and can be prefixed with --dest.

Examples:
  # Add a single file
  mediagate add /path/to/clip.mp4

  # Add with a key prefix
  mediagate add --dest images/ /path/to/photo.jpg

  # Add a directory recursively
  mediagate add -r /path/to/assets

  # Skip keys that already exist
  mediagate add --no-clobber /path/to/file.png`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var (
	addDest      string
	addRecursive bool
	addNoClobber bool
	addQuiet     bool
)

func init() {
	addCmd.Flags().StringVarP(&addDest, "dest", "d", "", "key prefix in storage")
	addCmd.Flags().BoolVarP(&addRecursive, "recursive", "r", false, "recursively add directories")
	addCmd.Flags().BoolVarP(&addNoClobber, "no-clobber", "n", false, "skip existing keys instead of overwriting")
	addCmd.Flags().BoolVarP(&addQuiet, "quiet", "q", false, "suppress per-file output")
	rootCmd.AddCommand(addCmd)
}

// fileEntry represents a file to be added with its source path and object key.
type fileEntry struct {
	sourcePath string
	key        string
}

func runAdd(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	// Collect files from all arguments
	var files []fileEntry
	for _, arg := range args {
		entries, collectErr := collectFiles(arg, addRecursive, addDest)
		if collectErr != nil {
			return fmt.Errorf("collect files from %s: %w", arg, collectErr)
		}
		files = append(files, entries...)
	}

	if len(files) == 0 {
		slog.Info("no files to add")
		return nil
	}

	b, err := openBackend(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer b.Close()

	repo := b.db.GetRepo()
	added := 0
	skipped := 0

	for _, entry := range files {
		if addNoClobber {
			_, getErr := repo.Get(ctx, entry.key)
			if getErr == nil {
				skipped++
				if !addQuiet {
					slog.Info("skipped (exists)", "key", entry.key)
				}
				continue
			}
			if !errors.Is(getErr, mediagate.ErrNotFound) {
				return fmt.Errorf("check %s: %w", entry.key, getErr)
			}
		}

		f, openErr := os.Open(entry.sourcePath)
		if openErr != nil {
			return fmt.Errorf("open %s: %w", entry.sourcePath, openErr)
		}

		contentType := detectContentType(entry.sourcePath)

		obj := mediagate.CreateObject{
			Key:         entry.key,
			ContentType: contentType,
		}

		_, createErr := b.service.Create(ctx, obj, f)
		_ = f.Close()

		if createErr != nil {
			return fmt.Errorf("add %s: %w", entry.key, createErr)
		}

		added++
		if !addQuiet {
			slog.Info("added", "key", entry.key, "content_type", contentType)
		}
	}

	slog.Info("add complete", "added", added, "skipped", skipped)
	return nil
}

// collectFiles gathers files from a path, optionally recursively, and
// assigns each the key it will be stored under.
func collectFiles(path string, recursive bool, destPrefix string) ([]fileEntry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	// Normalize dest prefix - ensure it ends with / if non-empty
	destPrefix = strings.TrimPrefix(destPrefix, "/")
	if destPrefix != "" && !strings.HasSuffix(destPrefix, "/") {
		destPrefix += "/"
	}

	if !info.IsDir() {
		key := destPrefix + filepath.Base(path)
		if !mediagate.IsValidKey(key) {
			return nil, fmt.Errorf("invalid key %q", key)
		}
		return []fileEntry{{sourcePath: path, key: key}}, nil
	}

	if !recursive {
		return nil, fmt.Errorf("%s is a directory (use -r to add recursively)", path)
	}

	var entries []fileEntry
	walkErr := filepath.WalkDir(path, func(walkPath string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if d.IsDir() {
			return nil
		}

		relPath, relErr := filepath.Rel(path, walkPath)
		if relErr != nil {
			return relErr
		}

		// Keys always use forward slashes
		key := destPrefix + filepath.ToSlash(relPath)
		if !mediagate.IsValidKey(key) {
			return fmt.Errorf("invalid key %q", key)
		}

		entries = append(entries, fileEntry{
			sourcePath: walkPath,
			key:        key,
		})
		return nil
	})

	if walkErr != nil {
		return nil, walkErr
	}

	return entries, nil
}

// detectContentType determines the MIME type from a file's extension.
func detectContentType(path string) string {
	return mediagate.ResolveContentType(path, false, mime.TypeByExtension(filepath.Ext(path)))
}
