package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/mediagate/clientcli"
)

var (
	uploadRecursive   bool
	uploadContentType string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <local-path> [key]",
	Short: "Upload files to the server",
	Long: `Upload files through the authenticated media route.

The key defaults to the local file name. With -r the key is used as a prefix
and the directory layout is kept below it. Requires an upload token.

Examples:
  mediagate-cli upload ./avatar.png users/42/avatar.png
  mediagate-cli upload -r ./thumbnails/ thumbs/
  mediagate-cli upload --content-type video/mp4 ./intro clips/intro.mp4`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().BoolVarP(&uploadRecursive, "recursive", "r", false, "upload directory recursively")
	uploadCmd.Flags().StringVar(&uploadContentType, "content-type", "", "override content-type")
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	if err = cfg.ValidateWithAuth(); err != nil {
		return handleError(os.Stderr, err)
	}

	client, err := clientcli.New(cfg)
	if err != nil {
		return err
	}

	opts := clientcli.UploadOptions{
		LocalPath:   args[0],
		ContentType: uploadContentType,
		Recursive:   uploadRecursive,
	}
	if len(args) > 1 {
		opts.Key = args[1]
	}

	results, err := client.Upload(cmd.Context(), opts)
	if err != nil {
		return handleError(os.Stderr, err)
	}

	if err := getFormatter().FormatUpload(os.Stdout, results); err != nil {
		return err
	}

	for i := range results {
		if results[i].Err != nil {
			return results[i].Err
		}
	}

	return nil
}
