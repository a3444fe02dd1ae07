package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sagarc03/mediagate/clientcli"
)

var (
	downloadOutput string
	downloadStdout bool
	downloadVideo  bool
	downloadRange  string
)

var downloadCmd = &cobra.Command{
	Use:   "download <key> [local-path]",
	Short: "Download an object from the server",
	Long: `Download an object from the media route, or from the video route with --video.

--range requests a byte range (e.g. 0-1023, 500-, -500). The video route
always honours it; the media route only when the server enables media ranges.

Examples:
  mediagate-cli download users/42/avatar.png
  mediagate-cli download --video clips/intro.mp4 ./intro.mp4
  mediagate-cli download --video --range 0-1048575 --stdout clips/intro.mp4 | ffprobe -`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "output file path")
	downloadCmd.Flags().BoolVar(&downloadStdout, "stdout", false, "write to stdout")
	downloadCmd.Flags().BoolVar(&downloadVideo, "video", false, "fetch through the video route")
	downloadCmd.Flags().StringVar(&downloadRange, "range", "", "byte range to request, e.g. 0-1023")
}

// rangeHeader turns a --range value into a Range header value.
func rangeHeader(spec string) string {
	if spec == "" {
		return ""
	}
	if strings.HasPrefix(spec, "bytes=") {
		return spec
	}
	return "bytes=" + spec
}

func runDownload(cmd *cobra.Command, args []string) error {
	key := args[0]

	localPath := ""
	if len(args) > 1 {
		localPath = args[1]
	}
	if downloadOutput != "" {
		localPath = downloadOutput
	}
	if downloadStdout {
		localPath = "-"
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	result, reader, err := client.Download(cmd.Context(), clientcli.DownloadOptions{
		Key:       key,
		LocalPath: localPath,
		Video:     downloadVideo,
		Range:     rangeHeader(downloadRange),
	})
	if err != nil {
		return handleError(os.Stderr, err)
	}

	if reader != nil {
		defer func() { _ = reader.Close() }()
		if _, err := io.Copy(os.Stdout, reader); err != nil {
			return fmt.Errorf("write stdout: %w", err)
		}
		// Metadata goes to stderr so stdout stays the object body.
		if jsonOutput {
			return getFormatter().FormatDownload(os.Stderr, result)
		}
		return nil
	}

	return getFormatter().FormatDownload(os.Stdout, result)
}
