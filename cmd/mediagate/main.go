package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/mediagate/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "mediagate",
	Short:   "Media gateway with ranged streaming and authenticated uploads",
	Long: `mediagate serves images and videos from a filesystem or S3 bucket over HTTP,
with byte-range streaming for video and shared-secret protected uploads.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFiles, _ := cmd.Flags().GetStringSlice("config")

		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return err
		}

		setupLogging(cfg.Log)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSlice("config", nil, "config file paths, merged in order (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("db-type", "", "database type: sqlite, postgres (default: sqlite, env: MEDIAGATE_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database connection string (default: mediagate.db, env: MEDIAGATE_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("storage-type", "", "storage backend: filesystem, s3 (default: filesystem, env: MEDIAGATE_STORAGE_TYPE)")
	rootCmd.PersistentFlags().String("storage-path", "", "storage directory path (default: ./data, env: MEDIAGATE_STORAGE_PATH)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: MEDIAGATE_LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
