package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/mediagate/clientcli"
)

var (
	version = "dev"

	cfgFile    string
	profile    string
	endpoint   string
	apiPrefix  string
	token      string
	jsonOutput bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:     "mediagate-cli",
	Version: version,
	Short:   "Client for the mediagate media gateway",
	Long: `mediagate-cli talks to a mediagate server.

Connection settings are resolved from, in increasing precedence:
  - the selected profile in ~/.mediagate/config.yaml
  - MEDIAGATE_ENDPOINT, MEDIAGATE_API_PREFIX and MEDIAGATE_TOKEN
  - the --endpoint, --api-prefix and --token flags`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.mediagate/config.yaml, env: MEDIAGATE_CLI_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "profile name (env: MEDIAGATE_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", "", "server URL (default: http://localhost:5708, env: MEDIAGATE_ENDPOINT)")
	rootCmd.PersistentFlags().StringVar(&apiPrefix, "api-prefix", "", "API mount point (default: /api, env: MEDIAGATE_API_PREFIX)")
	rootCmd.PersistentFlags().StringVarP(&token, "token", "t", "", "upload bearer token (env: MEDIAGATE_TOKEN)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(todosCmd)
	rootCmd.AddCommand(configureCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// getConfigPath returns the profile file path from the flag, the environment
// or the default location.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if p := clientcli.ConfigPathFromEnv(); p != "" {
		return p
	}
	return clientcli.DefaultConfigPath()
}

// buildConfig merges the selected profile, env vars and flags (flags take precedence).
func buildConfig() (*clientcli.Config, error) {
	var configs []*clientcli.Config

	explicit := cfgFile != "" || clientcli.ConfigPathFromEnv() != ""

	profileName := profile
	if profileName == "" {
		profileName = clientcli.ProfileFromEnv()
	}

	configPath := getConfigPath()
	if configPath != "" {
		file, err := clientcli.LoadConfigFile(configPath)
		switch {
		case err == nil:
			p, profileErr := file.GetProfile(profileName)
			if profileErr != nil && (profileName != "" || !errors.Is(profileErr, clientcli.ErrNoProfiles)) {
				return nil, profileErr
			}
			if p != nil {
				configs = append(configs, clientcli.ConfigFromProfile(p))
			}
		case explicit || profileName != "":
			return nil, err
		}
	}

	configs = append(configs, clientcli.ConfigFromEnv())
	configs = append(configs, &clientcli.Config{
		Endpoint:  endpoint,
		APIPrefix: apiPrefix,
		Token:     token,
	})

	return clientcli.MergeConfig(configs...), nil
}

// getFormatter returns the appropriate formatter based on flags.
func getFormatter() clientcli.Formatter {
	return clientcli.NewFormatter(jsonOutput, quiet)
}

// getClient creates and returns a configured client.
func getClient() (*clientcli.Client, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}

	return clientcli.New(cfg)
}

// handleError prints err with the active formatter and returns it so the
// command exits non-zero.
func handleError(w io.Writer, err error) error {
	if fmtErr := getFormatter().FormatError(w, err); fmtErr != nil {
		return fmt.Errorf("%w (format error: %v)", err, fmtErr)
	}
	return err
}
