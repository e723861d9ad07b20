package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dakgu/siack/clientcli"
)

var (
	version = "dev"

	cfgFile    string
	profile    string
	endpoint   string
	token      string
	jsonOutput bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:     "siack-cli",
	Version: version,
	Short:   "Client for the siack image gateway",
	Long: `siack-cli - Client for the siack image gateway

Log in once per profile to store a bearer token, then upload, read and list
your files:

  siack-cli configure add local
  siack-cli login
  siack-cli upload ./cat.png
  siack-cli list`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.siack/config.yaml, env: SIACK_CLI_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "profile name (env: SIACK_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", "", "server URL (default: http://localhost:8080, env: SIACK_ENDPOINT)")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "bearer token (env: SIACK_TOKEN)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")

	rootCmd.AddCommand(configureCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(nicknameCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// getConfigPath resolves the profile file: --config, then SIACK_CLI_CONFIG,
// then ~/.siack/config.yaml.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if p := clientcli.ConfigPathFromEnv(); p != "" {
		return p
	}
	return clientcli.DefaultConfigPath()
}

// getProfileName returns --profile or SIACK_PROFILE. Empty selects the default.
func getProfileName() string {
	if profile != "" {
		return profile
	}
	return clientcli.ProfileFromEnv()
}

// buildConfig merges the selected profile, env vars and flags (flags take precedence).
func buildConfig() (*clientcli.Config, error) {
	var configs []*clientcli.Config

	profileName := getProfileName()
	file, err := clientcli.LoadConfigFile(getConfigPath())
	switch {
	case err == nil:
		p, profileErr := file.GetProfile(profileName)
		if profileErr == nil {
			configs = append(configs, clientcli.ConfigFromProfile(p))
		} else if profileName != "" || !errors.Is(profileErr, clientcli.ErrNoProfiles) {
			return nil, profileErr
		}
	case cfgFile != "" || profileName != "":
		// Only error if the user asked for a specific file or profile
		return nil, err
	}

	configs = append(configs, clientcli.ConfigFromEnv())
	configs = append(configs, &clientcli.Config{
		Endpoint: endpoint,
		Token:    token,
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

// handleError prints err through the formatter and returns it.
func handleError(w io.Writer, err error) error {
	_ = getFormatter().FormatError(w, err)
	if errors.Is(err, clientcli.ErrUnauthorized) && !jsonOutput {
		_, _ = fmt.Fprintln(w, "Hint: the token may have expired; run 'siack-cli login'.")
	}
	return err
}
