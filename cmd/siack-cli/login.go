package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/dakgu/siack/clientcli"
)

var loginUsername string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store a bearer token",
	Long: `Sign in with a username and password.

The issued token is stored in the selected profile (created on first login) and
sent with every later request. The password is read from SIACK_PASSWORD when set,
otherwise prompted for.

Examples:
  siack-cli login
  siack-cli login -u alice
  siack-cli -p prod login`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "account username")
}

func runLogin(_ *cobra.Command, _ []string) error {
	configPath := getConfigPath()
	file, err := loadOrCreateConfigFile(configPath)
	if err != nil {
		return err
	}

	profileName := getProfileName()
	existing, err := file.GetProfile(profileName)
	if err != nil && !errors.Is(err, clientcli.ErrNoProfiles) && !errors.Is(err, clientcli.ErrProfileNotFound) {
		return err
	}

	username := loginUsername
	if username == "" && existing != nil {
		username = existing.Username
	}
	if username == "" {
		username, err = (&promptui.Prompt{Label: "Username"}).Run()
		if err != nil {
			return handlePromptError(err)
		}
	}

	password := os.Getenv("SIACK_PASSWORD")
	if password == "" {
		password, err = (&promptui.Prompt{Label: "Password", Mask: '*'}).Run()
		if err != nil {
			return handlePromptError(err)
		}
	}

	cfg, err := buildConfig()
	if err != nil && existing != nil {
		return err
	}
	if cfg == nil {
		cfg = clientcli.MergeConfig(clientcli.ConfigFromEnv(), &clientcli.Config{Endpoint: endpoint})
	}

	client, err := clientcli.New(cfg)
	if err != nil {
		return err
	}

	result, err := client.Login(context.Background(), strings.TrimSpace(username), password)
	if err != nil {
		return handleError(os.Stderr, err)
	}

	name := profileName
	if existing != nil {
		name = existing.Name
	}
	if name == "" {
		name = "default"
	}
	file.StoreToken(name, cfg.WithDefaults().Endpoint, result.Username, result.Token)

	if err := file.Save(configPath); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	return getFormatter().FormatLogin(os.Stdout, result)
}
