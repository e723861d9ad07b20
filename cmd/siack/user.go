package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/dakgu/siack"
	"github.com/dakgu/siack/config"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Register a user account",
	Long: `Register a user account directly in the metadata database.

The password is prompted for unless SIACK_USER_PASSWORD is set.

Examples:
  siack user add alice --email alice@example.com --nickname alice
  SIACK_USER_PASSWORD=... siack user add bob --email bob@example.com --nickname bob`,
	Args: cobra.ExactArgs(1),
	RunE: runUserAdd,
}

var (
	userEmail    string
	userNickname string
)

func init() {
	userAddCmd.Flags().StringVar(&userEmail, "email", "", "email address (required)")
	userAddCmd.Flags().StringVar(&userNickname, "nickname", "", "display name (default: username)")
	_ = userAddCmd.MarkFlagRequired("email")

	userCmd.AddCommand(userAddCmd)
	rootCmd.AddCommand(userCmd)
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	username := args[0]
	nickname := userNickname
	if nickname == "" {
		nickname = username
	}

	password := os.Getenv("SIACK_USER_PASSWORD")
	if password == "" {
		password, err = promptPassword()
		if err != nil {
			return err
		}
		if password == "" {
			return nil
		}
	}

	a, cleanup, err := openApp(cmd.Context(), cfg, nil, false)
	if err != nil {
		return err
	}
	defer cleanup()

	u, err := a.users.Register(cmd.Context(), siack.RegisterRequest{
		Username: username,
		Password: password,
		Email:    userEmail,
		Nickname: nickname,
	})
	if err != nil {
		if errors.Is(err, siack.ErrConflict) {
			return fmt.Errorf("username or email already registered: %w", err)
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "User '%s' created (id %s).\n", u.Username, u.ID)
	return nil
}

// promptPassword asks for the password twice. An empty result means the
// user cancelled.
func promptPassword() (string, error) {
	prompt := promptui.Prompt{
		Label: "Password",
		Mask:  '*',
		Validate: func(input string) error {
			if len(input) < 8 {
				return errors.New("password must be at least 8 characters")
			}
			return nil
		},
	}
	password, err := prompt.Run()
	if err != nil {
		return "", handlePromptError(err)
	}

	confirm := promptui.Prompt{
		Label: "Confirm password",
		Mask:  '*',
	}
	again, err := confirm.Run()
	if err != nil {
		return "", handlePromptError(err)
	}
	if again != password {
		return "", errors.New("passwords do not match")
	}

	return password, nil
}

// handlePromptError handles promptui errors.
func handlePromptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) {
		fmt.Println("Cancelled.")
		return nil
	}
	return err
}
