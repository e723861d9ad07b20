package main

import (
	"context"
	"errors"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/dakgu/siack/clientcli"
)

var (
	registerEmail    string
	registerNickname string
)

var registerCmd = &cobra.Command{
	Use:   "register <username>",
	Short: "Create an account on the server",
	Long: `Create an account on the server.

The password is read from SIACK_PASSWORD when set, otherwise prompted for twice.
Run 'siack-cli login' afterwards to obtain a token.

Examples:
  siack-cli register alice --email alice@example.com --nickname Alice`,
	Args: cobra.ExactArgs(1),
	RunE: runRegister,
}

func init() {
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "email address (required)")
	registerCmd.Flags().StringVar(&registerNickname, "nickname", "", "display name (required)")
	_ = registerCmd.MarkFlagRequired("email")
	_ = registerCmd.MarkFlagRequired("nickname")
}

func runRegister(_ *cobra.Command, args []string) error {
	password, err := readNewPassword()
	if err != nil {
		return handlePromptError(err)
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	account, err := client.Register(context.Background(), clientcli.RegisterOptions{
		Username: args[0],
		Password: password,
		Email:    registerEmail,
		Nickname: registerNickname,
	})
	if err != nil {
		return handleError(os.Stderr, err)
	}

	return getFormatter().FormatRegister(os.Stdout, account)
}

func readNewPassword() (string, error) {
	if p := os.Getenv("SIACK_PASSWORD"); p != "" {
		return p, nil
	}

	password, err := (&promptui.Prompt{Label: "Password", Mask: '*'}).Run()
	if err != nil {
		return "", err
	}

	confirm := promptui.Prompt{
		Label: "Confirm password",
		Mask:  '*',
		Validate: func(s string) error {
			if s != password {
				return errors.New("passwords do not match")
			}
			return nil
		},
	}
	if _, err := confirm.Run(); err != nil {
		return "", err
	}

	return password, nil
}
