package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the account the current token belongs to",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		client, err := getClient()
		if err != nil {
			return err
		}

		account, err := client.Profile(context.Background())
		if err != nil {
			return handleError(os.Stderr, err)
		}

		return getFormatter().FormatAccount(os.Stdout, account)
	},
}

var nicknameCmd = &cobra.Command{
	Use:   "nickname <nickname>",
	Short: "Change your nickname",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		client, err := getClient()
		if err != nil {
			return err
		}

		account, err := client.UpdateNickname(context.Background(), args[0])
		if err != nil {
			return handleError(os.Stderr, err)
		}

		return getFormatter().FormatAccount(os.Stdout, account)
	},
}
