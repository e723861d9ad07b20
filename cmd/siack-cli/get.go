package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show the metadata of an uploaded file",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		client, err := getClient()
		if err != nil {
			return err
		}

		info, err := client.Get(context.Background(), args[0])
		if err != nil {
			return handleError(os.Stderr, err)
		}

		return getFormatter().FormatFile(os.Stdout, info)
	},
}
