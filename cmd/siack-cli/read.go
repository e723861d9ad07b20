package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/dakgu/siack/clientcli"
)

var (
	readOutput string
	readStdout bool
)

var readCmd = &cobra.Command{
	Use:   "read <path> [local-path]",
	Short: "Read a stored file",
	Long: `Read a stored file by the path returned from upload.

Examples:
  siack-cli read ./data/images/3f2a.png
  siack-cli read ./data/images/3f2a.png ./cat.png
  siack-cli read --stdout ./data/images/3f2a.png > cat.png`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runRead,
}

func init() {
	readCmd.Flags().StringVarP(&readOutput, "output", "o", "", "output file path")
	readCmd.Flags().BoolVar(&readStdout, "stdout", false, "write to stdout")
}

func runRead(_ *cobra.Command, args []string) error {
	localPath := ""
	if len(args) > 1 {
		localPath = args[1]
	}
	if readOutput != "" {
		localPath = readOutput
	}
	if readStdout {
		localPath = "-"
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	result, content, err := client.Read(context.Background(), clientcli.ReadOptions{
		Path:      args[0],
		LocalPath: localPath,
	})
	if err != nil {
		return handleError(os.Stderr, err)
	}

	if localPath == "-" {
		_, err = os.Stdout.Write(content)
		return err
	}

	return getFormatter().FormatRead(os.Stdout, result)
}
