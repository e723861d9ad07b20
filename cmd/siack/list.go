package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dakgu/siack"
	"github.com/dakgu/siack/config"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the files owned by a user",
	Long: `List the metadata records owned by --user, newest first. All pages are
fetched unless --limit caps the total.

Examples:
  siack list --user alice
  siack list --user alice --limit 20`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var (
	listUser  string
	listLimit int
)

func init() {
	listCmd.Flags().StringVarP(&listUser, "user", "u", "", "owning username (required)")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "maximum number of records (0 for all)")
	_ = listCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	a, cleanup, err := openApp(ctx, cfg, nil, true)
	if err != nil {
		return err
	}
	defer cleanup()

	principal := &siack.Principal{Subject: listUser}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tSIZE\tCREATED\tPATH")

	total := 0
	cursor := ""
	for {
		result, listErr := a.files.List(ctx, principal, siack.MaxListLimit, cursor)
		if listErr != nil {
			return fmt.Errorf("list %s: %w", listUser, listErr)
		}

		for _, rec := range result.Items {
			if listLimit > 0 && total >= listLimit {
				return w.Flush()
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
				rec.ID, rec.OriginalName, rec.Category, rec.Size,
				rec.CreatedAt.Format("2006-01-02 15:04:05"), rec.Path)
			total++
		}

		if result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}

	return w.Flush()
}
