package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dakgu/siack/config"
	"github.com/dakgu/siack/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the metadata tables",
	Long: `Create the users and files tables if they do not exist and validate
their schema. This is useful when:
  - Setting up siack against a fresh database
  - Checking that an existing database matches the expected schema
  - Using custom table names from database.tables`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	if err := database.Migrate(cmd.Context(), cfg.Database); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	slog.Info("migration complete",
		"type", cfg.Database.Type,
		"files_table", cfg.Database.Tables.Files,
		"users_table", cfg.Database.Tables.Users,
	)
	return nil
}
