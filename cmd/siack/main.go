package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dakgu/siack/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "siack",
	Short:   "Image upload gateway with bearer token authentication",
	Long: `siack accepts image uploads from authenticated users, stores them on
the local filesystem or a remote SFTP host, and records their metadata in
SQLite or PostgreSQL.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		if path, _ := cmd.Flags().GetString("config"); path != "" {
			files = []string{path}
		}

		cfg, err := config.Load(files, cmd.Flags())
		if err != nil {
			return err
		}

		setupLogging(cfg)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("db-type", "", "database type: sqlite, postgres (default: sqlite, env: SIACK_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database connection string (default: siack.db, env: SIACK_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("storage-backend", "", "storage backend: local, remote (default: local, env: SIACK_STORAGE_BACKEND)")
	rootCmd.PersistentFlags().String("storage-path", "", "local storage directory (default: ./data, env: SIACK_STORAGE_LOCAL_PATH)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: SIACK_LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
