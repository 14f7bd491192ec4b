package cmd

import (
	"fmt"
	"os"

	"github.com/pydist/pydist/pkg/db"
	"github.com/spf13/cobra"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage database schema migrations",
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current migration version",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		version, dirty, err := db.MigrateVersion(cfg.GetDatabaseParams())
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to get schema version: %s\n", err)
			os.Exit(1)
		}
		fmt.Printf("version: %d, dirty: %t\n", version, dirty)
	},
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all up migrations",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		if err := db.MigrateUp(cfg.GetDatabaseParams()); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to migrate up: %s\n", err)
			os.Exit(1)
		}
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Apply all down migrations",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		if err := db.MigrateDown(cfg.GetDatabaseParams()); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to migrate down: %s\n", err)
			os.Exit(1)
		}
	},
}

//nolint:gochecknoinits
func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateVersionCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}
