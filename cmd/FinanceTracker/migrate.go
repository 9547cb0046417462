package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	database "github.com/sebuszqo/FinanceTracker/internal/db"
)

var (
	migrateDBURL  string
	rollbackSteps int
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(_ *cobra.Command, _ []string) error {
		url, err := migrationURL()
		if err != nil {
			return err
		}
		if err := database.RunMigrations(url); err != nil {
			return err
		}
		slog.Info("database migrations applied")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert the most recent migrations",
	RunE: func(_ *cobra.Command, _ []string) error {
		url, err := migrationURL()
		if err != nil {
			return err
		}
		if err := database.RollbackMigrations(url, rollbackSteps); err != nil {
			return err
		}
		slog.Info("database migrations rolled back", slog.Int("steps", rollbackSteps))
		return nil
	},
}

func init() {
	migrateCmd.PersistentFlags().StringVar(&migrateDBURL, "db", "", "Database URL (defaults to DB_CONNECTION_STRING)")
	migrateDownCmd.Flags().IntVar(&rollbackSteps, "steps", 1, "Number of migrations to revert")

	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)
}

// migrationURL only needs the database URL, so the rest of the server
// configuration is not required here.
func migrationURL() (string, error) {
	if migrateDBURL != "" {
		return migrateDBURL, nil
	}
	_ = godotenv.Load()
	if url := os.Getenv("DB_CONNECTION_STRING"); url != "" {
		return url, nil
	}
	return "", fmt.Errorf("no database URL: pass --db or set DB_CONNECTION_STRING")
}
