package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "financetracker",
	Short: "Personal finance tracking API",
	Long: `FinanceTracker serves the personal finance API: accounts with password or
Google sign-in, per-user categories and income/expense transactions with
recurring schedules and summaries.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
