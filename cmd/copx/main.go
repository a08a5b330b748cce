package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ravenfield/copx/cmd/copx/commands"
	"github.com/ravenfield/copx/logger"
)

var jsonLogs bool

var rootCmd = &cobra.Command{
	Use:   "copx",
	Short: "COPX - Common operating picture for multi-source intelligence",
	Long: `COPX - Common operating picture for multi-source intelligence.

COPX ingests SIGINT, HUMINT and SOCMINT reports, walks them through a
review workflow, fuses corroborating reports into events, and serves the
picture over HTTP and WebSocket with clearance-aware access control.

Available commands:
  serve - Start the COPX server
  db    - Database operations (migrate, bootstrap)
  fuse  - Run one fusion pass over approved reports
  users - Manage users

Examples:
  copx db migrate                          # Create or upgrade the database
  copx db bootstrap --username cmdr        # Create the first HQ user
  copx serve                               # Start the server
  copx fuse                                # One-shot fusion pass`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Initialize(jsonLogs); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Emit logs as JSON instead of console output")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.FuseCmd)
	rootCmd.AddCommand(commands.UsersCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
