package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for xmlmerge.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xmlmerge",
		Short: "Merge XML product feeds and publish the catalog",
		Long: `xmlmerge fetches XML product feeds, merges every product element into
one <products> catalog and publishes the result.

Sources that fail to download or parse are skipped with a warning. The run
aborts without publishing when no source is valid.

The catalog is uploaded over FTP by default. S3 compatible object storage and
a local directory are also supported as destinations.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs to stderr as JSON")

	// Add subcommands
	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
