package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sdejongh/dedupnorris/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cli.Version, cli.Commit, cli.BuildDate = version, commit, date

	rootCmd := &cobra.Command{
		Use:   "dedupnorris",
		Short: "Deduplicate and reorganize a Google Photos export",
		Long: `dedupnorris cleans up an extracted Google Takeout photo archive.
It finds byte-identical files by content hash, moves one copy of each into a
date-bucketed or flat folder, audits JSON sidecars, and reports or removes
files that only duplicate the "Photos from <year>" album folders.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add global flags
	cli.AddGlobalFlags(rootCmd)

	// Add commands
	rootCmd.AddCommand(cli.NewReorganizeCommand())
	rootCmd.AddCommand(cli.NewDedupeFlatCommand())
	rootCmd.AddCommand(cli.NewAuditSidecarsCommand())
	rootCmd.AddCommand(cli.NewCrossFolderAuditCommand())
	rootCmd.AddCommand(cli.NewCrossFolderPurgeCommand())
	rootCmd.AddCommand(cli.NewConfigCommand())
	rootCmd.AddCommand(cli.NewVersionCommand())

	// Ctrl-C cancels the running batch like --abort-on-error does
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}
