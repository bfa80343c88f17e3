package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sdejongh/dedupnorris/pkg/config"
)

// NewConfigCommand creates the config command
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `View or create the dedupnorris configuration file.`,
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigInitCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			printConfig(cmd.OutOrStdout(), cfg)
			return nil
		},
	}
}

func printConfig(w io.Writer, cfg *config.Config) {
	bandwidth := "unlimited"
	if limit, err := cfg.BandwidthLimit(); err == nil && limit > 0 {
		bandwidth = humanize.Bytes(uint64(limit)) + "/s"
	}

	fmt.Fprintf(w, "Excluded Extensions: %s\n", strings.Join(cfg.Scan.ExcludeExtensions, ", "))
	fmt.Fprintf(w, "Excluded Patterns: %s\n", strings.Join(cfg.Scan.ExcludePatterns, ", "))
	fmt.Fprintf(w, "Skipped Name Parts: %s\n", strings.Join(cfg.Scan.SkipNameContains, ", "))
	fmt.Fprintf(w, "Hash Algorithm: %s\n", cfg.Hash.Algorithm)
	fmt.Fprintf(w, "Internal Pattern: %s\n", cfg.Classify.InternalPattern)
	fmt.Fprintf(w, "Verify Before Delete: %t\n", cfg.Classify.VerifyBeforeDelete)
	fmt.Fprintf(w, "Suffix Policy: %s\n", cfg.Move.SuffixPolicy)
	fmt.Fprintf(w, "Copy Fallback: %t\n", cfg.Move.CopyFallback)
	fmt.Fprintf(w, "Max Workers: %d\n", cfg.Performance.MaxWorkers)
	fmt.Fprintf(w, "Bandwidth: %s\n", bandwidth)
	fmt.Fprintf(w, "Grace Period: %s\n", cfg.Performance.GracePeriod)
	fmt.Fprintf(w, "Abort On Error: %t\n", cfg.Performance.AbortOnError)
	fmt.Fprintf(w, "Output Format: %s\n", cfg.Output.Format)
	fmt.Fprintf(w, "Log Format: %s\n", cfg.Logging.Format)
	fmt.Fprintf(w, "Log Level: %s\n", cfg.Logging.Level)
}

func newConfigInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := globalFlags.ConfigFile
			if path == "" {
				var err error
				if path, err = config.DefaultConfigPath(); err != nil {
					return err
				}
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
			}

			if err := config.SaveToFile(config.Default(), path); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created at: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration file")

	return cmd
}
