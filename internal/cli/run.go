package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sdejongh/dedupnorris/pkg/config"
	"github.com/sdejongh/dedupnorris/pkg/logging"
	"github.com/sdejongh/dedupnorris/pkg/models"
	"github.com/sdejongh/dedupnorris/pkg/output"
	"github.com/sdejongh/dedupnorris/pkg/pipeline"
)

// NewReorganizeCommand creates the reorganize command
func NewReorganizeCommand() *cobra.Command {
	return newRunCommand(models.ModeReorganize, &cobra.Command{
		Use:   "reorganize <sourceDir> <destDir>",
		Short: "Move unique photos into year/month folders",
		Long: `Hash every file under sourceDir, keep one copy per content and move it to
destDir/<yyyy>/<MM>/ using the EXIF capture date. Files without a capture date
and duplicate copies are left in place.`,
		Args: cobra.ExactArgs(2),
	}, flagsHash|flagsMove|flagsMutating)
}

// NewDedupeFlatCommand creates the dedupe-flat command
func NewDedupeFlatCommand() *cobra.Command {
	return newRunCommand(models.ModeDedupeFlat, &cobra.Command{
		Use:   "dedupe-flat <sourceDir> <destDir>",
		Short: "Move unique files into one flat folder",
		Long: `Hash every file under sourceDir, keep one copy per content and move it
directly into destDir. Colliding file names get a numeric suffix.`,
		Args: cobra.ExactArgs(2),
	}, flagsHash|flagsMove|flagsMutating)
}

// NewAuditSidecarsCommand creates the audit-sidecars command
func NewAuditSidecarsCommand() *cobra.Command {
	return newRunCommand(models.ModeAuditSidecars, &cobra.Command{
		Use:   "audit-sidecars <sourceDir>",
		Short: "Report media files without a JSON sidecar",
		Long: `Count media files with and without a "<name>.json" metadata file next to
them. Use --verbose to list the files missing one. Nothing is modified.`,
		Args: cobra.ExactArgs(1),
	}, 0)
}

// NewCrossFolderAuditCommand creates the cross-folder-audit command
func NewCrossFolderAuditCommand() *cobra.Command {
	return newRunCommand(models.ModeCrossFolderAudit, &cobra.Command{
		Use:   "cross-folder-audit <sourceDir>",
		Short: "List files that only exist outside the album folders",
		Long: `Split the export into internal files (inside folders matching
--internal-pattern, "Photos from <year>" by default) and external files, and
write every external file without an identical internal copy to
onlyAsExternalFileAvailable.txt. Nothing is modified.`,
		Args: cobra.ExactArgs(1),
	}, flagsHash|flagsClassify|flagsReport)
}

// NewCrossFolderPurgeCommand creates the cross-folder-purge command
func NewCrossFolderPurgeCommand() *cobra.Command {
	return newRunCommand(models.ModeCrossFolderPurge, &cobra.Command{
		Use:   "cross-folder-purge <sourceDir>",
		Short: "Delete external files that also exist in an album folder",
		Long: `Run cross-folder-audit, then delete every external file that has an
identical internal copy (same name and content), together with its JSON sidecar.`,
		Args: cobra.ExactArgs(1),
	}, flagsHash|flagsClassify|flagsReport|flagsMutating|flagsPurge)
}

func newRunCommand(mode models.RunMode, cmd *cobra.Command, groups flagSet) *cobra.Command {
	flags := &RunFlags{}
	addRunFlags(cmd, flags, groups)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		report, err := execute(cmd.Context(), mode, args, flags, os.Stdout)
		if err != nil {
			return err
		}

		// Exit with appropriate code
		if code := report.Status.ExitCode(); code != 0 {
			os.Exit(code)
		}
		return nil
	}
	return cmd
}

// execute validates the arguments, builds the engine and runs one operation.
// Returned errors are setup errors; per-file failures are in the report.
func execute(ctx context.Context, mode models.RunMode, args []string, flags *RunFlags, stdout io.Writer) (*models.RunReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := validateArgs(mode, args, flags); err != nil {
		return nil, err
	}

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with command-line flags
	if err := applyFlagsToConfig(cfg, flags); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	operation, err := createOperation(cfg, mode, args, flags)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation: %w", err)
	}

	formatter, heartbeat := createFormatter(cfg, stdout)

	logger, err := createLogger(cfg.Logging, globalFlags.Verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	engine, err := pipeline.NewEngine(operation, formatter, logger, pipeline.Options{Heartbeat: heartbeat})
	if err != nil {
		return nil, err
	}

	if err := createDestination(operation, flags); err != nil {
		return nil, err
	}

	report, err := engine.Run(ctx)
	if err != nil {
		formatter.Error(err)
		return nil, fmt.Errorf("%s failed: %w", mode, err)
	}

	if cfg.Report.FailureReport != "" {
		if err := output.WriteFailureReport(report, cfg.Report.FailureReport, cfg.Report.FailureFormat); err != nil {
			return report, fmt.Errorf("failed to write failure report: %w", err)
		}
	}

	return report, nil
}

// createFormatter picks the console formatter and its heartbeat interval
func createFormatter(cfg *config.Config, stdout io.Writer) (output.Formatter, time.Duration) {
	switch {
	case cfg.Output.Format == "json":
		return output.NewJSONFormatter(stdout), 0
	case cfg.Output.Quiet:
		return output.NewHumanFormatter(io.Discard, false), 0
	case cfg.Output.Progress && isTerminal(stdout):
		return output.NewProgressFormatter(stdout), output.HeartbeatInterval()
	default:
		return output.NewHumanFormatter(stdout, globalFlags.Verbose), cfg.Output.HeartbeatInterval
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// createLogger creates a logger based on configuration
func createLogger(cfg config.LoggingConfig, verbose bool) (logging.Logger, error) {
	level := logging.ParseLevel(cfg.Level)
	format := logging.ParseFormat(cfg.Format)

	if cfg.File == "" {
		// Without a log file, --verbose sends the log to stderr
		if verbose {
			return logging.NewConsoleLogger(os.Stderr, level, format), nil
		}
		return logging.NewNullLogger(), nil
	}

	return logging.NewFileLogger(logging.FileLoggerConfig{
		Path:       cfg.File,
		Format:     format,
		Level:      level,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
	})
}
