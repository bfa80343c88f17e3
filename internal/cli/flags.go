package cli

import (
	"github.com/spf13/cobra"
)

// GlobalFlags holds global flag values
type GlobalFlags struct {
	ConfigFile string
	Verbose    bool
	Quiet      bool
	Output     string
	// Logging flags
	LogFile   string
	LogFormat string
	LogLevel  string
}

var globalFlags GlobalFlags

// AddGlobalFlags adds global flags to the root command
func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(
		&globalFlags.ConfigFile,
		"config",
		"",
		"config file (default is $HOME/.config/dedupnorris/config.yaml)",
	)
	cmd.PersistentFlags().BoolVarP(
		&globalFlags.Verbose,
		"verbose",
		"v",
		false,
		"verbose output (lists every path, logs to stderr when no log file is set)",
	)
	cmd.PersistentFlags().BoolVarP(
		&globalFlags.Quiet,
		"quiet",
		"q",
		false,
		"suppress non-error output",
	)
	cmd.PersistentFlags().StringVarP(&globalFlags.Output, "output", "o", "", "output format: human, json")
	cmd.PersistentFlags().StringVar(&globalFlags.LogFile, "log-file", "", "write logs to file (enables logging)")
	cmd.PersistentFlags().StringVar(&globalFlags.LogFormat, "log-format", "", "log format: text, json")
	cmd.PersistentFlags().StringVar(&globalFlags.LogLevel, "log-level", "", "log level: debug, info, warn, error")
}

// GetGlobalFlags returns the global flags
func GetGlobalFlags() *GlobalFlags {
	return &globalFlags
}

// RunFlags holds the flags shared by the pipeline commands
type RunFlags struct {
	Parallel         int
	Hash             string
	Bandwidth        string
	ExcludeExt       []string
	Exclude          []string
	SkipNameContains []string
	InternalPattern  string
	SuffixPolicy     string
	CopyFallback     bool
	Verify           bool
	CreateDest       bool
	AbortOnError     bool
	GracePeriod      string
	DryRun           bool
	Report           string
	FailureReport    string
	FailureFormat    string
}

// flag groups, set per command
type flagSet uint8

const (
	flagsHash flagSet = 1 << iota
	flagsMove
	flagsClassify
	flagsReport
	flagsMutating
	flagsPurge
)

func addRunFlags(cmd *cobra.Command, f *RunFlags, groups flagSet) {
	flags := cmd.Flags()

	flags.StringSliceVar(&f.ExcludeExt, "exclude-ext", nil, "file extensions to skip, case-insensitive (default: json)")
	flags.StringSliceVar(&f.Exclude, "exclude", nil, "glob patterns to exclude")
	flags.StringSliceVar(&f.SkipNameContains, "skip-name-contains", nil, "skip files whose name contains any of these strings")

	if groups&flagsHash != 0 {
		flags.IntVarP(&f.Parallel, "parallel", "p", 0, "number of parallel workers (default: 8)")
		flags.StringVar(&f.Hash, "hash", "", "content digest: md5, sha256, murmur3 (default: md5)")
		flags.StringVarP(&f.Bandwidth, "bandwidth", "b", "", "read bandwidth limit (e.g., \"10M\", \"1G\")")
		flags.BoolVar(&f.AbortOnError, "abort-on-error", false, "cancel remaining tasks after the first failure")
		flags.StringVar(&f.GracePeriod, "grace-period", "", "how long to wait for in-flight tasks after cancellation (e.g., \"10s\")")
		flags.StringVar(&f.FailureReport, "failure-report", "", "write per-file failures to file")
		flags.StringVar(&f.FailureFormat, "failure-format", "", "failure report format: human, json")
	}
	if groups&flagsMove != 0 {
		flags.StringVar(&f.SuffixPolicy, "suffix-policy", "", "colliding file names: all (suffix every member) or rest (keep the first)")
		flags.BoolVar(&f.CopyFallback, "copy-fallback", false, "copy then delete when a move crosses filesystems")
		flags.BoolVar(&f.CreateDest, "create-dest", false, "create destination directory if it doesn't exist")
	}
	if groups&flagsClassify != 0 {
		flags.StringVar(&f.InternalPattern, "internal-pattern", "", "regular expression matching internal folder names")
	}
	if groups&flagsReport != 0 {
		flags.StringVar(&f.Report, "report", "", "path report file (default: ./onlyAsExternalFileAvailable.txt)")
	}
	if groups&flagsPurge != 0 {
		flags.BoolVar(&f.Verify, "verify", false, "compare files byte by byte before deleting")
	}
	if groups&flagsMutating != 0 {
		flags.BoolVar(&f.DryRun, "dry-run", false, "plan only, don't touch any file")
	}
}
