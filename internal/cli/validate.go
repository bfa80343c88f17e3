package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/sdejongh/dedupnorris/internal/platform"
	"github.com/sdejongh/dedupnorris/pkg/config"
	"github.com/sdejongh/dedupnorris/pkg/models"
)

// validateArgs checks the directory arguments of a pipeline command
func validateArgs(mode models.RunMode, args []string, f *RunFlags) error {
	source := args[0]
	if err := platform.ValidatePath(source); err != nil {
		return err
	}
	if err := requireDir("source", source); err != nil {
		return err
	}

	if !mode.NeedsDestination() {
		return nil
	}

	dest := args[1]
	if err := platform.ValidatePath(dest); err != nil {
		return err
	}

	destInfo, err := os.Stat(dest)
	if os.IsNotExist(err) {
		if !f.CreateDest {
			return fmt.Errorf("destination path does not exist: %s (use --create-dest to create it)", dest)
		}
	} else if err != nil {
		return fmt.Errorf("failed to access destination path: %w", err)
	} else if !destInfo.IsDir() {
		return fmt.Errorf("destination %s: %w", dest, models.ErrNotADirectory)
	}

	sourceAbs, err := filepath.Abs(source)
	if err != nil {
		return fmt.Errorf("failed to resolve source path: %w", err)
	}
	destAbs, err := filepath.Abs(dest)
	if err != nil {
		return fmt.Errorf("failed to resolve destination path: %w", err)
	}

	if sourceAbs == destAbs {
		return fmt.Errorf("source and destination cannot be the same: %s", sourceAbs)
	}
	// A destination inside the source would be rescanned on the next run
	if platform.IsWithin(destAbs, sourceAbs) {
		return fmt.Errorf("destination cannot be inside source directory")
	}
	if platform.IsWithin(sourceAbs, destAbs) {
		return fmt.Errorf("source cannot be inside destination directory")
	}

	return nil
}

// createDestination makes the destination directory for --create-dest. It runs
// once every other check passed, so a rejected run leaves nothing behind.
func createDestination(operation *models.RunOperation, f *RunFlags) error {
	if !operation.Mode.NeedsDestination() || !f.CreateDest {
		return nil
	}
	if err := os.MkdirAll(operation.DestPath, 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}
	return nil
}

func requireDir(label, path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s path does not exist: %s", label, path)
	}
	if err != nil {
		return fmt.Errorf("failed to access %s path: %w", label, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s %s: %w", label, path, models.ErrNotADirectory)
	}
	return nil
}

// loadConfig loads configuration from file or returns default
func loadConfig() (*config.Config, error) {
	if globalFlags.ConfigFile != "" {
		return config.LoadFromFile(globalFlags.ConfigFile)
	}
	return config.LoadDefault()
}

// applyFlagsToConfig overrides config values with command-line flags
func applyFlagsToConfig(cfg *config.Config, f *RunFlags) error {
	// Scan filters
	if len(f.ExcludeExt) > 0 {
		cfg.Scan.ExcludeExtensions = f.ExcludeExt
	}
	if len(f.Exclude) > 0 {
		cfg.Scan.ExcludePatterns = f.Exclude
	}
	if len(f.SkipNameContains) > 0 {
		cfg.Scan.SkipNameContains = f.SkipNameContains
	}

	if f.Hash != "" {
		cfg.Hash.Algorithm = models.HashAlgorithm(f.Hash)
	}
	if f.InternalPattern != "" {
		cfg.Classify.InternalPattern = f.InternalPattern
	}
	if f.Verify {
		cfg.Classify.VerifyBeforeDelete = true
	}
	if f.SuffixPolicy != "" {
		cfg.Move.SuffixPolicy = models.SuffixPolicy(f.SuffixPolicy)
	}
	if f.CopyFallback {
		cfg.Move.CopyFallback = true
	}

	// Parallel workers (default: 8)
	if f.Parallel > 0 {
		cfg.Performance.MaxWorkers = f.Parallel
	} else if cfg.Performance.MaxWorkers == 0 {
		cfg.Performance.MaxWorkers = 8
	}
	if f.Bandwidth != "" {
		cfg.Performance.Bandwidth = f.Bandwidth
	}
	if f.AbortOnError {
		cfg.Performance.AbortOnError = true
	}
	if f.GracePeriod != "" {
		d, err := time.ParseDuration(f.GracePeriod)
		if err != nil {
			return &models.ValidationError{Field: "grace-period", Message: err.Error()}
		}
		cfg.Performance.GracePeriod = d
	}

	if f.Report != "" {
		cfg.Report.Path = f.Report
	}
	if f.FailureReport != "" {
		cfg.Report.FailureReport = f.FailureReport
	}
	if f.FailureFormat != "" {
		cfg.Report.FailureFormat = f.FailureFormat
	}

	// Output format
	if globalFlags.Output != "" {
		cfg.Output.Format = globalFlags.Output
	}

	// Disable progress in quiet mode
	if globalFlags.Quiet {
		cfg.Output.Progress = false
		cfg.Output.Quiet = true
	}

	// Logging
	if globalFlags.LogFile != "" {
		cfg.Logging.File = globalFlags.LogFile
	}
	if globalFlags.LogFormat != "" {
		cfg.Logging.Format = globalFlags.LogFormat
	}
	if globalFlags.LogLevel != "" {
		cfg.Logging.Level = globalFlags.LogLevel
	}

	return cfg.Validate()
}

// createOperation creates a run operation from configuration
func createOperation(cfg *config.Config, mode models.RunMode, args []string, f *RunFlags) (*models.RunOperation, error) {
	bandwidth, err := cfg.BandwidthLimit()
	if err != nil {
		return nil, err
	}

	operation := &models.RunOperation{
		ID:                uuid.New().String(),
		Mode:              mode,
		SourcePath:        args[0],
		DryRun:            f.DryRun,
		HashAlgorithm:     cfg.Hash.Algorithm,
		ExcludeExtensions: cfg.Scan.ExcludeExtensions,
		ExcludePatterns:   cfg.Scan.ExcludePatterns,
		SkipNameContains:  cfg.Scan.SkipNameContains,
		InternalPattern:   cfg.Classify.InternalPattern,
		SuffixPolicy:      cfg.Move.SuffixPolicy,
		CopyFallback:      cfg.Move.CopyFallback,
		Verify:            cfg.Classify.VerifyBeforeDelete,
		AbortOnError:      cfg.Performance.AbortOnError,
		MaxWorkers:        cfg.Performance.MaxWorkers,
		BufferSize:        cfg.Hash.BufferSize,
		BandwidthLimit:    bandwidth,
		GracePeriod:       cfg.Performance.GracePeriod,
		ReportPath:        cfg.Report.Path,
		CreatedAt:         time.Now(),
	}
	if mode.NeedsDestination() {
		operation.DestPath = args[1]
	}

	if err := operation.Validate(); err != nil {
		return nil, err
	}

	return operation, nil
}
