package config

import (
	"time"

	"github.com/sdejongh/dedupnorris/pkg/classify"
	"github.com/sdejongh/dedupnorris/pkg/models"
	"github.com/sdejongh/dedupnorris/pkg/ratelimit"
)

// Config represents the application configuration
type Config struct {
	Scan        ScanConfig        `yaml:"scan"`
	Hash        HashConfig        `yaml:"hash"`
	Classify    ClassifyConfig    `yaml:"classify"`
	Move        MoveConfig        `yaml:"move"`
	Performance PerformanceConfig `yaml:"performance"`
	Output      OutputConfig      `yaml:"output"`
	Logging     LoggingConfig     `yaml:"logging"`
	Report      ReportConfig      `yaml:"report"`
}

// ScanConfig holds the scan filters
type ScanConfig struct {
	ExcludeExtensions []string `yaml:"exclude_extensions"`
	SkipNameContains  []string `yaml:"skip_name_contains"`
	ExcludePatterns   []string `yaml:"exclude_patterns"`
}

// HashConfig holds content digest settings
type HashConfig struct {
	Algorithm  models.HashAlgorithm `yaml:"algorithm"`   // "md5", "sha256" or "murmur3"
	BufferSize int                  `yaml:"buffer_size"` // read buffer in bytes
}

// ClassifyConfig holds the internal/external partition settings
type ClassifyConfig struct {
	InternalPattern string `yaml:"internal_pattern"`
	// VerifyBeforeDelete compares both files byte by byte before a purge deletes one
	VerifyBeforeDelete bool `yaml:"verify_before_delete"`
}

// MoveConfig holds move mode settings
type MoveConfig struct {
	SuffixPolicy models.SuffixPolicy `yaml:"suffix_policy"` // "all" or "rest"
	CopyFallback bool                `yaml:"copy_fallback"` // copy+delete across filesystems
}

// PerformanceConfig holds performance-related settings
type PerformanceConfig struct {
	MaxWorkers   int           `yaml:"max_workers"`
	Bandwidth    string        `yaml:"bandwidth"` // e.g. "10M", empty = unlimited
	GracePeriod  time.Duration `yaml:"grace_period"`
	AbortOnError bool          `yaml:"abort_on_error"`
}

// OutputConfig holds output-related settings
type OutputConfig struct {
	Format            string        `yaml:"format"`   // "human" or "json"
	Progress          bool          `yaml:"progress"` // Show progress bars
	Quiet             bool          `yaml:"quiet"`    // Suppress non-error output
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	File       string `yaml:"file"`   // Log file path (empty = no file log)
	Format     string `yaml:"format"` // "json" or "text"
	Level      string `yaml:"level"`  // "debug", "info", "warn", "error"
	MaxSize    int64  `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
}

// ReportConfig holds report file locations
type ReportConfig struct {
	Path          string `yaml:"path"`           // path report, empty = ./onlyAsExternalFileAvailable.txt
	FailureReport string `yaml:"failure_report"` // empty = none
	FailureFormat string `yaml:"failure_format"` // "human" or "json"
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Scan: ScanConfig{
			ExcludeExtensions: []string{"json"},
		},
		Hash: HashConfig{
			Algorithm:  models.HashMD5,
			BufferSize: 65536,
		},
		Classify: ClassifyConfig{
			InternalPattern: classify.DefaultPattern,
		},
		Move: MoveConfig{
			SuffixPolicy: models.SuffixAll,
			CopyFallback: false,
		},
		Performance: PerformanceConfig{
			MaxWorkers:  8,
			GracePeriod: 10 * time.Second,
		},
		Output: OutputConfig{
			Format:            "human",
			Progress:          true,
			HeartbeatInterval: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Format:     "text",
			Level:      "info",
			MaxSize:    10 * 1024 * 1024, // 10 MB
			MaxBackups: 5,
		},
		Report: ReportConfig{
			FailureFormat: "human",
		},
	}
}

// BandwidthLimit returns the parsed bandwidth in bytes per second
func (c *Config) BandwidthLimit() (int64, error) {
	limit, err := ratelimit.ParseBandwidth(c.Performance.Bandwidth)
	if err != nil {
		return 0, &models.ValidationError{
			Field:   "performance.bandwidth",
			Message: err.Error(),
		}
	}
	return limit, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Hash.Algorithm {
	case models.HashMD5, models.HashSHA256, models.HashMurmur3:
	default:
		return &models.ValidationError{
			Field:   "hash.algorithm",
			Message: "must be 'md5', 'sha256', or 'murmur3'",
		}
	}

	if c.Hash.BufferSize < 1024 {
		return &models.ValidationError{
			Field:   "hash.buffer_size",
			Message: "must be at least 1024 bytes",
		}
	}

	if _, err := classify.New(c.Classify.InternalPattern); err != nil {
		return err
	}

	if c.Move.SuffixPolicy != models.SuffixAll && c.Move.SuffixPolicy != models.SuffixRest {
		return &models.ValidationError{
			Field:   "move.suffix_policy",
			Message: "must be 'all' or 'rest'",
		}
	}

	if c.Performance.MaxWorkers < 1 {
		return &models.ValidationError{
			Field:   "performance.max_workers",
			Message: "must be at least 1",
		}
	}

	if _, err := c.BandwidthLimit(); err != nil {
		return err
	}

	if c.Performance.GracePeriod < 0 {
		return &models.ValidationError{
			Field:   "performance.grace_period",
			Message: "cannot be negative",
		}
	}

	validFormats := map[string]bool{"human": true, "json": true}
	if !validFormats[c.Output.Format] {
		return &models.ValidationError{
			Field:   "output.format",
			Message: "must be 'human' or 'json'",
		}
	}

	if c.Output.HeartbeatInterval < 0 {
		return &models.ValidationError{
			Field:   "output.heartbeat_interval",
			Message: "cannot be negative",
		}
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return &models.ValidationError{
			Field:   "logging.format",
			Message: "must be 'json' or 'text'",
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return &models.ValidationError{
			Field:   "logging.level",
			Message: "must be 'debug', 'info', 'warn', or 'error'",
		}
	}

	if !validFormats[c.Report.FailureFormat] {
		return &models.ValidationError{
			Field:   "report.failure_format",
			Message: "must be 'human' or 'json'",
		}
	}

	return nil
}
