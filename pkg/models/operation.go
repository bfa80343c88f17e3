package models

import (
	"time"
)

// RunMode selects what a run does with the scanned tree
type RunMode string

const (
	// ModeReorganize moves unique files into year/month buckets by creation date
	ModeReorganize RunMode = "reorganize"
	// ModeDedupeFlat moves unique files into a flat destination
	ModeDedupeFlat RunMode = "dedupe-flat"
	// ModeAuditSidecars reports media files without a sidecar
	ModeAuditSidecars RunMode = "audit-sidecars"
	// ModeCrossFolderAudit reports content that only exists outside album folders
	ModeCrossFolderAudit RunMode = "cross-folder-audit"
	// ModeCrossFolderPurge deletes external copies of album content
	ModeCrossFolderPurge RunMode = "cross-folder-purge"
)

// IsMove reports whether the mode moves files
func (m RunMode) IsMove() bool {
	return m == ModeReorganize || m == ModeDedupeFlat
}

// NeedsDestination reports whether the mode requires a destination directory
func (m RunMode) NeedsDestination() bool {
	return m.IsMove()
}

// HashAlgorithm names the content digest used to detect identical files
type HashAlgorithm string

const (
	// HashMD5 is the default digest
	HashMD5 HashAlgorithm = "md5"
	// HashSHA256 uses the SIMD accelerated SHA-256 implementation
	HashSHA256 HashAlgorithm = "sha256"
	// HashMurmur3 is a fast non-cryptographic 128-bit digest
	HashMurmur3 HashAlgorithm = "murmur3"
)

// SuffixPolicy defines how colliding filenames are disambiguated
type SuffixPolicy string

const (
	// SuffixAll appends _<index> to every member of a colliding group
	SuffixAll SuffixPolicy = "all"
	// SuffixRest keeps the first member unchanged and suffixes the others
	SuffixRest SuffixPolicy = "rest"
)

// RunOperation represents the configuration of a single invocation
type RunOperation struct {
	ID                string
	Mode              RunMode
	SourcePath        string
	DestPath          string
	DryRun            bool
	HashAlgorithm     HashAlgorithm
	ExcludeExtensions []string
	ExcludePatterns   []string
	SkipNameContains  []string
	InternalPattern   string
	SuffixPolicy      SuffixPolicy
	CopyFallback      bool
	Verify            bool // byte comparison before purge deletions
	AbortOnError      bool
	MaxWorkers        int
	BufferSize        int
	BandwidthLimit    int64 // bytes per second, 0 = unlimited
	GracePeriod       time.Duration
	ReportPath        string
	CreatedAt         time.Time
}

// Validate checks if the operation configuration is valid
func (op *RunOperation) Validate() error {
	switch op.Mode {
	case ModeReorganize, ModeDedupeFlat, ModeAuditSidecars, ModeCrossFolderAudit, ModeCrossFolderPurge:
	default:
		return &ValidationError{Field: "Mode", Message: "unknown mode " + string(op.Mode)}
	}
	if op.SourcePath == "" {
		return &ValidationError{Field: "SourcePath", Message: "source path is required"}
	}
	if op.Mode.NeedsDestination() && op.DestPath == "" {
		return &ValidationError{Field: "DestPath", Message: "destination path is required"}
	}
	switch op.HashAlgorithm {
	case HashMD5, HashSHA256, HashMurmur3:
	default:
		return &ValidationError{Field: "HashAlgorithm", Message: "unsupported hash " + string(op.HashAlgorithm)}
	}
	switch op.SuffixPolicy {
	case SuffixAll, SuffixRest:
	default:
		return &ValidationError{Field: "SuffixPolicy", Message: "must be 'all' or 'rest'"}
	}
	if op.MaxWorkers < 1 {
		return &ValidationError{Field: "MaxWorkers", Message: "max workers must be at least 1"}
	}
	if op.BufferSize < 1024 {
		return &ValidationError{Field: "BufferSize", Message: "buffer size must be at least 1024 bytes"}
	}
	if op.GracePeriod < 0 {
		return &ValidationError{Field: "GracePeriod", Message: "grace period cannot be negative"}
	}
	return nil
}
