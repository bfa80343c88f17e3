package models

import (
	"time"
)

// FileEntry represents a media file discovered in a scanned tree
type FileEntry struct {
	// Path is the full path on the filesystem at scan time
	Path string

	// RelativePath is the path relative to the scan root
	RelativePath string

	// Stem is the filename without its last extension
	Stem string

	// Ext is the filename extension without the leading dot
	Ext string

	// Size in bytes (filled by the hasher)
	Size int64

	// Hash is the hex content digest (filled by the hasher)
	Hash string

	// CreationDate is the on-media creation time, nil when unknown
	CreationDate *time.Time
}

// Filename returns the full file name (stem plus extension)
func (e *FileEntry) Filename() string {
	if e.Ext == "" {
		return e.Stem
	}
	return e.Stem + "." + e.Ext
}

// Hashed reports whether the entry has been through the hasher
func (e *FileEntry) Hashed() bool {
	return e.Hash != ""
}

// HasCreationDate reports whether a creation date was recovered
func (e *FileEntry) HasCreationDate() bool {
	return e.CreationDate != nil
}

// WithDigest returns a copy of the stub carrying size, hash and optional date.
// The receiver is left untouched so scan results stay valid.
func (e *FileEntry) WithDigest(size int64, hash string, created *time.Time) *FileEntry {
	hashed := *e
	hashed.Size = size
	hashed.Hash = hash
	if created != nil {
		t := *created
		hashed.CreationDate = &t
	}
	return &hashed
}

// Identity is the (filename, hash) key used to match copies across folders
type Identity struct {
	Filename string
	Hash     string
}

// Identity returns the matching key of the entry
func (e *FileEntry) Identity() Identity {
	return Identity{Filename: e.Filename(), Hash: e.Hash}
}

// Action represents the terminal operation applied to a file
type Action string

const (
	// ActionHash reads and digests the file
	ActionHash Action = "hash"
	// ActionMove renames the file into the destination tree
	ActionMove Action = "move"
	// ActionDelete removes the file and its sidecar
	ActionDelete Action = "delete"
	// ActionSkip leaves the file in place
	ActionSkip Action = "skip"
)

// FileOperation represents a planned or executed operation on one entry
type FileOperation struct {
	Entry       *FileEntry
	Action      Action
	Destination string
	Reason      string
	Error       error
	Duration    time.Duration
}
