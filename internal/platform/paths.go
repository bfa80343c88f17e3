package platform

import (
	"path/filepath"
	"runtime"
	"strings"
)

// NormalizePath normalizes a path for the current platform
func NormalizePath(path string) string {
	// Convert to platform-specific separators
	normalized := filepath.Clean(path)

	// On Windows, ensure UNC paths are preserved
	if runtime.GOOS == "windows" {
		if strings.HasPrefix(path, "\\\\") && !strings.HasPrefix(normalized, "\\\\") {
			normalized = "\\\\" + normalized
		}
	}

	return normalized
}

// IsUNCPath checks if a path is a UNC path (Windows network share)
func IsUNCPath(path string) bool {
	if runtime.GOOS != "windows" {
		return false
	}
	return strings.HasPrefix(path, "\\\\") || strings.HasPrefix(path, "//")
}

// SplitName splits a file name at its last dot.
// "IMG_01.jpg" -> ("IMG_01", "jpg"), "archive.tar.gz" -> ("archive.tar", "gz"),
// "README" -> ("README", "").
func SplitName(name string) (stem, ext string) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return name, ""
	}
	return name[:i], name[i+1:]
}

// DirSegments returns the directory components of a relative path,
// excluding the file name itself
func DirSegments(relativePath string) []string {
	dir := filepath.Dir(filepath.ToSlash(relativePath))
	if dir == "." || dir == "/" || dir == "" {
		return nil
	}
	parts := strings.Split(filepath.ToSlash(dir), "/")
	segments := parts[:0]
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

// IsWithin reports whether path equals base or lies below it.
// Both paths must be absolute and cleaned.
func IsWithin(path, base string) bool {
	if path == base {
		return true
	}
	return strings.HasPrefix(path, base+string(filepath.Separator))
}

// ValidatePath checks if a path is valid for the current platform
func ValidatePath(path string) error {
	if path == "" {
		return &PathError{Path: path, Message: "path is empty"}
	}

	// Check for invalid characters based on OS
	if runtime.GOOS == "windows" {
		invalidChars := []string{"<", ">", "\"", "|", "?", "*"}
		for _, char := range invalidChars {
			if strings.Contains(path, char) && !IsUNCPath(path) {
				return &PathError{Path: path, Message: "path contains invalid character: " + char}
			}
		}
	}

	return nil
}

// PathError represents a path validation error
type PathError struct {
	Path    string
	Message string
}

func (e *PathError) Error() string {
	return "invalid path '" + e.Path + "': " + e.Message
}
