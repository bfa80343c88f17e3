package scan

import (
	"path/filepath"
	"strings"
)

// Filter decides which scanned files are kept
type Filter struct {
	// ExcludeExtensions are compared case-insensitively, without the dot
	ExcludeExtensions []string
	// SkipNameContains drops files whose name contains any of the substrings
	SkipNameContains []string
	// ExcludePatterns are glob patterns matched against the relative path
	ExcludePatterns []string
}

// Excludes reports whether the file at relativePath should be dropped
func (f Filter) Excludes(relativePath, ext string) bool {
	for _, x := range f.ExcludeExtensions {
		if strings.EqualFold(strings.TrimPrefix(x, "."), ext) {
			return true
		}
	}

	name := filepath.Base(relativePath)
	for _, s := range f.SkipNameContains {
		if s != "" && strings.Contains(name, s) {
			return true
		}
	}

	return shouldExclude(relativePath, f.ExcludePatterns)
}

// shouldExclude checks if a path should be excluded based on the given patterns
// Patterns support:
//   - Simple glob patterns: *.tmp, *.MP
//   - Directory patterns: .trash/, @eaDir/
//   - Path patterns: Trash/*, **/thumbs/*
func shouldExclude(relativePath string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}

	normalizedPath := filepath.ToSlash(relativePath)
	baseName := filepath.Base(relativePath)

	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}

		normalizedPattern := filepath.ToSlash(pattern)

		// Directory pattern: matches the directory at any depth
		if dirPattern, ok := strings.CutSuffix(normalizedPattern, "/"); ok {
			if strings.HasPrefix(normalizedPath, dirPattern+"/") ||
				normalizedPath == dirPattern ||
				strings.Contains(normalizedPath, "/"+dirPattern+"/") {
				return true
			}
			continue
		}

		// **/suffix matches suffix at any depth
		if suffix, ok := strings.CutPrefix(normalizedPattern, "**/"); ok {
			if matchGlob(baseName, suffix) ||
				strings.HasSuffix(normalizedPath, "/"+suffix) || normalizedPath == suffix ||
				matchGlobTail(normalizedPath, suffix) {
				return true
			}
			continue
		}

		if strings.Contains(normalizedPattern, "/") {
			// Pattern applies to full path
			if matched, _ := filepath.Match(normalizedPattern, normalizedPath); matched {
				return true
			}
			if matchGlobTail(normalizedPath, normalizedPattern) {
				return true
			}
		} else if matchGlob(baseName, normalizedPattern) {
			return true
		}
	}

	return false
}

// matchGlob performs simple glob matching on a single path component
func matchGlob(name, pattern string) bool {
	matched, _ := filepath.Match(pattern, name)
	return matched
}

// matchGlobTail matches pattern against every trailing sub-path of path, so
// "thumbs/*" matches "album/thumbs/a.jpg"
func matchGlobTail(path, pattern string) bool {
	parts := strings.Split(path, "/")
	depth := strings.Count(pattern, "/") + 1
	for i := 0; i+depth <= len(parts); i++ {
		candidate := strings.Join(parts[i:i+depth], "/")
		if matched, _ := filepath.Match(pattern, candidate); matched {
			return true
		}
	}
	return false
}
