// Package classify separates album ("internal") copies from the rest of an
// export and matches external files against them.
package classify

import (
	"fmt"
	"regexp"

	"github.com/sdejongh/dedupnorris/internal/platform"
	"github.com/sdejongh/dedupnorris/pkg/models"
)

// DefaultPattern matches the year folders of a Google Photos export
const DefaultPattern = `^Photos from \d{4}$`

// Classifier decides whether an entry lives in an internal folder
type Classifier struct {
	pattern *regexp.Regexp
}

// New compiles pattern. An empty pattern selects DefaultPattern.
func New(pattern string) (*Classifier, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &models.ValidationError{
			Field:   "classify.internal_pattern",
			Message: fmt.Sprintf("invalid regular expression: %v", err),
		}
	}
	return &Classifier{pattern: re}, nil
}

// Pattern returns the compiled expression source
func (c *Classifier) Pattern() string {
	return c.pattern.String()
}

// IsInternal reports whether any directory segment of the relative path
// matches the pattern
func (c *Classifier) IsInternal(e *models.FileEntry) bool {
	for _, seg := range platform.DirSegments(e.RelativePath) {
		if c.pattern.MatchString(seg) {
			return true
		}
	}
	return false
}

// Partition splits entries into internal and external, preserving order
func (c *Classifier) Partition(entries []*models.FileEntry) (internal, external []*models.FileEntry) {
	for _, e := range entries {
		if c.IsInternal(e) {
			internal = append(internal, e)
		} else {
			external = append(external, e)
		}
	}
	return internal, external
}

// Match pairs an external entry with an internal copy of the same name and content
type Match struct {
	External *models.FileEntry
	Internal *models.FileEntry
}

// Result splits the external entries by whether an internal copy exists
type Result struct {
	OnlyExternal  []*models.FileEntry
	PresentInBoth []Match
}

// Compare matches external entries against internal ones on (filename, hash).
// The first internal entry with a given identity is the counterpart.
func Compare(internal, external []*models.FileEntry) Result {
	index := make(map[models.Identity]*models.FileEntry, len(internal))
	for _, e := range internal {
		id := e.Identity()
		if _, ok := index[id]; !ok {
			index[id] = e
		}
	}

	var res Result
	for _, e := range external {
		if in, ok := index[e.Identity()]; ok {
			res.PresentInBoth = append(res.PresentInBoth, Match{External: e, Internal: in})
		} else {
			res.OnlyExternal = append(res.OnlyExternal, e)
		}
	}
	return res
}
