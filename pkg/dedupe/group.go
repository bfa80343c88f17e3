// Package dedupe groups hashed entries by content and by file name.
package dedupe

import (
	"strconv"

	"github.com/sdejongh/dedupnorris/pkg/models"
)

// Group is an ordered set of entries sharing a key. Entry order is input order.
type Group struct {
	Key     string
	Entries []*models.FileEntry
}

// First returns the representative of the group
func (g Group) First() *models.FileEntry {
	return g.Entries[0]
}

// Groups keeps groups in first-seen key order
type Groups []Group

// Len returns the total number of grouped entries
func (gs Groups) Len() int {
	n := 0
	for _, g := range gs {
		n += len(g.Entries)
	}
	return n
}

func groupBy(entries []*models.FileEntry, key func(*models.FileEntry) string) Groups {
	index := make(map[string]int)
	var groups Groups
	for _, e := range entries {
		k := key(e)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Key: k})
		}
		groups[i].Entries = append(groups[i].Entries, e)
	}
	return groups
}

// GroupByHash partitions hashed entries by content hash
func GroupByHash(entries []*models.FileEntry) Groups {
	return groupBy(entries, func(e *models.FileEntry) string { return e.Hash })
}

// GroupByFilename partitions entries by exact (stem, extension)
func GroupByFilename(entries []*models.FileEntry) Groups {
	return groupBy(entries, func(e *models.FileEntry) string {
		// NUL cannot appear in a file name, so the key is unambiguous
		return e.Stem + "\x00" + e.Ext
	})
}

// Representatives keeps the first entry of every hash group and returns how
// many entries were dropped. Applying it to its own output changes nothing.
func Representatives(entries []*models.FileEntry) (unique []*models.FileEntry, discarded int) {
	groups := GroupByHash(entries)
	unique = make([]*models.FileEntry, 0, len(groups))
	for _, g := range groups {
		unique = append(unique, g.First())
	}
	return unique, len(entries) - len(unique)
}

// Collisions returns the groups with more than one member
func Collisions(groups Groups) Groups {
	var out Groups
	for _, g := range groups {
		if len(g.Entries) > 1 {
			out = append(out, g)
		}
	}
	return out
}

// Assignment is the destination file name chosen for one entry
type Assignment struct {
	Entry *models.FileEntry
	Name  string
	// Index is the 1-based position within the filename group
	Index int
	// GroupSize is the number of entries sharing the file name
	GroupSize int
}

// AssignNames picks a destination name for every entry. Members of a
// filename group larger than one get an "_<index>" suffix before the
// extension; with SuffixRest the first member keeps its name.
// Assignments are returned grouped by filename, in first-seen order.
func AssignNames(entries []*models.FileEntry, policy models.SuffixPolicy) []Assignment {
	out := make([]Assignment, 0, len(entries))
	for _, g := range GroupByFilename(entries) {
		for i, e := range g.Entries {
			out = append(out, Assignment{
				Entry:     e,
				Name:      SuffixedName(e, i+1, len(g.Entries), policy),
				Index:     i + 1,
				GroupSize: len(g.Entries),
			})
		}
	}
	return out
}

// SuffixedName returns the name of the index-th member of a group of size n
func SuffixedName(e *models.FileEntry, index, n int, policy models.SuffixPolicy) string {
	if n <= 1 || (policy == models.SuffixRest && index == 1) {
		return e.Filename()
	}
	name := e.Stem + "_" + strconv.Itoa(index)
	if e.Ext != "" {
		name += "." + e.Ext
	}
	return name
}
