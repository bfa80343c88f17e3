package dedupe

import (
	"testing"

	"github.com/sdejongh/dedupnorris/pkg/models"
)

func entry(rel, stem, ext, hash string) *models.FileEntry {
	return &models.FileEntry{Path: "/src/" + rel, RelativePath: rel, Stem: stem, Ext: ext, Hash: hash}
}

func TestGroupByHash(t *testing.T) {
	a := entry("1/a.jpg", "a", "jpg", "h1")
	b := entry("2/a.jpg", "a", "jpg", "h1")
	c := entry("3/b.jpg", "b", "jpg", "h2")
	d := entry("4/c.jpg", "c", "jpg", "h1")

	groups := GroupByHash([]*models.FileEntry{a, c, b, d})
	if len(groups) != 2 {
		t.Fatalf("GroupByHash() returned %d groups, want 2", len(groups))
	}
	if groups[0].Key != "h1" || groups[1].Key != "h2" {
		t.Errorf("keys = [%s %s], want first-seen order [h1 h2]", groups[0].Key, groups[1].Key)
	}
	if got := groups[0].Entries; len(got) != 3 || got[0] != a || got[1] != b || got[2] != d {
		t.Error("group members should keep input order")
	}
	if groups.Len() != 4 {
		t.Errorf("Len() = %d, want every entry in exactly one group", groups.Len())
	}
}

func TestRepresentatives(t *testing.T) {
	entries := []*models.FileEntry{
		entry("1/a.jpg", "a", "jpg", "h1"),
		entry("2/a.jpg", "a", "jpg", "h1"),
		entry("3/b.jpg", "b", "jpg", "h2"),
		entry("4/x.jpg", "x", "jpg", "h1"),
	}

	unique, discarded := Representatives(entries)
	if len(unique) != 2 || discarded != 2 {
		t.Fatalf("Representatives() = %d unique, %d discarded; want 2, 2", len(unique), discarded)
	}
	if unique[0] != entries[0] || unique[1] != entries[2] {
		t.Error("representative should be the first entry of each group")
	}

	t.Run("Idempotent", func(t *testing.T) {
		again, discarded := Representatives(unique)
		if discarded != 0 || len(again) != len(unique) {
			t.Fatalf("second pass discarded %d entries", discarded)
		}
		for i := range again {
			if again[i] != unique[i] {
				t.Errorf("second pass changed entry %d", i)
			}
		}
	})

	t.Run("Empty", func(t *testing.T) {
		unique, discarded := Representatives(nil)
		if len(unique) != 0 || discarded != 0 {
			t.Errorf("Representatives(nil) = %d, %d", len(unique), discarded)
		}
	})
}

func TestGroupByFilename(t *testing.T) {
	entries := []*models.FileEntry{
		entry("1/a.jpg", "a", "jpg", "h1"),
		entry("2/a.JPG", "a", "JPG", "h2"),
		entry("3/a.jpg", "a", "jpg", "h3"),
		entry("4/a_jpg", "a_jpg", "", "h4"),
	}

	groups := GroupByFilename(entries)
	if len(groups) != 3 {
		t.Fatalf("GroupByFilename() returned %d groups, want 3 (case-sensitive)", len(groups))
	}

	collisions := Collisions(groups)
	if len(collisions) != 1 || len(collisions[0].Entries) != 2 {
		t.Fatalf("Collisions() = %+v, want one group of two", collisions)
	}
}

func TestAssignNames(t *testing.T) {
	entries := []*models.FileEntry{
		entry("1/a.jpg", "a", "jpg", "h1"),
		entry("2/b.jpg", "b", "jpg", "h2"),
		entry("3/a.jpg", "a", "jpg", "h3"),
		entry("4/README", "README", "", "h4"),
		entry("5/README", "README", "", "h5"),
	}

	tests := []struct {
		policy models.SuffixPolicy
		want   []string
	}{
		{models.SuffixAll, []string{"a_1.jpg", "a_2.jpg", "b.jpg", "README_1", "README_2"}},
		{models.SuffixRest, []string{"a.jpg", "a_2.jpg", "b.jpg", "README", "README_2"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			got := AssignNames(entries, tt.policy)
			if len(got) != len(tt.want) {
				t.Fatalf("AssignNames() returned %d assignments, want %d", len(got), len(tt.want))
			}

			seen := make(map[string]bool)
			for i, a := range got {
				if a.Name != tt.want[i] {
					t.Errorf("assignment %d = %s, want %s", i, a.Name, tt.want[i])
				}
				if seen[a.Name] {
					t.Errorf("name %s assigned twice", a.Name)
				}
				seen[a.Name] = true
			}
		})
	}

	t.Run("SingletonNeverRenamed", func(t *testing.T) {
		got := AssignNames([]*models.FileEntry{entry("x.png", "x", "png", "h")}, models.SuffixAll)
		if got[0].Name != "x.png" || got[0].GroupSize != 1 {
			t.Errorf("singleton renamed to %s", got[0].Name)
		}
	})
}
