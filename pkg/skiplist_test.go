package dupsig

import (
	"reflect"
	"testing"
)

func TestDigestIndex_GroupsContiguousAndSorted(t *testing.T) {
	index := newDigestIndex()

	// Insert out of order; grouping must come back digest-ordered with
	// paths sorted within each bucket.
	index.Insert("bbbb", "/d/z.pdf")
	index.Insert("aaaa", "/d/m.pdf")
	index.Insert("bbbb", "/d/a.pdf")
	index.Insert("cccc", "/d/q.pdf")
	index.Insert("aaaa", "/d/b.pdf")

	groups := index.Groups()
	want := []DuplicateGroup{
		{Hash: "aaaa", Files: []string{"/d/b.pdf", "/d/m.pdf"}, Count: 2},
		{Hash: "bbbb", Files: []string{"/d/a.pdf", "/d/z.pdf"}, Count: 2},
		{Hash: "cccc", Files: []string{"/d/q.pdf"}, Count: 1},
	}

	if !reflect.DeepEqual(groups, want) {
		t.Errorf("Expected %+v, got %+v", want, groups)
	}
}

func TestDigestIndex_DuplicateInsertIgnored(t *testing.T) {
	index := newDigestIndex()

	index.Insert("aaaa", "/d/a.pdf")
	index.Insert("aaaa", "/d/a.pdf")

	if index.Len() != 1 {
		t.Errorf("Expected 1 entry after duplicate insert, got %d", index.Len())
	}

	groups := index.Groups()
	if len(groups) != 1 || groups[0].Count != 1 {
		t.Errorf("Duplicate insert inflated a bucket: %+v", groups)
	}
}

func TestDigestIndex_Empty(t *testing.T) {
	index := newDigestIndex()
	if index.Len() != 0 {
		t.Errorf("Expected empty index, got %d entries", index.Len())
	}
	if groups := index.Groups(); len(groups) != 0 {
		t.Errorf("Expected no groups from empty index, got %v", groups)
	}
}

func TestDigestIndex_EveryPathInExactlyOneBucket(t *testing.T) {
	index := newDigestIndex()
	index.Insert("aaaa", "/d/1")
	index.Insert("aaaa", "/d/2")
	index.Insert("bbbb", "/d/3")

	seen := make(map[string]int)
	for _, group := range index.Groups() {
		for _, path := range group.Files {
			seen[path]++
		}
	}

	for path, n := range seen {
		if n != 1 {
			t.Errorf("Path %s appears in %d buckets", path, n)
		}
	}
	if len(seen) != 3 {
		t.Errorf("Expected 3 distinct paths, got %d", len(seen))
	}
}
