package dupsig

import (
	"strings"

	zcsl "github.com/mattkeenan/zerocopyskiplist"
)

// Context constant for skiplist operations
const scanContext = "scan"

// hashEntry pairs one accepted file path with its content digest. Entries
// are keyed by digest first, path second, so skiplist iteration yields files
// sharing a digest contiguously with paths sorted within the run.
type hashEntry struct {
	Digest string
	Path   string
}

// entryKey builds the composite ordering key. NUL never occurs in a hex
// digest, so the separator cannot collide.
func entryKey(digest, path string) string {
	return digest + "\x00" + path
}

// digestIndex is the digest → paths mapping built during scanning, backed by
// a zero-copy skiplist for deterministic sorted iteration. A path is inserted
// at most once, so it lands in exactly one digest bucket.
type digestIndex struct {
	skiplist *zcsl.ZeroCopySkiplist[hashEntry, string, string]
	entries  int
}

// newDigestIndex creates an empty digest index.
func newDigestIndex() *digestIndex {
	getKeyFromItem := func(entry *hashEntry) string {
		return entryKey(entry.Digest, entry.Path)
	}
	getItemSize := func(entry *hashEntry) int {
		return len(entry.Digest) + len(entry.Path)
	}
	cmpKey := func(a, b string) int {
		return strings.Compare(a, b)
	}

	return &digestIndex{
		skiplist: zcsl.MakeZeroCopySkiplist[hashEntry, string, string](
			16,
			getKeyFromItem,
			getItemSize,
			cmpKey,
		),
	}
}

// Insert records a hashed file. Duplicate (digest, path) pairs are ignored
// so re-inserting the same file cannot inflate a bucket.
func (di *digestIndex) Insert(digest, path string) {
	entry := hashEntry{Digest: digest, Path: path}
	if di.skiplist.Insert(&entry, scanContext) {
		di.entries++
	}
}

// Len returns the number of indexed files.
func (di *digestIndex) Len() int {
	return di.entries
}

// ForEach iterates all entries in (digest, path) order.
func (di *digestIndex) ForEach(callback func(*hashEntry) bool) {
	for current := di.skiplist.First(); current != nil; current = current.Next() {
		entry := current.Item()
		if entry == nil {
			continue
		}
		if !callback(entry) {
			break
		}
	}
}

// Groups walks the sorted index and collects every digest bucket, in digest
// order, with paths sorted within each bucket. Buckets of every size are
// returned; the caller filters for duplicates.
func (di *digestIndex) Groups() []DuplicateGroup {
	var groups []DuplicateGroup
	di.ForEach(func(entry *hashEntry) bool {
		n := len(groups)
		if n > 0 && groups[n-1].Hash == entry.Digest {
			groups[n-1].Files = append(groups[n-1].Files, entry.Path)
			groups[n-1].Count++
			return true
		}
		groups = append(groups, DuplicateGroup{
			Hash:  entry.Digest,
			Files: []string{entry.Path},
			Count: 1,
		})
		return true
	})
	return groups
}
