package recursivehasher

import (
	"context"
	"strings"

	zcsl "github.com/mattkeenan/zerocopyskiplist"
)

// indexMaxLevels is the skiplist height used for dataset indexes
const indexMaxLevels = 16

// ctxCheckInterval is how many records are processed between cancellation checks
const ctxCheckInterval = 1024

// recordKeyFunc derives an index key from a record
type recordKeyFunc func(*FileRecord) string

// nameKey indexes records by base filename
func nameKey(r *FileRecord) string {
	return r.Name()
}

// nameDigestKey indexes records by base filename plus digest. Digests are
// compared case-insensitively so lower-case hex from other tools still matches.
func nameDigestKey(r *FileRecord) string {
	return r.Name() + "\x00" + strings.ToUpper(r.Digest)
}

// recordIndex is an ordered set of dataset records over zerocopyskiplist.
// Items point into the indexed Dataset, which must not change while the index is alive.
// The context of each node is the label of the dataset it came from.
type recordIndex struct {
	skiplist *zcsl.ZeroCopySkiplist[FileRecord, string, string]
	keyOf    recordKeyFunc
	dupes    int
}

// newRecordIndex creates an empty index keyed by keyOf
func newRecordIndex(keyOf recordKeyFunc) *recordIndex {
	getItemSize := func(r *FileRecord) int {
		return len(r.Path) + len(r.Digest)
	}

	skiplist := zcsl.MakeZeroCopySkiplist[FileRecord, string, string](
		indexMaxLevels,
		func(r *FileRecord) string { return keyOf(r) },
		getItemSize,
		strings.Compare,
	)

	return &recordIndex{skiplist: skiplist, keyOf: keyOf}
}

// buildRecordIndex indexes every record of dataset, stopping early when ctx is done.
// Records whose key is already present are counted as duplicates and not inserted:
// one representative is enough for existence queries.
func buildRecordIndex(ctx context.Context, dataset Dataset, label string, keyOf recordKeyFunc) (*recordIndex, error) {
	idx := newRecordIndex(keyOf)
	for i := range dataset {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		idx.Insert(&dataset[i], label)
	}
	debugLog(StageCompare, "%s: indexed %d distinct keys, %d records share a key with an earlier record",
		label, idx.Len(), idx.dupes)
	return idx, nil
}

// Insert adds rec unless its key is already indexed; it reports whether rec was added
func (ri *recordIndex) Insert(rec *FileRecord, label string) bool {
	if ri.Contains(ri.keyOf(rec)) {
		ri.dupes++
		return false
	}
	return ri.skiplist.Insert(rec, label)
}

// Contains reports whether any record with key is indexed
func (ri *recordIndex) Contains(key string) bool {
	rec, _ := ri.Find(key)
	return rec != nil
}

// Find returns the representative record for key and its source label
func (ri *recordIndex) Find(key string) (*FileRecord, string) {
	itemPtr, label := ri.skiplist.Find(key)
	if itemPtr == nil {
		return nil, ""
	}
	return itemPtr.Item(), label
}

// Len returns the number of distinct keys
func (ri *recordIndex) Len() int {
	return ri.skiplist.Length()
}
