package store

import (
	"time"

	"sjsage522/cardmonitor/internal/deal"
)

// Batch stages MarkSeen calls on top of a Store so that records only land in
// the store once the alerts for them were delivered.
type Batch struct {
	base   *Store
	staged []SeenRecord
	index  map[recordKey]struct{}
}

var _ deal.SeenStore = (*Batch)(nil)

// NewBatch creates a batch over base
func NewBatch(base *Store) *Batch {
	return &Batch{
		base:  base,
		index: make(map[recordKey]struct{}),
	}
}

// HasSeen checks the staged marks, then the base store
func (b *Batch) HasSeen(listingID, watchKey string) bool {
	if _, ok := b.index[recordKey{listingID, watchKey}]; ok {
		return true
	}
	return b.base.HasSeen(listingID, watchKey)
}

// MarkSeen stages the pair
func (b *Batch) MarkSeen(listingID, watchKey string, now time.Time) {
	key := recordKey{listingID, watchKey}
	if _, ok := b.index[key]; ok {
		return
	}
	b.index[key] = struct{}{}
	b.staged = append(b.staged, SeenRecord{ListingID: listingID, WatchKey: watchKey, SeenAt: now})
}

// Len returns the number of staged records
func (b *Batch) Len() int {
	return len(b.staged)
}

// Commit applies the staged marks to the base store and clears the batch
func (b *Batch) Commit() int {
	for _, r := range b.staged {
		b.base.MarkSeen(r.ListingID, r.WatchKey, r.SeenAt)
	}
	n := len(b.staged)
	b.Discard()
	return n
}

// Discard drops the staged marks
func (b *Batch) Discard() {
	b.staged = nil
	b.index = make(map[recordKey]struct{})
}
