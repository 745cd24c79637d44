package store

import (
	"slices"
	"sync"
	"time"

	"sjsage522/cardmonitor/internal/deal"
	apperrors "sjsage522/cardmonitor/pkg/errors"
)

// SeenRecord marks a listing as already alerted for a watch key.
// An empty WatchKey comes from legacy id-only files and applies to every key
// except those listed in ClearedKeys.
type SeenRecord struct {
	ListingID   string    `json:"listing_id"`
	WatchKey    string    `json:"watch_key,omitempty"`
	SeenAt      time.Time `json:"seen_at"`
	ClearedKeys []string  `json:"cleared_keys,omitempty"`
}

// Backend persists the full record list
type Backend interface {
	// Load returns every persisted record in order
	Load() ([]SeenRecord, error)

	// Save replaces the persisted records. Readers must never observe a
	// partially written state.
	Save(records []SeenRecord) error
}

type recordKey struct {
	listingID string
	watchKey  string
}

// Store is the in-memory set of seen records over an optional Backend.
// A nil backend keeps everything in memory.
type Store struct {
	mu      sync.RWMutex
	backend Backend
	records []SeenRecord
	index   map[recordKey]struct{}
	cleared map[string]map[string]struct{}
	dirty   bool
}

var _ deal.SeenStore = (*Store)(nil)

// New creates an empty store. Call Load to read the backend.
func New(backend Backend) *Store {
	return &Store{
		backend: backend,
		index:   make(map[recordKey]struct{}),
		cleared: make(map[string]map[string]struct{}),
	}
}

// Load replaces the in-memory records with the backend contents. When the
// backend cannot be read the current records are kept (empty on a fresh
// store) and the error is returned for logging only; callers keep running.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.backend == nil {
		return nil
	}

	records, err := s.backend.Load()
	if err != nil {
		return apperrors.NewStore("failed to load seen listings", err)
	}

	s.reset()
	for _, r := range records {
		s.add(r)
	}
	s.dirty = false
	return nil
}

// Save writes all records through the backend
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.backend == nil {
		s.dirty = false
		return nil
	}

	records := make([]SeenRecord, len(s.records))
	copy(records, s.records)
	if err := s.backend.Save(records); err != nil {
		return apperrors.NewStore("failed to save seen listings", err)
	}
	s.dirty = false
	return nil
}

// Dirty reports whether there are changes not yet saved
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// HasSeen reports whether the listing was alerted for watchKey
func (s *Store) HasSeen(listingID, watchKey string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.has(listingID, watchKey)
}

// MarkSeen records the pair. Recording an existing pair is a no-op.
func (s *Store) MarkSeen(listingID, watchKey string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.add(SeenRecord{ListingID: listingID, WatchKey: watchKey, SeenAt: now}) {
		s.dirty = true
	}
}

// ResetQuery removes every record for watchKey and lifts legacy records for
// that key only. It returns how many records stopped applying to watchKey.
func (s *Store) ResetQuery(watchKey string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	removed := 0
	for _, r := range s.records {
		if r.WatchKey == watchKey {
			delete(s.index, recordKey{r.ListingID, r.WatchKey})
			if r.WatchKey == "" {
				delete(s.cleared, r.ListingID)
			}
			removed++
			continue
		}
		if r.WatchKey == "" && !s.isCleared(r.ListingID, watchKey) {
			r.ClearedKeys = append(slices.Clone(r.ClearedKeys), watchKey)
			s.markCleared(r.ListingID, watchKey)
			removed++
		}
		kept = append(kept, r)
	}
	s.records = kept

	if removed > 0 {
		s.dirty = true
	}
	return removed
}

// ResetAll empties the store and returns how many records were removed
func (s *Store) ResetAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := len(s.records)
	s.reset()
	s.dirty = true
	return removed
}

// Len returns the number of records
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Records returns a copy of all records in insertion order
func (s *Store) Records() []SeenRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]SeenRecord, len(s.records))
	copy(records, s.records)
	return records
}

func (s *Store) has(listingID, watchKey string) bool {
	if _, ok := s.index[recordKey{listingID, watchKey}]; ok {
		return true
	}
	if _, ok := s.index[recordKey{listingID, ""}]; !ok {
		return false
	}
	return !s.isCleared(listingID, watchKey)
}

func (s *Store) isCleared(listingID, watchKey string) bool {
	_, ok := s.cleared[listingID][watchKey]
	return ok
}

func (s *Store) markCleared(listingID, watchKey string) {
	keys, ok := s.cleared[listingID]
	if !ok {
		keys = make(map[string]struct{})
		s.cleared[listingID] = keys
	}
	keys[watchKey] = struct{}{}
}

func (s *Store) add(r SeenRecord) bool {
	key := recordKey{r.ListingID, r.WatchKey}
	if _, ok := s.index[key]; ok {
		return false
	}
	s.index[key] = struct{}{}
	if r.WatchKey == "" {
		for _, k := range r.ClearedKeys {
			s.markCleared(r.ListingID, k)
		}
	}
	s.records = append(s.records, r)
	return true
}

func (s *Store) reset() {
	s.records = nil
	s.index = make(map[recordKey]struct{})
	s.cleared = make(map[string]map[string]struct{})
}
