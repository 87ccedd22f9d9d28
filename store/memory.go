package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/playstateprojects/autolocalize"
)

// UpdateCall records one UpdateLocale invocation for inspection.
type UpdateCall struct {
	Collection string
	ID         string
	Locale     string
	Patch      map[string]any
	Opts       UpdateOptions
}

// MemoryStore is a thread-safe in-memory record store. Records are held
// in the all-locales shape; it backs tests and local runs.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]map[string]any
	updates []UpdateCall
}

// NewMemoryStore creates an empty in-memory record store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]map[string]any),
	}
}

func recordKey(collection, id string) string {
	return collection + ":" + id
}

// Seed stores a record in its all-locales shape.
func (s *MemoryStore) Seed(collection, id string, doc map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[recordKey(collection, id)] = cloneDoc(doc)
}

// FindAllLocales returns a copy of the record with every localized field
// resolved to a locale-to-value map.
func (s *MemoryStore) FindAllLocales(ctx context.Context, collection, id string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.records[recordKey(collection, id)]
	if !ok {
		return nil, &autolocalize.StoreError{
			Message:    "record not found",
			Collection: collection,
			ID:         id,
		}
	}
	return cloneDoc(doc), nil
}

// UpdateLocale merges a path-keyed patch into one locale of a record and
// returns the updated record.
func (s *MemoryStore) UpdateLocale(ctx context.Context, collection, id, locale string, patch map[string]any, opts UpdateOptions) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.records[recordKey(collection, id)]
	if !ok {
		return nil, &autolocalize.StoreError{
			Message:    "record not found",
			Collection: collection,
			ID:         id,
		}
	}

	for path, value := range patch {
		autolocalize.SetLocaleValue(doc, path, locale, value)
	}

	s.updates = append(s.updates, UpdateCall{
		Collection: collection,
		ID:         id,
		Locale:     locale,
		Patch:      cloneDoc(patch),
		Opts:       opts,
	})

	return cloneDoc(doc), nil
}

// Updates returns every recorded UpdateLocale call, in order.
func (s *MemoryStore) Updates() []UpdateCall {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]UpdateCall, len(s.updates))
	copy(out, s.updates)
	return out
}

// Record returns a copy of a stored record.
func (s *MemoryStore) Record(collection, id string) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.records[recordKey(collection, id)]
	if !ok {
		return nil, false
	}
	return cloneDoc(doc), true
}

// cloneDoc deep-copies a JSON-shaped document so callers never share
// mutable state with the store.
func cloneDoc(doc map[string]any) map[string]any {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

// Verify MemoryStore implements RecordStore
var _ RecordStore = (*MemoryStore)(nil)
