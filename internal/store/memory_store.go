package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/matthewbaird/exadmin/internal/meta"
)

// MemoryStore implements Store and Writer using in-memory maps.
// Intended for demos and testing, no database required.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]map[string]*Record // model label -> pk -> record
}

// NewMemoryStore creates a new empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]map[string]*Record)}
}

func (s *MemoryStore) Insert(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	label := rec.Model.Label()
	if s.records[label] == nil {
		s.records[label] = make(map[string]*Record)
	}
	s.records[label][pkKey(rec.PK)] = rec
	return nil
}

func (s *MemoryStore) Get(_ context.Context, m *meta.Model, pk any) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[m.Label()][pkKey(pk)]
	if !ok {
		return nil, fmt.Errorf("%s %v: %w", m.Label(), pk, ErrNotFound)
	}
	return rec, nil
}

// pkKey renders int, int64 and uuid keys alike so lookups by parsed URL
// keys match records inserted with native Go values.
func pkKey(pk any) string {
	return fmt.Sprint(pk)
}
