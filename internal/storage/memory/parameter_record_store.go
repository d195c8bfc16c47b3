package memory

import (
	"context"
	"sort"
	"sync"

	"finplan-lab/internal/domain"
	"finplan-lab/internal/storage"
)

// ParameterRecordStore is an in-memory implementation of
// storage.ParameterRecordStore.
type ParameterRecordStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ParameterRecord // keyed by path
}

// NewParameterRecordStore creates a new in-memory parameter record store.
func NewParameterRecordStore() *ParameterRecordStore {
	return &ParameterRecordStore{
		data: make(map[string]*domain.ParameterRecord),
	}
}

// Compile-time interface check.
var _ storage.ParameterRecordStore = (*ParameterRecordStore)(nil)

// Upsert inserts or replaces the record at its path.
func (s *ParameterRecordStore) Upsert(_ context.Context, r *domain.ParameterRecord) error {
	if r == nil || r.Path == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record := *r
	s.data[r.Path] = &record
	return nil
}

// UpsertBulk inserts or replaces multiple records atomically.
func (s *ParameterRecordStore) UpsertBulk(_ context.Context, records []*domain.ParameterRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		if r == nil || r.Path == "" {
			return storage.ErrInvalidInput
		}
	}
	for _, r := range records {
		record := *r
		s.data[r.Path] = &record
	}
	return nil
}

// GetByPath retrieves a record by path. Returns ErrNotFound if not exists.
func (s *ParameterRecordStore) GetByPath(_ context.Context, path string) (*domain.ParameterRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[path]
	if !exists {
		return nil, storage.ErrNotFound
	}
	record := *r
	return &record, nil
}

// List retrieves all records, ordered by path ASC.
func (s *ParameterRecordStore) List(_ context.Context) ([]*domain.ParameterRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*domain.ParameterRecord, 0, len(s.data))
	for _, r := range s.data {
		record := *r
		records = append(records, &record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Path < records[j].Path
	})
	return records, nil
}
