package memory

import (
	"context"
	"sort"
	"sync"

	"finplan-lab/internal/domain"
	"finplan-lab/internal/storage"
)

// ParameterHistoryStore is an in-memory implementation of
// storage.ParameterHistoryStore.
type ParameterHistoryStore struct {
	mu      sync.RWMutex
	data    map[string]*domain.ParameterHistoryRecord // keyed by record_id
	ordered []*domain.ParameterHistoryRecord          // append order
}

// NewParameterHistoryStore creates a new in-memory history store.
func NewParameterHistoryStore() *ParameterHistoryStore {
	return &ParameterHistoryStore{
		data: make(map[string]*domain.ParameterHistoryRecord),
	}
}

// Compile-time interface check.
var _ storage.ParameterHistoryStore = (*ParameterHistoryStore)(nil)

// Append adds one history record. Returns ErrDuplicateKey if the record ID
// already exists.
func (s *ParameterHistoryStore) Append(_ context.Context, r *domain.ParameterHistoryRecord) error {
	if r == nil || r.RecordID == "" || r.Path == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.RecordID]; exists {
		return storage.ErrDuplicateKey
	}

	record := *r
	s.data[r.RecordID] = &record
	s.ordered = append(s.ordered, &record)
	return nil
}

// AppendBulk adds multiple records atomically. Fails the entire batch on
// any duplicate.
func (s *ParameterHistoryStore) AppendBulk(_ context.Context, records []*domain.ParameterHistoryRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r == nil || r.RecordID == "" || r.Path == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[r.RecordID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[r.RecordID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[r.RecordID] = struct{}{}
	}

	for _, r := range records {
		record := *r
		s.data[r.RecordID] = &record
		s.ordered = append(s.ordered, &record)
	}
	return nil
}

// GetByPath retrieves all history for a path, ordered by timestamp ASC.
func (s *ParameterHistoryStore) GetByPath(_ context.Context, path string) ([]*domain.ParameterHistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*domain.ParameterHistoryRecord
	for _, r := range s.ordered {
		if r.Path == path {
			record := *r
			records = append(records, &record)
		}
	}
	sortByTimestamp(records)
	return records, nil
}

// List retrieves all history records, ordered by timestamp ASC.
func (s *ParameterHistoryStore) List(_ context.Context) ([]*domain.ParameterHistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*domain.ParameterHistoryRecord, 0, len(s.ordered))
	for _, r := range s.ordered {
		record := *r
		records = append(records, &record)
	}
	sortByTimestamp(records)
	return records, nil
}

func sortByTimestamp(records []*domain.ParameterHistoryRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
}
