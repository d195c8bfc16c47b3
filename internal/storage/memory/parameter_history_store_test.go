package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"finplan-lab/internal/domain"
	"finplan-lab/internal/storage"
)

func makeHistory(id, path string, ts time.Time) *domain.ParameterHistoryRecord {
	return &domain.ParameterHistoryRecord{
		RecordID:  id,
		Path:      path,
		Value:     0.1,
		Source:    domain.SourceAdvisor,
		Reason:    "test",
		Timestamp: ts,
	}
}

func TestParameterHistoryStore_AppendAndGet(t *testing.T) {
	store := NewParameterHistoryStore()
	ctx := context.Background()
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	if err := store.Append(ctx, makeHistory("h1", "p.one", now)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := store.Append(ctx, makeHistory("h2", "p.two", now.Add(time.Minute))); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	records, err := store.GetByPath(ctx, "p.one")
	if err != nil {
		t.Fatalf("GetByPath failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].RecordID != "h1" {
		t.Errorf("RecordID = %s, want h1", records[0].RecordID)
	}
}

func TestParameterHistoryStore_DuplicateKey(t *testing.T) {
	store := NewParameterHistoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := store.Append(ctx, makeHistory("h1", "p", now)); err != nil {
		t.Fatalf("first Append failed: %v", err)
	}
	err := store.Append(ctx, makeHistory("h1", "p", now))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestParameterHistoryStore_ListOrderedByTimestamp(t *testing.T) {
	store := NewParameterHistoryStore()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	// Append out of timestamp order.
	if err := store.Append(ctx, makeHistory("h3", "p", base.Add(2*time.Hour))); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := store.Append(ctx, makeHistory("h1", "p", base)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := store.Append(ctx, makeHistory("h2", "p", base.Add(time.Hour))); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []string{"h1", "h2", "h3"}
	for i, id := range want {
		if records[i].RecordID != id {
			t.Errorf("records[%d] = %s, want %s", i, records[i].RecordID, id)
		}
	}
}

func TestParameterHistoryStore_AppendBulkAtomic(t *testing.T) {
	store := NewParameterHistoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := store.Append(ctx, makeHistory("h1", "p", now)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	// Batch containing a duplicate of an existing ID fails whole.
	err := store.AppendBulk(ctx, []*domain.ParameterHistoryRecord{
		makeHistory("h2", "p", now),
		makeHistory("h1", "p", now),
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	records, _ := store.List(ctx)
	if len(records) != 1 {
		t.Errorf("failed batch partially applied: %d records", len(records))
	}
}

func TestParameterHistoryStore_AppendBulkRejectsIntraBatchDuplicate(t *testing.T) {
	store := NewParameterHistoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	err := store.AppendBulk(ctx, []*domain.ParameterHistoryRecord{
		makeHistory("h1", "p", now),
		makeHistory("h1", "p", now),
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestParameterHistoryStore_InvalidInput(t *testing.T) {
	store := NewParameterHistoryStore()
	ctx := context.Background()

	if err := store.Append(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("nil record: expected ErrInvalidInput, got %v", err)
	}
	r := makeHistory("", "p", time.Now())
	if err := store.Append(ctx, r); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("empty record ID: expected ErrInvalidInput, got %v", err)
	}
}

func TestParameterHistoryStore_GetByPathEmpty(t *testing.T) {
	store := NewParameterHistoryStore()

	records, err := store.GetByPath(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetByPath failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty history, got %d records", len(records))
	}
}
