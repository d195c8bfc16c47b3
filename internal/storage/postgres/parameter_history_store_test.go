package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finplan-lab/internal/domain"
	"finplan-lab/internal/storage"
)

func testHistory(id, path string, ts time.Time) *domain.ParameterHistoryRecord {
	return &domain.ParameterHistoryRecord{
		RecordID:  id,
		Path:      path,
		Value:     0.12,
		Source:    domain.SourceAdvisor,
		Reason:    "advisor recommendation",
		Timestamp: ts,
	}
}

func TestParameterHistoryStore_AppendAndGetByPath(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewParameterHistoryStore(pool)
	ctx := context.Background()
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.Append(ctx, testHistory("h1", "p.one", now)))
	require.NoError(t, store.Append(ctx, testHistory("h2", "p.two", now.Add(time.Minute))))

	records, err := store.GetByPath(ctx, "p.one")
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "h1", records[0].RecordID)
	assert.Equal(t, 0.12, records[0].Value)
	assert.Equal(t, domain.SourceAdvisor, records[0].Source)
	assert.Equal(t, "advisor recommendation", records[0].Reason)
	assert.True(t, now.Equal(records[0].Timestamp))
}

func TestParameterHistoryStore_AppendDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewParameterHistoryStore(pool)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.Append(ctx, testHistory("h1", "p", now)))
	assert.ErrorIs(t, store.Append(ctx, testHistory("h1", "p", now)), storage.ErrDuplicateKey)
}

func TestParameterHistoryStore_ListOrdered(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewParameterHistoryStore(pool)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	// Insert out of timestamp order.
	require.NoError(t, store.Append(ctx, testHistory("h3", "p", base.Add(2*time.Hour))))
	require.NoError(t, store.Append(ctx, testHistory("h1", "p", base)))
	require.NoError(t, store.Append(ctx, testHistory("h2", "p", base.Add(time.Hour))))

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "h1", records[0].RecordID)
	assert.Equal(t, "h2", records[1].RecordID)
	assert.Equal(t, "h3", records[2].RecordID)
}

func TestParameterHistoryStore_AppendBulkAtomic(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewParameterHistoryStore(pool)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.Append(ctx, testHistory("h1", "p", now)))

	// A batch colliding with an existing record ID applies nothing.
	err := store.AppendBulk(ctx, []*domain.ParameterHistoryRecord{
		testHistory("h2", "p", now),
		testHistory("h1", "p", now),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	records, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestParameterHistoryStore_InvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewParameterHistoryStore(pool)
	ctx := context.Background()

	assert.ErrorIs(t, store.Append(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Append(ctx, testHistory("", "p", time.Now())), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Append(ctx, testHistory("h1", "", time.Now())), storage.ErrInvalidInput)
}
