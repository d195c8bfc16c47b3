package storage

import (
	"context"

	"finplan-lab/internal/domain"
)

// ParameterRecordStore provides access to current-state parameter storage.
// Records are upserted: import and write-through persistence always carry
// the latest accepted value for a path.
type ParameterRecordStore interface {
	// Upsert inserts or replaces the record at its path.
	Upsert(ctx context.Context, r *domain.ParameterRecord) error

	// UpsertBulk inserts or replaces multiple records atomically.
	UpsertBulk(ctx context.Context, records []*domain.ParameterRecord) error

	// GetByPath retrieves a record by path. Returns ErrNotFound if not exists.
	GetByPath(ctx context.Context, path string) (*domain.ParameterRecord, error)

	// List retrieves all records, ordered by path ASC.
	List(ctx context.Context) ([]*domain.ParameterRecord, error)
}

// ParameterHistoryStore provides access to the append-only version-history
// feed. History is never truncated or updated, only appended.
type ParameterHistoryStore interface {
	// Append adds one history record. Returns ErrDuplicateKey if the
	// record ID already exists.
	Append(ctx context.Context, r *domain.ParameterHistoryRecord) error

	// AppendBulk adds multiple records atomically. Fails the entire
	// batch on any duplicate.
	AppendBulk(ctx context.Context, records []*domain.ParameterHistoryRecord) error

	// GetByPath retrieves all history for a path, ordered by timestamp ASC.
	GetByPath(ctx context.Context, path string) ([]*domain.ParameterHistoryRecord, error)

	// List retrieves all history records, ordered by timestamp ASC.
	List(ctx context.Context) ([]*domain.ParameterHistoryRecord, error)
}
