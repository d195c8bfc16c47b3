package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"finplan-lab/internal/domain"
	"finplan-lab/internal/storage"
)

// ParameterHistoryStore implements storage.ParameterHistoryStore using
// PostgreSQL. The table is append-only; rows are never updated or deleted.
type ParameterHistoryStore struct {
	pool *Pool
}

// NewParameterHistoryStore creates a new ParameterHistoryStore.
func NewParameterHistoryStore(pool *Pool) *ParameterHistoryStore {
	return &ParameterHistoryStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ParameterHistoryStore = (*ParameterHistoryStore)(nil)

const insertHistoryQuery = `
	INSERT INTO parameter_history (
		record_id, path, value, source, reason, recorded_at
	) VALUES ($1, $2, $3, $4, $5, $6)
`

// Append adds one history record. Returns ErrDuplicateKey if the record ID
// already exists.
func (s *ParameterHistoryStore) Append(ctx context.Context, r *domain.ParameterHistoryRecord) error {
	if r == nil || r.RecordID == "" || r.Path == "" {
		return storage.ErrInvalidInput
	}

	value, err := json.Marshal(r.Value)
	if err != nil {
		return fmt.Errorf("encode history value: %w", err)
	}

	_, err = s.pool.Exec(ctx, insertHistoryQuery,
		r.RecordID, r.Path, value, int(r.Source), r.Reason, r.Timestamp,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("append parameter history: %w", err)
	}
	return nil
}

// AppendBulk adds multiple records atomically. Fails the entire batch on
// any duplicate.
func (s *ParameterHistoryStore) AppendBulk(ctx context.Context, records []*domain.ParameterHistoryRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range records {
		if r == nil || r.RecordID == "" || r.Path == "" {
			return storage.ErrInvalidInput
		}
		value, err := json.Marshal(r.Value)
		if err != nil {
			return fmt.Errorf("encode history value: %w", err)
		}
		if _, err := tx.Exec(ctx, insertHistoryQuery,
			r.RecordID, r.Path, value, int(r.Source), r.Reason, r.Timestamp,
		); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("append parameter history in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByPath retrieves all history for a path, ordered by timestamp ASC.
func (s *ParameterHistoryStore) GetByPath(ctx context.Context, path string) ([]*domain.ParameterHistoryRecord, error) {
	query := `
		SELECT record_id, path, value, source, reason, recorded_at
		FROM parameter_history
		WHERE path = $1
		ORDER BY recorded_at ASC, record_id ASC
	`
	return s.queryHistory(ctx, query, path)
}

// List retrieves all history records, ordered by timestamp ASC.
func (s *ParameterHistoryStore) List(ctx context.Context) ([]*domain.ParameterHistoryRecord, error) {
	query := `
		SELECT record_id, path, value, source, reason, recorded_at
		FROM parameter_history
		ORDER BY recorded_at ASC, record_id ASC
	`
	return s.queryHistory(ctx, query)
}

func (s *ParameterHistoryStore) queryHistory(ctx context.Context, query string, args ...any) ([]*domain.ParameterHistoryRecord, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query parameter history: %w", err)
	}
	defer rows.Close()

	var records []*domain.ParameterHistoryRecord
	for rows.Next() {
		var (
			record domain.ParameterHistoryRecord
			value  []byte
			source int
		)
		if err := rows.Scan(
			&record.RecordID, &record.Path, &value, &source,
			&record.Reason, &record.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan history record: %w", err)
		}
		if err := json.Unmarshal(value, &record.Value); err != nil {
			return nil, fmt.Errorf("decode history value: %w", err)
		}
		record.Source = domain.SourcePriority(source)
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history records: %w", err)
	}
	return records, nil
}
