package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"finplan-lab/internal/domain"
	"finplan-lab/internal/storage"
)

// ParameterRecordStore implements storage.ParameterRecordStore using
// PostgreSQL. Values are stored as JSONB so scalars, sequences and nested
// mappings round-trip uniformly.
type ParameterRecordStore struct {
	pool *Pool
}

// NewParameterRecordStore creates a new ParameterRecordStore.
func NewParameterRecordStore(pool *Pool) *ParameterRecordStore {
	return &ParameterRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ParameterRecordStore = (*ParameterRecordStore)(nil)

const upsertParameterQuery = `
	INSERT INTO parameters (
		path, value, source_priority, user_overridable,
		volatility, confidence, last_updated
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (path) DO UPDATE SET
		value = EXCLUDED.value,
		source_priority = EXCLUDED.source_priority,
		user_overridable = EXCLUDED.user_overridable,
		volatility = EXCLUDED.volatility,
		confidence = EXCLUDED.confidence,
		last_updated = EXCLUDED.last_updated
`

// Upsert inserts or replaces the record at its path.
func (s *ParameterRecordStore) Upsert(ctx context.Context, r *domain.ParameterRecord) error {
	if r == nil || r.Path == "" {
		return storage.ErrInvalidInput
	}

	value, err := json.Marshal(r.Value)
	if err != nil {
		return fmt.Errorf("encode parameter value: %w", err)
	}

	_, err = s.pool.Exec(ctx, upsertParameterQuery,
		r.Path, value, int(r.SourcePriority), r.UserOverridable,
		r.Volatility, r.Confidence, r.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("upsert parameter: %w", err)
	}
	return nil
}

// UpsertBulk inserts or replaces multiple records atomically.
func (s *ParameterRecordStore) UpsertBulk(ctx context.Context, records []*domain.ParameterRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range records {
		if r == nil || r.Path == "" {
			return storage.ErrInvalidInput
		}
		value, err := json.Marshal(r.Value)
		if err != nil {
			return fmt.Errorf("encode parameter value: %w", err)
		}
		if _, err := tx.Exec(ctx, upsertParameterQuery,
			r.Path, value, int(r.SourcePriority), r.UserOverridable,
			r.Volatility, r.Confidence, r.LastUpdated,
		); err != nil {
			return fmt.Errorf("upsert parameter in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByPath retrieves a record by path. Returns ErrNotFound if not exists.
func (s *ParameterRecordStore) GetByPath(ctx context.Context, path string) (*domain.ParameterRecord, error) {
	query := `
		SELECT path, value, source_priority, user_overridable,
		       volatility, confidence, last_updated
		FROM parameters
		WHERE path = $1
	`

	row := s.pool.QueryRow(ctx, query, path)
	record, err := scanParameterRecord(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get parameter by path: %w", err)
	}
	return record, nil
}

// List retrieves all records, ordered by path ASC.
func (s *ParameterRecordStore) List(ctx context.Context) ([]*domain.ParameterRecord, error) {
	query := `
		SELECT path, value, source_priority, user_overridable,
		       volatility, confidence, last_updated
		FROM parameters
		ORDER BY path ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list parameters: %w", err)
	}
	defer rows.Close()

	var records []*domain.ParameterRecord
	for rows.Next() {
		record, err := scanParameterRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan parameter: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate parameters: %w", err)
	}
	return records, nil
}

// rowScanner abstracts pgx.Row and pgx.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanParameterRecord(row rowScanner) (*domain.ParameterRecord, error) {
	var (
		record   domain.ParameterRecord
		value    []byte
		priority int
	)
	if err := row.Scan(
		&record.Path, &value, &priority, &record.UserOverridable,
		&record.Volatility, &record.Confidence, &record.LastUpdated,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(value, &record.Value); err != nil {
		return nil, fmt.Errorf("decode parameter value: %w", err)
	}
	record.SourcePriority = domain.SourcePriority(priority)
	return &record, nil
}
