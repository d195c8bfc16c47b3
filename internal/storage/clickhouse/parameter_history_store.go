package clickhouse

import (
	"context"
	"encoding/json"
	"fmt"

	"finplan-lab/internal/domain"
	"finplan-lab/internal/storage"
)

// ParameterHistoryStore implements storage.ParameterHistoryStore using
// ClickHouse. The history feed is append-heavy and read for analytics, a
// natural fit for a MergeTree table.
type ParameterHistoryStore struct {
	conn *Conn
}

// NewParameterHistoryStore creates a new ParameterHistoryStore.
func NewParameterHistoryStore(conn *Conn) *ParameterHistoryStore {
	return &ParameterHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ParameterHistoryStore = (*ParameterHistoryStore)(nil)

// Append adds one history record. Returns ErrDuplicateKey if the record ID
// already exists.
func (s *ParameterHistoryStore) Append(ctx context.Context, r *domain.ParameterHistoryRecord) error {
	if r == nil || r.RecordID == "" || r.Path == "" {
		return storage.ErrInvalidInput
	}

	exists, err := s.exists(ctx, r.RecordID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	value, err := json.Marshal(r.Value)
	if err != nil {
		return fmt.Errorf("encode history value: %w", err)
	}

	query := `
		INSERT INTO parameter_history (
			record_id, path, value, source, reason, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`
	if err := s.conn.Exec(ctx, query,
		r.RecordID, r.Path, string(value), int32(r.Source), r.Reason, r.Timestamp,
	); err != nil {
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

	// Check for intra-batch duplicates
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r == nil || r.RecordID == "" || r.Path == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[r.RecordID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[r.RecordID] = struct{}{}
	}

	// Check for duplicates against existing rows
	for _, r := range records {
		exists, err := s.exists(ctx, r.RecordID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO parameter_history (
			record_id, path, value, source, reason, recorded_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range records {
		value, err := json.Marshal(r.Value)
		if err != nil {
			return fmt.Errorf("encode history value: %w", err)
		}
		if err := batch.Append(
			r.RecordID, r.Path, string(value), int32(r.Source), r.Reason, r.Timestamp,
		); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByPath retrieves all history for a path, ordered by timestamp ASC.
func (s *ParameterHistoryStore) GetByPath(ctx context.Context, path string) ([]*domain.ParameterHistoryRecord, error) {
	query := `
		SELECT record_id, path, value, source, reason, recorded_at
		FROM parameter_history
		WHERE path = ?
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
	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query parameter history: %w", err)
	}
	defer rows.Close()

	var records []*domain.ParameterHistoryRecord
	for rows.Next() {
		var (
			record domain.ParameterHistoryRecord
			value  string
			source int32
		)
		if err := rows.Scan(
			&record.RecordID, &record.Path, &value, &source,
			&record.Reason, &record.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan history record: %w", err)
		}
		if err := json.Unmarshal([]byte(value), &record.Value); err != nil {
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

// exists checks whether a record ID is already present.
func (s *ParameterHistoryStore) exists(ctx context.Context, recordID string) (bool, error) {
	var count uint64
	row := s.conn.QueryRow(ctx, `SELECT count() FROM parameter_history WHERE record_id = ?`, recordID)
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
