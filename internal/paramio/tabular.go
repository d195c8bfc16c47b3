package paramio

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"finplan-lab/internal/domain"
)

// tabularHeader is the column set of the flat record export.
var tabularHeader = []string{"path", "value", "source_priority", "last_updated"}

// WriteCSV renders parameter records as the flat tabular export
// (path, value, source_priority, last_updated). Numeric values are encoded
// through decimal so they round-trip without binary float drift; all other
// values are JSON-encoded.
func WriteCSV(w io.Writer, records []domain.ParameterRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(tabularHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, r := range records {
		value, err := encodeValue(r.Value)
		if err != nil {
			return fmt.Errorf("encode value for %s: %w", r.Path, err)
		}
		row := []string{
			r.Path,
			value,
			strconv.Itoa(int(r.SourcePriority)),
			r.LastUpdated.UTC().Format(time.RFC3339Nano),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row for %s: %w", r.Path, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses the flat tabular format back into parameter records.
func ReadCSV(r io.Reader) ([]domain.ParameterRecord, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) != len(tabularHeader) {
		return nil, fmt.Errorf("unexpected csv header: %v", header)
	}

	var records []domain.ParameterRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}

		priority, err := strconv.Atoi(row[2])
		if err != nil {
			return nil, fmt.Errorf("parse source priority for %s: %w", row[0], err)
		}
		updated, err := time.Parse(time.RFC3339Nano, row[3])
		if err != nil {
			return nil, fmt.Errorf("parse last_updated for %s: %w", row[0], err)
		}

		records = append(records, domain.ParameterRecord{
			Path:            row[0],
			Value:           decodeValue(row[1]),
			SourcePriority:  domain.SourcePriority(priority),
			UserOverridable: domain.SourcePriority(priority) != domain.SourceUserOverride,
			LastUpdated:     updated,
		})
	}
	return records, nil
}

// encodeValue formats one cell. Numbers go through decimal for an exact
// text form; everything else is JSON.
func encodeValue(v any) (string, error) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n).String(), nil
	case float32:
		return decimal.NewFromFloat32(n).String(), nil
	case int:
		return decimal.NewFromInt(int64(n)).String(), nil
	case int64:
		return decimal.NewFromInt(n).String(), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

// decodeValue is the inverse of encodeValue: numeric text first, then
// JSON, then the raw string as a last resort.
func decodeValue(cell string) any {
	if d, err := decimal.NewFromString(cell); err == nil {
		if d.IsInteger() {
			return int(d.IntPart())
		}
		return d.InexactFloat64()
	}
	var v any
	if err := json.Unmarshal([]byte(cell), &v); err == nil {
		return v
	}
	return cell
}
