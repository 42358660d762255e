package dbtypes

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// CountMap is a string→count mapping stored as a JSON object (jsonb on
// Postgres). It backs the per-aggregate referral and outbound breakdowns.
type CountMap map[string]int64

// Value serializes the map; nil maps serialize as an empty object so the
// stored column never holds SQL NULL.
func (m CountMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("CountMap: marshal: %w", err)
	}
	return data, nil
}

// Scan decodes stored JSON. Entries whose value is not a whole number are
// skipped rather than failing the read, so one corrupted key cannot make an
// aggregate row unreadable.
func (m *CountMap) Scan(src any) error {
	if src == nil {
		*m = CountMap{}
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("CountMap: unsupported Scan type %T", src)
	}

	if len(data) == 0 {
		*m = CountMap{}
		return nil
	}

	var raw map[string]json.Number
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		// Tolerate values of mixed types: fall back to a generic decode and
		// keep only the numeric entries.
		var loose map[string]any
		if err2 := json.Unmarshal(data, &loose); err2 != nil {
			return fmt.Errorf("CountMap: decode: %w", err)
		}
		out := make(CountMap, len(loose))
		for k, v := range loose {
			if f, ok := v.(float64); ok && f == float64(int64(f)) {
				out[k] = int64(f)
			}
		}
		*m = out
		return nil
	}

	out := make(CountMap, len(raw))
	for k, v := range raw {
		n, err := v.Int64()
		if err != nil {
			continue
		}
		out[k] = n
	}
	*m = out
	return nil
}
