package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// TimeLayout is the text encoding of every stored timestamp. Fixed width
// UTC keeps lexical order equal to chronological order, so ORDER BY and
// range filters work on the TEXT columns of every dialect.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

// FormatTime encodes t for storage
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime decodes a stored timestamp
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// NullTime encodes an optional timestamp
func NullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: FormatTime(*t), Valid: true}
}

// ParseNullTime decodes an optional timestamp
func ParseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := ParseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// NullString maps "" to NULL
func NullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// NullInt maps a nil pointer to NULL
func NullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

// IntPtr decodes an optional integer column
func IntPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

// NullFloat maps a nil pointer to NULL
func NullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// FloatPtr decodes an optional float column
func FloatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

// Bool encodes a flag as 0/1, which every dialect stores in an INTEGER column
func Bool(b bool) int {
	if b {
		return 1
	}
	return 0
}

// EncodeJSON serializes a structured sub-object into a text column
func EncodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode column: %w", err)
	}
	return string(b), nil
}

// DecodeJSON deserializes a text column written by EncodeJSON. NULL and
// empty columns leave v untouched.
func DecodeJSON(ns sql.NullString, v any) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(ns.String), v); err != nil {
		return fmt.Errorf("failed to decode column: %w", err)
	}
	return nil
}
