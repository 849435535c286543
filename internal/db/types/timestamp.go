package types

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// Layout is the fixed-width UTC text layout used for every timestamp column.
// Fixed width keeps lexical and chronological order identical, which lets
// range filters and ORDER BY work on the raw TEXT values.
const Layout = "2006-01-02T15:04:05.000Z"

var parseLayouts = []string{
	Layout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// Timestamp represents a SQLite timestamp stored as TEXT.
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to the stored millisecond precision.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Millisecond)}
}

// Now returns the current time at stored precision.
func Now() Timestamp {
	return NewTimestamp(time.Now())
}

// Format renders t in the storage layout.
func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

// Parse reads a stored timestamp, accepting the storage layout as well as
// RFC 3339 and SQLite's datetime() output.
func Parse(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range parseLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			return parsed.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// Scan implements sql.Scanner for Timestamp.
func (t *Timestamp) Scan(value interface{}) error {
	if value == nil {
		t.Time = time.Time{}
		return nil
	}
	switch v := value.(type) {
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return err
		}
		t.Time = parsed
		return nil
	case []byte:
		return t.Scan(string(v))
	case time.Time:
		t.Time = v.UTC()
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Timestamp", value)
	}
}

// Value implements driver.Valuer for Timestamp.
func (t Timestamp) Value() (driver.Value, error) {
	if t.Time.IsZero() {
		return nil, nil
	}
	return Format(t.Time), nil
}

// MarshalJSON implements json.Marshaler for Timestamp.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + Format(t.Time) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for Timestamp.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}
	return t.Time.UnmarshalJSON(data)
}

// NullTimestamp represents a nullable SQLite timestamp.
type NullTimestamp struct {
	Timestamp
	Valid bool
}

// NewNullTimestamp returns a valid NullTimestamp for t.
func NewNullTimestamp(t time.Time) NullTimestamp {
	return NullTimestamp{Timestamp: NewTimestamp(t), Valid: true}
}

// Scan implements sql.Scanner for NullTimestamp.
func (nt *NullTimestamp) Scan(value interface{}) error {
	if value == nil {
		nt.Timestamp = Timestamp{}
		nt.Valid = false
		return nil
	}
	nt.Valid = true
	return nt.Timestamp.Scan(value)
}

// Value implements driver.Valuer for NullTimestamp.
func (nt NullTimestamp) Value() (driver.Value, error) {
	if !nt.Valid {
		return nil, nil
	}
	return nt.Timestamp.Value()
}

// MarshalJSON implements json.Marshaler for NullTimestamp.
func (nt NullTimestamp) MarshalJSON() ([]byte, error) {
	if !nt.Valid {
		return []byte("null"), nil
	}
	return nt.Timestamp.MarshalJSON()
}

// UnmarshalJSON implements json.Unmarshaler for NullTimestamp.
func (nt *NullTimestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		nt.Valid = false
		nt.Timestamp = Timestamp{}
		return nil
	}
	nt.Valid = true
	return nt.Timestamp.UnmarshalJSON(data)
}
