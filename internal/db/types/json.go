package types

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSON is a JSON document stored in a TEXT column. A nil JSON is NULL.
type JSON json.RawMessage

// MustJSON marshals v, panicking on failure. Intended for literals in tests
// and fixtures.
func MustJSON(v any) JSON {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return JSON(data)
}

// IsNull reports whether j represents SQL NULL.
func (j JSON) IsNull() bool {
	return len(j) == 0 || bytes.Equal(j, []byte("null"))
}

// Unmarshal decodes the document into v.
func (j JSON) Unmarshal(v any) error {
	if j.IsNull() {
		return nil
	}
	return json.Unmarshal(j, v)
}

// Scan implements sql.Scanner for JSON.
func (j *JSON) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = nil
		return nil
	case string:
		*j = append((*j)[:0], v...)
	case []byte:
		*j = append((*j)[:0], v...)
	default:
		return fmt.Errorf("cannot scan %T into JSON", value)
	}
	if !json.Valid(*j) {
		return fmt.Errorf("column holds invalid JSON")
	}
	return nil
}

// Value implements driver.Valuer for JSON.
func (j JSON) Value() (driver.Value, error) {
	if j.IsNull() {
		return nil, nil
	}
	if !json.Valid(j) {
		return nil, fmt.Errorf("invalid JSON value")
	}
	return string(j), nil
}

// MarshalJSON implements json.Marshaler for JSON.
func (j JSON) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON implements json.Unmarshaler for JSON.
func (j *JSON) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*j = nil
		return nil
	}
	*j = append((*j)[:0], data...)
	return nil
}
