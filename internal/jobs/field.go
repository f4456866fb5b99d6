package jobs

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Field is an optional text value scraped from a posting.
// The zero Field is missing, which is not the same as a present empty string.
type Field struct {
	String string
	Valid  bool
}

// Some returns a present field holding s
func Some(s string) Field {
	return Field{String: s, Valid: true}
}

// Missing returns an absent field
func Missing() Field {
	return Field{}
}

// Or returns the value when present, def otherwise
func (f Field) Or(def string) string {
	if !f.Valid {
		return def
	}
	return f.String
}

// Map applies fn to a present value and leaves a missing one untouched
func (f Field) Map(fn func(string) string) Field {
	if !f.Valid {
		return f
	}
	return Some(fn(f.String))
}

// Value implements driver.Valuer; missing fields are stored as NULL
func (f Field) Value() (driver.Value, error) {
	if !f.Valid {
		return nil, nil
	}
	return f.String, nil
}

// Scan implements sql.Scanner
func (f *Field) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*f = Field{}
	case string:
		*f = Some(v)
	case []byte:
		*f = Some(string(v))
	default:
		return fmt.Errorf("jobs.Field: cannot scan %T", src)
	}
	return nil
}

// MarshalJSON encodes a missing field as null
func (f Field) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.String)
}

// UnmarshalJSON decodes null as missing
func (f *Field) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Field{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = Some(s)
	return nil
}
