package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Images is an ordered list of image payloads or URLs. It is persisted in the
// local store as a JSON array in a single TEXT column.
type Images []string

// Value implements [driver.Valuer].
func (i Images) Value() (driver.Value, error) {
	if i == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(i))
	if err != nil {
		return nil, fmt.Errorf("encode images: %w", err)
	}
	return string(b), nil
}

// Scan implements [sql.Scanner].
func (i *Images) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*i = Images{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported images column type %T", src)
	}

	if len(raw) == 0 {
		*i = Images{}
		return nil
	}

	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("decode images: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*i = out
	return nil
}
