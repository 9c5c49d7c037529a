package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Declaration holds the partial or complete declaration fields of a
// registration record as an arbitrary JSON object. Field semantics are
// schema-driven per event kind; the projection owns merge behavior.
type Declaration map[string]any

// Value serializes the declaration to JSON for a JSONB column.
func (d Declaration) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	return json.Marshal(d)
}

// Scan decodes JSONB into the declaration.
func (d *Declaration) Scan(value interface{}) error {
	if value == nil {
		*d = nil
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	var decoded Declaration
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	*d = decoded
	return nil
}

// Clone returns a deep copy produced through a JSON round trip.
func (d Declaration) Clone() Declaration {
	if d == nil {
		return nil
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return nil
	}
	var out Declaration
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// StringField returns the trimmed string stored under key, or "".
func (d Declaration) StringField(key string) string {
	if d == nil {
		return ""
	}
	if v, ok := d[key].(string); ok {
		return v
	}
	return ""
}

func asJSON(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	return nil, fmt.Errorf("unsupported jsonb source %T", value)
}
