package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap is a free-form string map stored in a jsonb column. Cart lines use
// it for variant metadata such as selected_size and selected_color.
type JSONMap map[string]string

// Value marshals the map into jsonb.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan decodes jsonb back into the map.
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}

	raw, ok := toBytes(value)
	if !ok {
		return fmt.Errorf("json map: unsupported scan type %T", value)
	}

	out := JSONMap{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("json map: decode %w", err)
	}
	*m = out
	return nil
}

// Clone returns a shallow copy, safe to mutate.
func (m JSONMap) Clone() JSONMap {
	out := make(JSONMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func toBytes(value interface{}) ([]byte, bool) {
	switch v := value.(type) {
	case []byte:
		return v, true
	case string:
		return []byte(v), true
	default:
		return nil, false
	}
}
