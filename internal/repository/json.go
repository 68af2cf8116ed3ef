package repository

import "encoding/json"

// marshalJSON renders v for a TEXT column, falling back to the given zero
// literal on error or nil input.
func marshalJSON(v any, zero string) string {
	b, err := json.Marshal(v)
	if err != nil || b == nil || string(b) == "null" {
		return zero
	}
	return string(b)
}

// unmarshalJSON fills v from a TEXT column, tolerating empty cells.
func unmarshalJSON(data string, v any) error {
	if data == "" {
		return nil
	}
	return json.Unmarshal([]byte(data), v)
}
