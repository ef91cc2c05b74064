package sqlbuild

import (
	"encoding/json"
	"fmt"
)

// EncodeFields serializes record fields for a JSON data column.
func EncodeFields(fields map[string]any) ([]byte, error) {
	if fields == nil {
		fields = map[string]any{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encoding record fields: %w", err)
	}
	return data, nil
}

// DecodeFields parses a JSON data column.
func DecodeFields(data []byte) (map[string]any, error) {
	fields := map[string]any{}
	if len(data) == 0 {
		return fields, nil
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decoding record fields: %w", err)
	}
	return fields, nil
}
