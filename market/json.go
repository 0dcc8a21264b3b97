// Package market reads the secondary market sources: dividend and target
// price feeds, the live quote table and brokerage research pages.
package market

import (
	"encoding/json"
	"fmt"

	"bistscrapper/utils"
)

// Row is one entry of a JSON feed. Feeds are passed through with their own
// keys, so rows stay loosely typed.
type Row = map[string]any

// ParseRows decodes a JSON array of objects and repairs mangled Turkish
// letters in every string, keys included. An empty body is an empty list.
func ParseRows(body []byte) ([]Row, error) {
	rows := []Row{}
	if len(body) == 0 {
		return rows, nil
	}
	var raw []any
	if err := json.Unmarshal(body, &raw); err != nil {
		return rows, fmt.Errorf("decode feed: %w", err)
	}
	for _, v := range raw {
		if obj, ok := Repair(v).(map[string]any); ok {
			rows = append(rows, obj)
		}
	}
	return rows, nil
}

// Repair walks a decoded JSON value and fixes the encoding of every string
// in it.
func Repair(v any) any {
	switch t := v.(type) {
	case string:
		return utils.RepairEncoding(t)
	case []any:
		for i := range t {
			t[i] = Repair(t[i])
		}
		return t
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[utils.RepairEncoding(k)] = Repair(val)
		}
		return out
	}
	return v
}

// RepairJSON repairs the encoding inside any JSON document and re-encodes
// it. The result is checked to still be valid JSON.
func RepairJSON(body []byte) ([]byte, error) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return utils.MarshalIndent(Repair(v))
}
