package utils

import (
	"bytes"
	"encoding/json"
)

// MarshalIndent encodes v as indented JSON without escaping <, > and &, so
// Turkish text and URLs stay readable in the published files.
func MarshalIndent(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
