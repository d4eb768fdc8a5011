package query

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Decode reads a query document into an untyped value suitable for Parse.
// Input starting with '{' or '[' is decoded as JSON; anything else as YAML.
//
// Decode failures are plain errors, not ValidationErrors: the bytes never
// became a document.
func Decode(data []byte) (any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty query document")
	}

	var doc any
	if trimmed[0] == '{' || trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("decode JSON query: %w", err)
		}
		return doc, nil
	}
	if err := yaml.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("decode YAML query: %w", err)
	}
	return doc, nil
}
