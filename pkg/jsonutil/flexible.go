// Package jsonutil tolerates the loose typing of model-produced JSON.
package jsonutil

import (
	"encoding/json"
	"fmt"
)

// FlexibleStringValue reads a raw JSON value as a string, coercing numbers
// and booleans that models sometimes emit in string-typed fields. Null and
// empty values become "". Objects and arrays fall back to their raw text.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n == float64(int64(n)) {
			return fmt.Sprintf("%d", int64(n))
		}
		return fmt.Sprintf("%g", n)
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return fmt.Sprintf("%t", b)
	}

	return string(raw)
}
