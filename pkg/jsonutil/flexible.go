package jsonutil

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexibleStringValue converts a json.RawMessage to a string, handling cases where
// LLMs return numbers or booleans instead of strings. Returns empty string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	// Try string first
	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	// Try number
	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return fmt.Sprintf("%d", int64(numVal))
		}
		return fmt.Sprintf("%g", numVal)
	}

	// Try boolean
	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return fmt.Sprintf("%t", boolVal)
	}

	// Fallback: return raw string representation
	return string(raw)
}

// FlexibleStringSlice converts a json.RawMessage to a string slice, handling
// cases where LLMs return a single string, a comma-separated string, or a
// list of mixed scalar types instead of a string array. Returns nil for
// null/empty.
func FlexibleStringSlice(raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	// Try a list of raw values first so mixed-type entries each get coerced
	var rawItems []json.RawMessage
	if err := json.Unmarshal(raw, &rawItems); err == nil {
		out := make([]string, 0, len(rawItems))
		for _, item := range rawItems {
			if s := strings.TrimSpace(FlexibleStringValue(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	}

	// Single string, possibly comma-separated
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		parts := strings.Split(single, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				out = append(out, s)
			}
		}
		return out
	}

	return nil
}

// FlexibleScore converts a json.RawMessage to a relevance score normalized to
// the 0.0-1.0 range. Upstream producers are inconsistent: some emit 0.0-1.0
// floats, some 0-100 integers, and some numeric strings. Values above 1 are
// treated as percentages. Returns 0 for anything unparseable and clamps the
// result into [0,1].
func FlexibleScore(raw json.RawMessage) float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return 0
	}

	var num float64
	if err := json.Unmarshal(raw, &num); err != nil {
		// Numeric string, e.g. "0.85" or "85"
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			return 0
		}
		num = parsed
	}

	if num > 1 {
		num = num / 100
	}
	if num < 0 {
		return 0
	}
	if num > 1 {
		return 1
	}
	return num
}
