package tracer

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// RedactedValue replaces the matched portion of any captured string that
// hits a configured redaction pattern.
const RedactedValue = "[REDACTED]"

// nonSerializableSuffix tags fallback textual representations of values the
// JSON encoder cannot represent.
const nonSerializableSuffix = " [NON-SERIALIZABLE]"

// sanitizeValue runs the capture pipeline for a single value: redaction,
// JSON-safety, then string truncation. limit==0 means unlimited.
func sanitizeValue(value any, redact []*regexp.Regexp, limit int) any {
	value = redactValue(value, redact)
	value = safeValue(value)
	return truncateIfNeeded(value, limit)
}

// safeValue ensures a value is JSON-representable; values that are not are
// replaced with a tagged textual fallback.
func safeValue(value any) any {
	switch value.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return value
	}
	if _, err := json.Marshal(value); err != nil {
		return fmt.Sprintf("%v%s", value, nonSerializableSuffix)
	}
	return value
}

// truncateIfNeeded bounds string values at limit characters, suffixing a
// marker that records the original length. Slicing happens on rune
// boundaries so a multi-byte character is never split into invalid UTF-8.
// Non-string values pass through.
func truncateIfNeeded(value any, limit int) any {
	if limit <= 0 {
		return value
	}
	s, ok := value.(string)
	if !ok || len(s) <= limit {
		return value
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return value
	}
	return fmt.Sprintf("%s... [TRUNCATED: original_size=%d]", string(runes[:limit]), len(runes))
}

// redactValue walks a value and rewrites every string that matches a
// redaction pattern. Maps and slices are copied, never mutated in place.
func redactValue(value any, redact []*regexp.Regexp) any {
	if len(redact) == 0 || value == nil {
		return value
	}
	switch v := value.(type) {
	case string:
		for _, re := range redact {
			v = re.ReplaceAllString(v, RedactedValue)
		}
		return v
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			out[key] = redactValue(val, redact)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = redactValue(val, redact)
		}
		return out
	default:
		return value
	}
}
