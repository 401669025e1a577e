package topology

import "strconv"

// Helpers for picking fields out of loosely typed appliance records. The
// monitor and cmdb APIs disagree on types between firmware versions (speed
// is sometimes the string "auto", results is sometimes a list), so every
// accessor tolerates the wrong shape and falls back to a default.

// stringField returns m[key] if it is a string, otherwise "".
func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// stringOr returns m[key] if it is a non-empty string, otherwise fallback.
func stringOr(m map[string]any, key, fallback string) string {
	if s := stringField(m, key); s != "" {
		return s
	}
	return fallback
}

// intOr coerces m[key] to an int, accepting JSON numbers and numeric
// strings. Anything else yields fallback.
func intOr(m map[string]any, key string, fallback int) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// mapField returns m[key] if it is an object, otherwise an empty map.
func mapField(m map[string]any, key string) map[string]any {
	if v, ok := m[key].(map[string]any); ok {
		return v
	}
	return map[string]any{}
}

// firstResult normalizes a results value that may be a single object or a
// list of objects into one record.
func firstResult(v any) map[string]any {
	switch r := v.(type) {
	case map[string]any:
		return r
	case []any:
		for _, item := range r {
			if m, ok := item.(map[string]any); ok {
				return m
			}
		}
	}
	return map[string]any{}
}
