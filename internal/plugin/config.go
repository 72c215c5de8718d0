package plugin

import (
	"encoding/json"
	"fmt"
	"strings"
)

// String returns cfg[key] as a trimmed string, or fallback when unset or
// not a string.
func String(cfg Config, key, fallback string) string {
	if s, ok := cfg[key].(string); ok {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return fallback
}

// Int returns cfg[key] as a positive int, or fallback.
func Int(cfg Config, key string, fallback int) int {
	switch t := cfg[key].(type) {
	case int:
		if t > 0 {
			return t
		}
	case int64:
		if t > 0 {
			return int(t)
		}
	case float64:
		if int(t) > 0 {
			return int(t)
		}
	case json.Number:
		if i, err := t.Int64(); err == nil && i > 0 {
			return int(i)
		}
	case string:
		var parsed int
		if _, err := fmt.Sscanf(t, "%d", &parsed); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

// Strings returns cfg[key] as a list of non-empty strings.
func Strings(cfg Config, key string) []string {
	var out []string
	switch t := cfg[key].(type) {
	case []string:
		for _, item := range t {
			if s := strings.TrimSpace(item); s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case string:
		if s := strings.TrimSpace(t); s != "" {
			out = append(out, s)
		}
	}
	return out
}
