// Package payload reads loosely typed JSON documents decoded into
// map[string]any. Feeds drift between revisions, so every accessor takes an
// ordered list of candidate paths and returns the first usable value.
package payload

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Lookup resolves a dotted path ("homeTeam.id") against src.
func Lookup(src map[string]any, path string) (any, bool) {
	if src == nil || path == "" {
		return nil, false
	}
	current := any(src)
	for _, part := range strings.Split(path, ".") {
		obj := Object(current)
		if obj == nil {
			return nil, false
		}
		next, ok := obj[part]
		if !ok || next == nil {
			return nil, false
		}
		current = next
	}
	return current, true
}

// First returns the first non-nil value among paths.
func First(src map[string]any, paths ...string) (any, bool) {
	for _, path := range paths {
		if value, ok := Lookup(src, path); ok {
			return value, true
		}
	}
	return nil, false
}

// Has reports whether any of paths resolves to a non-empty value.
func Has(src map[string]any, paths ...string) bool {
	return String(src, paths...) != ""
}

// String returns the first non-empty value among paths, formatting numbers
// without exponent so numeric ids compare equal to their string form.
func String(src map[string]any, paths ...string) string {
	for _, path := range paths {
		value, ok := Lookup(src, path)
		if !ok {
			continue
		}
		if text := AsString(value); text != "" {
			return text
		}
	}
	return ""
}

func AsString(value any) string {
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case float64:
		if typed == math.Trunc(typed) {
			return strconv.FormatInt(int64(typed), 10)
		}
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case bool:
		return strconv.FormatBool(typed)
	default:
		return ""
	}
}

// Int returns the first value among paths that coerces to an integer.
func Int(src map[string]any, paths ...string) (int, bool) {
	for _, path := range paths {
		value, ok := Lookup(src, path)
		if !ok {
			continue
		}
		if n, ok := AsInt(value); ok {
			return n, true
		}
	}
	return 0, false
}

// IntOrZero coerces like Int and falls back to zero.
func IntOrZero(src map[string]any, paths ...string) int {
	n, _ := Int(src, paths...)
	return n
}

func AsInt(value any) (int, bool) {
	switch typed := value.(type) {
	case float64:
		if math.IsNaN(typed) || math.IsInf(typed, 0) {
			return 0, false
		}
		return int(typed), true
	case float32:
		return int(typed), true
	case int:
		return typed, true
	case int64:
		return int(typed), true
	case string:
		text := strings.TrimSpace(typed)
		if text == "" {
			return 0, false
		}
		if n, err := strconv.Atoi(text); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return int(f), true
		}
		return 0, false
	default:
		return 0, false
	}
}

func Bool(src map[string]any, paths ...string) (bool, bool) {
	for _, path := range paths {
		value, ok := Lookup(src, path)
		if !ok {
			continue
		}
		switch typed := value.(type) {
		case bool:
			return typed, true
		case float64:
			return typed != 0, true
		case string:
			if parsed, err := strconv.ParseBool(strings.TrimSpace(typed)); err == nil {
				return parsed, true
			}
		}
	}
	return false, false
}

// Object unwraps a map, following a single "data" envelope when present.
func Object(value any) map[string]any {
	obj, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	if data, ok := obj["data"].(map[string]any); ok && len(obj) == 1 {
		return data
	}
	return obj
}

// Objects returns the map elements of the first array found among paths.
func Objects(src map[string]any, paths ...string) []map[string]any {
	for _, path := range paths {
		value, ok := Lookup(src, path)
		if !ok {
			continue
		}
		if items, ok := value.([]any); ok {
			return ObjectsOf(items)
		}
	}
	return nil
}

func ObjectsOf(items []any) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// Time parses the provider timestamp formats; values without an offset are
// taken as UTC. Unparsable input yields nil.
func Time(raw string) *time.Time {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			v := parsed.UTC()
			return &v
		}
	}
	if epoch, err := strconv.ParseInt(value, 10, 64); err == nil && epoch > 0 {
		if epoch > 1e12 {
			epoch /= 1000
		}
		v := time.Unix(epoch, 0).UTC()
		return &v
	}
	return nil
}

func FirstNonEmpty(values ...string) string {
	for _, item := range values {
		if strings.TrimSpace(item) != "" {
			return strings.TrimSpace(item)
		}
	}
	return ""
}

// Abbreviate trims body text for log lines.
func Abbreviate(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
