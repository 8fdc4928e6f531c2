package events

import (
	"fmt"
	"strings"
)

const (
	maxValueRunes  = 180
	maxCollection  = 25
	maxNestedDepth = 4
)

// Sanitize drops keys that could hold player or model text and bounds the
// size of what remains.
func Sanitize(metadata map[string]any) map[string]any {
	out := map[string]any{}
	for key, value := range metadata {
		cleanKey := strings.TrimSpace(key)
		if cleanKey == "" || isRawTextKey(cleanKey) {
			continue
		}
		if cleanValue := sanitizeValue(value, 0); cleanValue != nil {
			out[cleanKey] = cleanValue
		}
	}
	return out
}

func sanitizeValue(value any, depth int) any {
	if depth >= maxNestedDepth || value == nil {
		return nil
	}

	switch typed := value.(type) {
	case string:
		trimmed := strings.TrimSpace(typed)
		if trimmed == "" {
			return nil
		}
		return truncateRunes(trimmed, maxValueRunes)
	case bool, float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return typed
	case []string:
		items := make([]any, 0, len(typed))
		for _, item := range typed {
			items = append(items, item)
		}
		return sanitizeValue(items, depth)
	case []any:
		items := make([]any, 0, len(typed))
		for _, item := range typed {
			if clean := sanitizeValue(item, depth+1); clean != nil {
				items = append(items, clean)
			}
			if len(items) == maxCollection {
				break
			}
		}
		if len(items) == 0 {
			return nil
		}
		return items
	case map[string]any:
		object := map[string]any{}
		for key, item := range typed {
			cleanKey := strings.TrimSpace(key)
			if cleanKey == "" || isRawTextKey(cleanKey) {
				continue
			}
			if clean := sanitizeValue(item, depth+1); clean != nil {
				object[cleanKey] = clean
			}
			if len(object) == maxCollection {
				break
			}
		}
		if len(object) == 0 {
			return nil
		}
		return object
	default:
		coerced := strings.TrimSpace(fmt.Sprintf("%v", typed))
		if coerced == "" || coerced == "<nil>" {
			return nil
		}
		return truncateRunes(coerced, maxValueRunes)
	}
}

func isRawTextKey(key string) bool {
	lower := strings.ToLower(key)
	for _, marker := range []string{"message", "response", "text", "content", "body", "argument", "introduction"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func truncateRunes(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}
