package common

import "strings"

func TruncateRunes(value string, maxRunes int) string {
	trimmed := strings.TrimSpace(value)
	if maxRunes <= 0 {
		return trimmed
	}

	runes := []rune(trimmed)
	if len(runes) <= maxRunes {
		return trimmed
	}
	return strings.TrimSpace(string(runes[:maxRunes]))
}

// SpaceWords splits on the space character only, dropping empty pieces.
// Newlines and tabs stay inside words.
func SpaceWords(value string) []string {
	return strings.FieldsFunc(value, func(r rune) bool { return r == ' ' })
}

func FirstNonEmpty(values ...string) string {
	for _, value := range values {
		if clean := strings.TrimSpace(value); clean != "" {
			return clean
		}
	}
	return ""
}
