package debate

import (
	"strings"

	"debatearena/internal/character"
)

const defaultKeyPoint = "your point"

var stopWords = map[string]struct{}{
	"i": {}, "you": {}, "the": {}, "and": {}, "but": {},
	"for": {}, "with": {}, "that": {}, "this": {},
}

// LocalReply builds the terminal fallback from the persona's template. It
// makes no external calls and cannot fail.
func LocalReply(persona character.Character, userMessage, topic, aiSide string) string {
	return persona.FallbackText(KeyPoint(userMessage), topic, aiSide)
}

// KeyPoint picks up to two content words from the player's message.
func KeyPoint(userMessage string) string {
	keywords := make([]string, 0, 2)
	for _, word := range strings.Split(strings.ToLower(userMessage), " ") {
		if len([]rune(word)) <= 3 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		keywords = append(keywords, word)
		if len(keywords) == 2 {
			break
		}
	}
	if len(keywords) == 0 {
		return defaultKeyPoint
	}
	return strings.Join(keywords, " ")
}
