package debate

import (
	"fmt"
	"regexp"
	"strings"

	"debatearena/internal/common"
)

const (
	minReplyWords      = 30
	maxReplyWords      = 80
	maxReplySentences  = 4
	truncatedWordCount = 60

	shortReplySuffix = " This connects to broader questions about %s that deserve consideration. What's your take on that?"
	truncatedSuffix  = "... What are your thoughts?"
	questionSuffix   = " How would you respond to that?"
)

var (
	leadingLabelPattern = regexp.MustCompile(`(?i)^(Response:|AI:|Assistant:|Here's my response:|My response:)`)
	quotePattern        = regexp.MustCompile(`["']`)
	sentenceBreak       = regexp.MustCompile(`[.!?]+`)
)

// Polish normalizes a primary model reply: it strips role labels and quote
// characters, repairs replies that are too short or too long, and makes sure
// the reply ends the turn with a question.
func Polish(raw, topic string) string {
	text := clean(raw)

	words := common.SpaceWords(text)
	switch {
	case len(words) < minReplyWords:
		text += fmt.Sprintf(shortReplySuffix, topic)
	case len(words) > maxReplyWords:
		sentences := splitSentences(text)
		if len(sentences) > maxReplySentences {
			text = strings.Join(sentences[:maxReplySentences], ". ") + "."
		} else {
			text = strings.Join(words[:truncatedWordCount], " ") + truncatedSuffix
		}
	}

	return ensureQuestion(text)
}

// PolishQuick applies the same cleanup as Polish without length repair.
func PolishQuick(raw string) string {
	text := clean(raw)
	if text == "" {
		return ""
	}
	return ensureQuestion(text)
}

func clean(raw string) string {
	text := leadingLabelPattern.ReplaceAllString(raw, "")
	text = quotePattern.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

func ensureQuestion(text string) string {
	if strings.Contains(text, "?") {
		return text
	}
	return text + questionSuffix
}

// splitSentences returns the trimmed text between terminators, dropping blank
// pieces. The terminators themselves are lost.
func splitSentences(text string) []string {
	parts := sentenceBreak.Split(text, -1)
	sentences := make([]string, 0, len(parts))
	for _, part := range parts {
		if clean := strings.TrimSpace(part); clean != "" {
			sentences = append(sentences, clean)
		}
	}
	return sentences
}
