// Package safety screens player-supplied text that other players will see,
// such as saved topics and room display names.
package safety

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const maxDisplayNameRunes = 64

var (
	ErrEmpty     = errors.New("content cannot be empty")
	ErrTooLong   = errors.New("content exceeds max length")
	ErrProfanity = errors.New("content failed profanity check")
	ErrLinks     = errors.New("content failed link spam check")
	ErrControl   = errors.New("content contains control characters")
)

var (
	profanityPattern = regexp.MustCompile(`(?i)\b(fuck|shit|bitch|asshole|dick|cunt)\b`)
	linkPattern      = regexp.MustCompile(`(?i)https?://|www\.`)
)

// ValidateTopic rejects links: saved topics are listed to every player.
func ValidateTopic(topic string, maxLen int) error {
	return validate(topic, maxLen, 0)
}

// ValidateDisplayName checks a room participant name.
func ValidateDisplayName(name string) error {
	if err := validate(name, maxDisplayNameRunes, 0); err != nil {
		return err
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return ErrControl
		}
	}
	return nil
}

func validate(content string, maxLen, maxLinks int) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ErrEmpty
	}
	if maxLen > 0 && len([]rune(trimmed)) > maxLen {
		return fmt.Errorf("%w (%d characters)", ErrTooLong, maxLen)
	}
	if profanityPattern.MatchString(trimmed) {
		return ErrProfanity
	}
	if len(linkPattern.FindAllStringIndex(trimmed, -1)) > maxLinks {
		return ErrLinks
	}
	return nil
}
