package api

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"debatearena/internal/safety"
	"debatearena/internal/topics"
)

const maxRoomNameRunes = 128

var roomNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// validateTopic returns the trimmed topic or the message the client shows.
// Length caps and content screening apply only when configured.
func validateTopic(value string, maxLen int, screen bool) (string, error) {
	clean, err := topics.Normalize(value)
	if err != nil {
		return "", errors.New("Topic must be at least 10 characters")
	}
	if maxLen > 0 && len([]rune(clean)) > maxLen {
		return "", fmt.Errorf("Topic must be at most %d characters", maxLen)
	}
	if !screen {
		return clean, nil
	}
	switch err := safety.ValidateTopic(clean, 0); {
	case err == nil:
		return clean, nil
	case errors.Is(err, safety.ErrLinks):
		return "", errors.New("Topic must not contain links")
	default:
		return "", errors.New("Topic contains disallowed language")
	}
}

func validateRoomName(value string) (string, error) {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return "", nil
	}
	if len([]rune(clean)) > maxRoomNameRunes || !roomNameRegex.MatchString(clean) {
		return "", errors.New("roomName is invalid")
	}
	return clean, nil
}

func validateParticipantName(value string) (string, error) {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return "", errors.New("participantName is required")
	}
	if err := safety.ValidateDisplayName(clean); err != nil {
		return "", errors.New("participantName is invalid")
	}
	return clean, nil
}
