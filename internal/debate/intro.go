package debate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"debatearena/internal/ai"
	"debatearena/internal/common"
	"debatearena/internal/events"
	"debatearena/internal/observability"
)

type IntroRequest struct {
	CharacterID string
	Topic       string
	AISide      string
}

type Introduction struct {
	Introduction string `json:"introduction"`
	Character    string `json:"character"`
	Level        string `json:"level"`
}

// Introduce writes the persona's opening line. An empty completion and a
// failed call get different canned openings; neither is an error.
func (s *Service) Introduce(ctx context.Context, req IntroRequest) Introduction {
	persona := s.characters.Lookup(req.CharacterID)
	topic := strings.TrimSpace(req.Topic)
	side := common.FirstNonEmpty(req.AISide, DefaultAISide)

	out := Introduction{Character: persona.Name, Level: persona.Level}

	var (
		text string
		err  = errors.New("no model client configured")
	)
	if s.llm != nil {
		text, err = s.call(ctx, "introduction", func(ctx context.Context) (string, error) {
			return s.llm.Introduction(ctx, ai.IntroContext{
				Name:        persona.Name,
				Level:       persona.Level,
				Personality: persona.Personality,
				Topic:       topic,
				AISide:      side,
			})
		})
	}

	switch {
	case err == nil && strings.TrimSpace(text) != "":
		out.Introduction = strings.TrimSpace(text)
	case err == nil || errors.Is(err, ai.ErrEmptyCompletion):
		out.Introduction = fmt.Sprintf("Let's debate \"%s\". I'm arguing %s. What are your thoughts?", topic, side)
	default:
		s.logger.Warn("introduction_failed", observability.Fields{"character": persona.ID, "error": err})
		out.Introduction = fmt.Sprintf("I'm %s. Let's debate \"%s\". I'm arguing %s. What's your first point?", persona.Name, topic, side)
	}

	s.events.Record(ctx, events.EventIntroductionSent, map[string]any{
		"character": persona.ID,
		"level":     persona.Level,
		"ai_side":   side,
	})
	return out
}
