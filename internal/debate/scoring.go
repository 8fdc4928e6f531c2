package debate

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"

	"debatearena/internal/character"
	"debatearena/internal/events"
	"debatearena/internal/observability"
)

const (
	defaultRelevance = 5
	minRelevance     = 1
	maxRelevance     = 10

	messageDefaultScore = "Default score applied"
	errorScoringFailed  = "Scoring failed, default applied"
)

var firstInteger = regexp.MustCompile(`-?\d+`)

type ScoreRequest struct {
	Response       string
	Topic          string
	CharacterLevel string
}

type ScoreResult struct {
	Relevance  int     `json:"relevance"`
	FinalScore int     `json:"finalScore"`
	Multiplier float64 `json:"multiplier"`
	Level      string  `json:"level,omitempty"`
	Message    string  `json:"message,omitempty"`
	Error      string  `json:"error,omitempty"`
}

func neutralScore() ScoreResult {
	return ScoreResult{Relevance: defaultRelevance, FinalScore: defaultRelevance, Multiplier: 1}
}

// Score rates req.Response against req.Topic. It never fails: missing input
// and model errors both yield the neutral score.
func (s *Service) Score(ctx context.Context, req ScoreRequest) ScoreResult {
	if strings.TrimSpace(req.Response) == "" || strings.TrimSpace(req.Topic) == "" {
		result := neutralScore()
		result.Message = messageDefaultScore
		return result
	}
	if s.llm == nil {
		result := neutralScore()
		result.Error = errorScoringFailed
		return result
	}

	raw, err := s.call(ctx, "rate_relevance", func(ctx context.Context) (string, error) {
		return s.llm.RateRelevance(ctx, req.Response, req.Topic)
	})
	if err != nil {
		s.logger.Warn("scoring_failed", observability.Fields{"level": req.CharacterLevel, "error": err})
		result := neutralScore()
		result.Error = errorScoringFailed
		return result
	}

	relevance := ParseRelevance(raw)
	multiplier := character.LevelMultiplier(req.CharacterLevel)
	result := ScoreResult{
		Relevance:  relevance,
		FinalScore: int(math.Round(float64(relevance) * multiplier)),
		Multiplier: multiplier,
		Level:      req.CharacterLevel,
	}

	s.events.Record(ctx, events.EventResponseScored, map[string]any{
		"level":       req.CharacterLevel,
		"relevance":   result.Relevance,
		"final_score": result.FinalScore,
	})
	return result
}

// ParseRelevance reads the first integer in a judge completion and clamps it
// to 1..10. A completion with no integer scores 5.
func ParseRelevance(raw string) int {
	match := firstInteger.FindString(raw)
	if match == "" {
		return defaultRelevance
	}
	value, err := strconv.Atoi(match)
	if err != nil {
		// Too many digits to be a rating.
		if strings.HasPrefix(match, "-") {
			return minRelevance
		}
		return maxRelevance
	}
	if value < minRelevance {
		return minRelevance
	}
	if value > maxRelevance {
		return maxRelevance
	}
	return value
}
