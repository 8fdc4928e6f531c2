// Package debate turns player arguments into persona replies, scores replies
// for relevance and writes persona introductions. Every exported operation
// degrades to a usable answer when the language model is unavailable.
package debate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"debatearena/internal/ai"
	"debatearena/internal/character"
	"debatearena/internal/common"
	"debatearena/internal/events"
	"debatearena/internal/observability"
)

const (
	MinUserMessageLength = 3
	MinTopicLength       = 5
	HistoryWindow        = 3

	DefaultUserSide = "pro"
	DefaultAISide   = "con"

	// TimestampLayout matches the millisecond UTC form browsers produce.
	TimestampLayout = "2006-01-02T15:04:05.000Z"
)

const (
	RoleUser = "user"
	RoleAI   = "ai"
)

const (
	TierPrimary = "primary"
	TierQuick   = "quick"
	TierLocal   = "local"
)

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(message string) error {
	return &ValidationError{Message: message}
}

type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type TurnRequest struct {
	UserMessage string
	CharacterID string
	Topic       string
	UserSide    string
	AISide      string
	History     []Turn
}

type Reply struct {
	Response        string          `json:"response"`
	Character       string          `json:"character"`
	CharacterName   string          `json:"characterName"`
	Level           string          `json:"level"`
	VoiceConfig     character.Voice `json:"voiceConfig"`
	BasePoints      int             `json:"basePoints"`
	LevelMultiplier float64         `json:"levelMultiplier"`
	Success         bool            `json:"success"`
	Fallback        bool            `json:"fallback,omitempty"`
	Timestamp       string          `json:"timestamp"`
	Tier            string          `json:"-"`
}

type Options struct {
	LLM        ai.LLMClient
	Characters *character.Registry
	Metrics    *observability.APIMetrics
	Logger     *observability.Logger
	Events     *events.Recorder
	// UserMessageMaxLen bounds the argument text; zero means unbounded.
	UserMessageMaxLen int
}

type Service struct {
	llm               ai.LLMClient
	characters        *character.Registry
	metrics           *observability.APIMetrics
	logger            *observability.Logger
	events            *events.Recorder
	userMessageMaxLen int
	now               func() time.Time
}

func NewService(opts Options) *Service {
	characters := opts.Characters
	if characters == nil {
		characters = character.Builtin()
	}
	return &Service{
		llm:               opts.LLM,
		characters:        characters,
		metrics:           opts.Metrics,
		logger:            opts.Logger,
		events:            opts.Events,
		userMessageMaxLen: opts.UserMessageMaxLen,
		now:               time.Now,
	}
}

func (s *Service) Characters() *character.Registry {
	return s.characters
}

// Respond validates req and returns the persona's reply. Only validation
// problems produce an error; model failures walk the fallback chain.
func (s *Service) Respond(ctx context.Context, req TurnRequest) (Reply, error) {
	userMessage := strings.TrimSpace(req.UserMessage)
	if len([]rune(userMessage)) < MinUserMessageLength {
		return Reply{}, invalid("User message too short")
	}
	if s.userMessageMaxLen > 0 && len([]rune(userMessage)) > s.userMessageMaxLen {
		return Reply{}, invalid(fmt.Sprintf("User message must be at most %d characters", s.userMessageMaxLen))
	}
	topic := strings.TrimSpace(req.Topic)
	if len([]rune(topic)) < MinTopicLength {
		return Reply{}, invalid("Topic is required")
	}

	persona := s.characters.Lookup(req.CharacterID)
	debateCtx := ai.DebateContext{
		Name:         persona.Name,
		Level:        persona.Level,
		Personality:  persona.Personality,
		SystemPrompt: persona.SystemPrompt,
		Model:        persona.Model,
		Topic:        topic,
		AISide:       common.FirstNonEmpty(req.AISide, DefaultAISide),
		UserSide:     common.FirstNonEmpty(req.UserSide, DefaultUserSide),
		UserMessage:  userMessage,
		History:      historyLines(req.History, persona.Name),
	}

	text, tier := s.generate(ctx, persona, debateCtx)
	reply := s.reply(persona, text, tier)

	s.events.Record(ctx, events.EventDebateTurn, map[string]any{
		"character": persona.ID,
		"level":     persona.Level,
		"tier":      tier,
		"ai_side":   debateCtx.AISide,
		"words":     len(common.SpaceWords(text)),
	})
	return reply, nil
}

func (s *Service) generate(ctx context.Context, persona character.Character, debateCtx ai.DebateContext) (string, string) {
	if s.llm != nil {
		raw, err := s.call(ctx, "debate_reply", func(ctx context.Context) (string, error) {
			return s.llm.DebateReply(ctx, debateCtx)
		})
		if err == nil {
			return Polish(raw, debateCtx.Topic), TierPrimary
		}
		s.logger.Warn("debate_primary_failed", observability.Fields{
			"character": persona.ID,
			"model":     persona.Model,
			"error":     err,
		})

		raw, err = s.call(ctx, "quick_reply", func(ctx context.Context) (string, error) {
			return s.llm.QuickReply(ctx, debateCtx)
		})
		if err == nil {
			if text := PolishQuick(raw); text != "" {
				s.metrics.IncFallback(TierQuick)
				return text, TierQuick
			}
			err = ai.ErrEmptyCompletion
		}
		s.logger.Warn("debate_quick_failed", observability.Fields{
			"character": persona.ID,
			"error":     err,
		})
	}

	s.metrics.IncFallback(TierLocal)
	return LocalReply(persona, debateCtx.UserMessage, debateCtx.Topic, debateCtx.AISide), TierLocal
}

func (s *Service) reply(persona character.Character, text, tier string) Reply {
	return Reply{
		Response:        text,
		Character:       persona.ID,
		CharacterName:   persona.Name,
		Level:           persona.Level,
		VoiceConfig:     persona.Voice,
		BasePoints:      persona.Scoring.BasePoints,
		LevelMultiplier: persona.Scoring.LevelMultiplier,
		Success:         true,
		Fallback:        tier != TierPrimary,
		Timestamp:       s.now().UTC().Format(TimestampLayout),
		Tier:            tier,
	}
}

// Probe reports model connectivity the way the health endpoint shows it.
func (s *Service) Probe(ctx context.Context) string {
	if s.llm == nil {
		return "error: no model client configured"
	}
	_, err := s.call(ctx, "ping", func(ctx context.Context) (string, error) {
		return "", s.llm.Ping(ctx)
	})
	if err != nil {
		return "error: " + err.Error()
	}
	return "connected"
}

func (s *Service) call(ctx context.Context, operation string, fn func(context.Context) (string, error)) (string, error) {
	started := time.Now()
	out, err := fn(ctx)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if errors.Is(err, ai.ErrEmptyCompletion) {
			outcome = "empty"
		}
	}
	s.metrics.ObserveLLMRequest(operation, outcome, time.Since(started))
	return out, err
}

func historyLines(history []Turn, personaName string) []ai.HistoryLine {
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}
	lines := make([]ai.HistoryLine, 0, len(history))
	for _, turn := range history {
		speaker := personaName
		if strings.EqualFold(strings.TrimSpace(turn.Role), RoleUser) {
			speaker = "User"
		}
		lines = append(lines, ai.HistoryLine{Speaker: speaker, Text: turn.Text})
	}
	return lines
}
