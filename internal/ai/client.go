package ai

import (
	"context"
	"errors"
)

// ErrEmptyCompletion is returned when the provider answers with no text.
var ErrEmptyCompletion = errors.New("llm provider returned empty content")

type HistoryLine struct {
	Speaker string
	Text    string
}

// DebateContext is everything a persona needs to answer one user argument.
type DebateContext struct {
	Name         string
	Level        string
	Personality  string
	SystemPrompt string
	Model        string
	Topic        string
	AISide       string
	UserSide     string
	UserMessage  string
	History      []HistoryLine
}

type IntroContext struct {
	Name        string
	Level       string
	Personality string
	Topic       string
	AISide      string
}

type LLMClient interface {
	// DebateReply answers with the persona's own model.
	DebateReply(ctx context.Context, debate DebateContext) (string, error)
	// QuickReply is the short, cheap retry used when DebateReply fails.
	QuickReply(ctx context.Context, debate DebateContext) (string, error)
	// RateRelevance returns the raw judge completion; callers parse it.
	RateRelevance(ctx context.Context, response, topic string) (string, error)
	Introduction(ctx context.Context, intro IntroContext) (string, error)
	Ping(ctx context.Context) error
}
