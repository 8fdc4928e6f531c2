package ai

import (
	"context"
	"fmt"
	"strings"

	"debatearena/internal/common"
)

// MockClient produces deterministic in-character text without any network
// calls. It backs local development when no API key is configured.
type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) DebateReply(_ context.Context, debate DebateContext) (string, error) {
	return fmt.Sprintf(
		"%s here. You argue that %s, and I respect the effort behind that point. From the %s side of %q, the strongest evidence still points the other way once long term costs and real world outcomes are weighed together. Which part of your argument do you think holds up best against that?",
		debate.Name,
		common.TruncateRunes(strings.TrimSpace(debate.UserMessage), 80),
		strings.ToLower(debate.AISide),
		debate.Topic,
	), nil
}

func (m *MockClient) QuickReply(_ context.Context, debate DebateContext) (string, error) {
	return fmt.Sprintf(
		"%s: that is a fair point about %s. Still, the %s side sees it differently. Why?",
		debate.Name,
		debate.Topic,
		strings.ToLower(debate.AISide),
	), nil
}

func (m *MockClient) RateRelevance(_ context.Context, response, topic string) (string, error) {
	responseWords := map[string]struct{}{}
	for _, word := range strings.Fields(strings.ToLower(response)) {
		responseWords[strings.Trim(word, ".,!?;:\"'")] = struct{}{}
	}
	hits := 0
	for _, word := range strings.Fields(strings.ToLower(topic)) {
		word = strings.Trim(word, ".,!?;:\"'")
		if len(word) <= 3 {
			continue
		}
		if _, ok := responseWords[word]; ok {
			hits++
		}
	}
	score := 4 + 2*hits
	if score > 10 {
		score = 10
	}
	return fmt.Sprintf("%d", score), nil
}

func (m *MockClient) Introduction(_ context.Context, intro IntroContext) (string, error) {
	return fmt.Sprintf(
		"Hi, I'm %s and I'll be arguing the %s side of %q today. I'm a %s level debater, so expect a fair fight. What's your opening argument?",
		intro.Name,
		intro.AISide,
		intro.Topic,
		intro.Level,
	), nil
}

func (m *MockClient) Ping(context.Context) error {
	return nil
}
