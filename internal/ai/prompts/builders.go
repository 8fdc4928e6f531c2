package prompts

import (
	"fmt"
	"strings"
)

type Debater struct {
	Name         string
	Level        string
	Personality  string
	SystemPrompt string
}

type Line struct {
	Speaker string
	Text    string
}

type Exchange struct {
	Topic       string
	AISide      string
	UserSide    string
	UserMessage string
	History     []Line
}

type ChatPrompt struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
	TopP        float32
}

// DebateReply asks for a 3-4 sentence in-character counter-argument.
func DebateReply(debater Debater, exchange Exchange) ChatPrompt {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s, a %s level debater with a %s personality.\n\n", debater.Name, debater.Level, debater.Personality)
	sb.WriteString("DEBATE CONTEXT:\n")
	fmt.Fprintf(&sb, "Topic: %q\n", exchange.Topic)
	fmt.Fprintf(&sb, "Your position: %s\n", strings.ToUpper(exchange.AISide))
	fmt.Fprintf(&sb, "User just said: %q\n\n", exchange.UserMessage)
	if len(exchange.History) > 0 {
		sb.WriteString("Recent exchange:\n")
		sb.WriteString(formatHistory(exchange.History))
		sb.WriteString("\n\n")
	}
	sb.WriteString("RESPONSE REQUIREMENTS:\n")
	sb.WriteString("- Length: 3-4 sentences (approximately 40-60 words)\n")
	fmt.Fprintf(&sb, "- First sentence: Acknowledge their specific point about %q\n", exchange.UserMessage)
	fmt.Fprintf(&sb, "- Middle 1-2 sentences: Present your %s counter-argument with reasoning\n", exchange.AISide)
	sb.WriteString("- Final sentence: End with a thoughtful question\n")
	fmt.Fprintf(&sb, "- Match %s level vocabulary\n", debater.Level)
	sb.WriteString("- Be substantive but concise\n\n")
	sb.WriteString("YOUR BALANCED RESPONSE:")

	system := fmt.Sprintf("You are %s. Give balanced 3-4 sentence responses that directly address the user's point. Aim for 40-60 words.", debater.Name)
	if behavior := strings.TrimSpace(debater.SystemPrompt); behavior != "" {
		system = behavior + "\n\n" + system
	}

	return ChatPrompt{
		System:      system,
		User:        sb.String(),
		Temperature: 0.8,
		MaxTokens:   120,
		TopP:        0.95,
	}
}

// QuickReply is the reduced prompt for the smaller fallback model.
func QuickReply(debater Debater, exchange Exchange) ChatPrompt {
	user := fmt.Sprintf(
		"As %s (%s level), give a 2-sentence response to:\n\nUser: %q\nTopic: %q\nYour position: %s\n\nBe concise and address their point directly. Max 30 words.",
		debater.Name,
		debater.Level,
		exchange.UserMessage,
		exchange.Topic,
		strings.ToUpper(exchange.AISide),
	)
	return ChatPrompt{
		System:      "Give concise 2-sentence responses.",
		User:        user,
		Temperature: 0.8,
		MaxTokens:   60,
	}
}

func Relevance(response, topic string) ChatPrompt {
	user := fmt.Sprintf(`You are a debate judge. Rate how relevant this response is to the debate topic %q on a scale of 1-10.

Response to evaluate: %q

Scoring criteria:
- 10: Directly addresses the topic with strong, relevant points and specific references
- 7-9: Good relevance, clearly connected to topic with some specific references
- 4-6: Somewhat relevant, mentions topic but lacks depth or specific connection
- 1-3: Not relevant to the topic or barely mentions it

Return ONLY a single number between 1-10:`, topic, response)
	return ChatPrompt{
		User:        user,
		Temperature: 0.3,
		MaxTokens:   5,
	}
}

func Introduction(debater Debater, topic, aiSide string) ChatPrompt {
	user := fmt.Sprintf(
		"You are %s, a %s level debater. Give a friendly 2-3 sentence introduction for a debate about %q. You are arguing the %s side. Be %s. End with a question.",
		debater.Name,
		debater.Level,
		topic,
		aiSide,
		debater.Personality,
	)
	return ChatPrompt{
		User:        user,
		Temperature: 0.8,
		MaxTokens:   100,
	}
}

func Ping() ChatPrompt {
	return ChatPrompt{User: "Hello", MaxTokens: 5}
}

func formatHistory(lines []Line) string {
	rendered := make([]string, 0, len(lines))
	for _, line := range lines {
		rendered = append(rendered, line.Speaker+": "+line.Text)
	}
	return strings.Join(rendered, "\n")
}
