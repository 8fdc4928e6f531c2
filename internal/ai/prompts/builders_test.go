package prompts

import (
	"strings"
	"testing"
)

func TestDebateReplyPrompt(t *testing.T) {
	prompt := DebateReply(
		Debater{Name: "TITAN", Level: "expert", Personality: "challenging, authoritative expert", SystemPrompt: "You are TITAN, an EXPERT level debater."},
		Exchange{
			Topic:       "Social media does more harm than good",
			AISide:      "con",
			UserMessage: "It connects families",
			History: []Line{
				{Speaker: "User", Text: "Opening point"},
				{Speaker: "TITAN", Text: "Counter point"},
			},
		},
	)

	wants := []string{
		"You are TITAN, a expert level debater with a challenging, authoritative expert personality.",
		`Topic: "Social media does more harm than good"`,
		"Your position: CON",
		`User just said: "It connects families"`,
		"Recent exchange:\nUser: Opening point\nTITAN: Counter point",
		"Present your con counter-argument",
		"Match expert level vocabulary",
	}
	for _, want := range wants {
		if !strings.Contains(prompt.User, want) {
			t.Fatalf("expected %q in prompt:\n%s", want, prompt.User)
		}
	}
	if !strings.HasPrefix(prompt.System, "You are TITAN, an EXPERT level debater.") {
		t.Fatalf("expected persona behavior first in system prompt: %q", prompt.System)
	}
	if !strings.HasSuffix(prompt.System, "Aim for 40-60 words.") {
		t.Fatalf("expected length guidance last in system prompt: %q", prompt.System)
	}
	if prompt.Temperature != 0.8 || prompt.MaxTokens != 120 || prompt.TopP != 0.95 {
		t.Fatalf("unexpected sampling: %+v", prompt)
	}
}

func TestDebateReplyWithoutHistory(t *testing.T) {
	prompt := DebateReply(Debater{Name: "LUNA", Level: "beginner"}, Exchange{Topic: "Homework", AISide: "pro", UserMessage: "Too much"})
	if strings.Contains(prompt.User, "Recent exchange") {
		t.Fatalf("did not expect history block: %s", prompt.User)
	}
}

func TestQuickReplyPrompt(t *testing.T) {
	prompt := QuickReply(Debater{Name: "LEO", Level: "beginner"}, Exchange{Topic: "Robots in schools", AISide: "pro", UserMessage: "They are expensive"})
	want := "As LEO (beginner level), give a 2-sentence response to:\n\nUser: \"They are expensive\"\nTopic: \"Robots in schools\"\nYour position: PRO\n\nBe concise and address their point directly. Max 30 words."
	if prompt.User != want {
		t.Fatalf("QuickReply user prompt = %q", prompt.User)
	}
	if prompt.System != "Give concise 2-sentence responses." || prompt.MaxTokens != 60 {
		t.Fatalf("unexpected quick prompt: %+v", prompt)
	}
}

func TestRelevanceAndIntroductionPrompts(t *testing.T) {
	relevance := Relevance("Cities need parks", "Urban green space")
	if !strings.Contains(relevance.User, `debate topic "Urban green space"`) || !strings.HasSuffix(relevance.User, "Return ONLY a single number between 1-10:") {
		t.Fatalf("unexpected relevance prompt: %s", relevance.User)
	}
	if relevance.Temperature != 0.3 || relevance.MaxTokens != 5 || relevance.System != "" {
		t.Fatalf("unexpected relevance sampling: %+v", relevance)
	}

	intro := Introduction(Debater{Name: "ATHENA", Level: "intermediate", Personality: "strategic, analytical debater"}, "Space exploration", "pro")
	want := `You are ATHENA, a intermediate level debater. Give a friendly 2-3 sentence introduction for a debate about "Space exploration". You are arguing the pro side. Be strategic, analytical debater. End with a question.`
	if intro.User != want {
		t.Fatalf("Introduction prompt = %q", intro.User)
	}
	if intro.MaxTokens != 100 {
		t.Fatalf("unexpected intro max tokens %d", intro.MaxTokens)
	}
}
