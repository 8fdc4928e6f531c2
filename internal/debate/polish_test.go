package debate

import (
	"strings"
	"testing"

	"debatearena/internal/character"
)

func TestPolishShortReply(t *testing.T) {
	got := Polish(`Response: "Uniforms limit expression."`, "School uniforms")
	want := "Uniforms limit expression. This connects to broader questions about School uniforms that deserve consideration. What's your take on that?"
	if got != want {
		t.Fatalf("Polish() = %q", got)
	}
}

func TestPolishStripsLabelsCaseInsensitively(t *testing.T) {
	got := Polish("here's my response: It's fine?", "Topic here")
	if !strings.HasPrefix(got, "Its fine? This connects") {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestPolishLongReplyWithManySentences(t *testing.T) {
	sentence := "This sentence has exactly ten words in it for testing"
	raw := strings.Repeat(sentence+". ", 9)
	got := Polish(raw, "Any topic")

	want := strings.Repeat(sentence+". ", 3) + sentence + ". How would you respond to that?"
	if got != want {
		t.Fatalf("Polish() = %q\nwant %q", got, want)
	}
}

func TestPolishLongReplyWithFewSentences(t *testing.T) {
	raw := strings.TrimSpace(strings.Repeat("word ", 85)) + "? And more words here."
	got := Polish(raw, "Any topic")

	if !strings.HasSuffix(got, "... What are your thoughts?") {
		t.Fatalf("expected continuation marker, got %q", got)
	}
	words := strings.Fields(strings.TrimSuffix(got, "... What are your thoughts?"))
	if len(words) != 60 {
		t.Fatalf("expected 60 words kept, got %d", len(words))
	}
}

func TestPolishKeepsExistingQuestion(t *testing.T) {
	got := Polish(fortyWords, "Homework")
	if got != fortyWords {
		t.Fatalf("expected untouched reply, got %q", got)
	}
}

func TestPolishQuick(t *testing.T) {
	if got := PolishQuick(`Assistant: "Good point."`); got != "Good point. How would you respond to that?" {
		t.Fatalf("PolishQuick() = %q", got)
	}
	if got := PolishQuick(`  "''"  `); got != "" {
		t.Fatalf("expected empty result, got %q", got)
	}
}

func TestKeyPoint(t *testing.T) {
	tests := map[string]string{
		"I think that homework builds discipline": "think homework",
		"With this and that":                      "your point",
		"":                                        "your point",
		"CLIMATE change matters":                  "climate change",
		"Ñandú árboles crecen":                    "ñandú árboles",
	}
	for input, want := range tests {
		if got := KeyPoint(input); got != want {
			t.Errorf("KeyPoint(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestLocalReplyGenericTemplate(t *testing.T) {
	persona := character.Character{ID: "guest", Name: "GUEST"}
	got := LocalReply(persona, "Recycling saves resources", "Recycling should be mandatory", "pro")
	want := `You mentioned recycling saves about "Recycling should be mandatory". From my pro perspective, I see it differently. Your thoughts?`
	if got != want {
		t.Fatalf("LocalReply() = %q", got)
	}
}
