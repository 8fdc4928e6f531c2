package debate

import (
	"context"
	"errors"
	"testing"
)

func TestScoreMissingInputSkipsModel(t *testing.T) {
	llm := &fakeLLM{relevance: "9"}
	service, _ := newTestService(llm)

	for _, req := range []ScoreRequest{
		{Topic: "Homework should be banned", CharacterLevel: "expert"},
		{Response: "Some reply", CharacterLevel: "expert"},
	} {
		got := service.Score(context.Background(), req)
		want := ScoreResult{Relevance: 5, FinalScore: 5, Multiplier: 1, Message: "Default score applied"}
		if got != want {
			t.Fatalf("Score(%+v) = %+v", req, got)
		}
	}
	if llm.calls["relevance"] != 0 {
		t.Fatalf("expected no model call, got %d", llm.calls["relevance"])
	}
}

func TestScoreAppliesLevelMultiplier(t *testing.T) {
	tests := []struct {
		level      string
		raw        string
		relevance  int
		multiplier float64
		final      int
	}{
		{"expert", "8", 8, 1.5, 12},
		{"intermediate", "7", 7, 1.2, 8},
		{"beginner", "6/10", 6, 1.0, 6},
		{"unknown", "9", 9, 1.0, 9},
		{"expert", "Score: 15", 10, 1.5, 15},
		{"intermediate", "no idea", 5, 1.2, 6},
	}
	for _, tc := range tests {
		service, _ := newTestService(&fakeLLM{relevance: tc.raw})
		got := service.Score(context.Background(), ScoreRequest{Response: "reply", Topic: "topic text", CharacterLevel: tc.level})
		if got.Relevance != tc.relevance || got.Multiplier != tc.multiplier || got.FinalScore != tc.final || got.Level != tc.level {
			t.Errorf("%s/%q: got %+v", tc.level, tc.raw, got)
		}
	}
}

func TestScoreModelFailureDegrades(t *testing.T) {
	service, _ := newTestService(&fakeLLM{relevanceErr: errors.New("timeout")})
	got := service.Score(context.Background(), ScoreRequest{Response: "reply", Topic: "topic text", CharacterLevel: "expert"})
	want := ScoreResult{Relevance: 5, FinalScore: 5, Multiplier: 1, Error: "Scoring failed, default applied"}
	if got != want {
		t.Fatalf("Score() = %+v", got)
	}
}

func TestParseRelevance(t *testing.T) {
	tests := map[string]int{
		"7":                    7,
		" 10 ":                 10,
		"0":                    1,
		"-4":                   1,
		"11":                   10,
		"I'd say 3 out of 10":  3,
		"":                     5,
		"relevant":             5,
		"99999999999999999999": 10,
	}
	for raw, want := range tests {
		if got := ParseRelevance(raw); got != want {
			t.Errorf("ParseRelevance(%q) = %d, want %d", raw, got, want)
		}
	}
}
