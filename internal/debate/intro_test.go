package debate

import (
	"context"
	"errors"
	"testing"

	"debatearena/internal/ai"
)

func TestIntroduce(t *testing.T) {
	tests := []struct {
		name string
		llm  *fakeLLM
		req  IntroRequest
		want Introduction
	}{
		{
			name: "model text",
			llm:  &fakeLLM{intro: "  Hello, I am TITAN. Ready?  "},
			req:  IntroRequest{CharacterID: "titan", Topic: "Nuclear power", AISide: "pro"},
			want: Introduction{Introduction: "Hello, I am TITAN. Ready?", Character: "TITAN", Level: "expert"},
		},
		{
			name: "empty completion",
			llm:  &fakeLLM{introErr: ai.ErrEmptyCompletion},
			req:  IntroRequest{CharacterID: "leo", Topic: "Nuclear power", AISide: "con"},
			want: Introduction{Introduction: `Let's debate "Nuclear power". I'm arguing con. What are your thoughts?`, Character: "LEO", Level: "beginner"},
		},
		{
			name: "model failure",
			llm:  &fakeLLM{introErr: errors.New("connection refused")},
			req:  IntroRequest{CharacterID: "nobody", Topic: "Nuclear power", AISide: "pro"},
			want: Introduction{Introduction: `I'm LUNA. Let's debate "Nuclear power". I'm arguing pro. What's your first point?`, Character: "LUNA", Level: "beginner"},
		},
		{
			name: "default side",
			llm:  &fakeLLM{intro: ""},
			req:  IntroRequest{CharacterID: "athena", Topic: "Nuclear power"},
			want: Introduction{Introduction: `Let's debate "Nuclear power". I'm arguing con. What are your thoughts?`, Character: "ATHENA", Level: "intermediate"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			service, _ := newTestService(tc.llm)
			if got := service.Introduce(context.Background(), tc.req); got != tc.want {
				t.Fatalf("Introduce() = %+v, want %+v", got, tc.want)
			}
		})
	}
}
