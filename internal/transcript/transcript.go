// Package transcript records a finished debate and writes it out as JSON,
// Markdown or PDF.
package transcript

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"debatearena/internal/debate"
)

type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatPDF      Format = "pdf"
)

// Turn is one line of the debate. Score is set on user turns that were scored.
type Turn struct {
	Role  string              `json:"role"`
	Text  string              `json:"text"`
	Score *debate.ScoreResult `json:"score,omitempty"`
	At    time.Time           `json:"at"`
}

type Transcript struct {
	Topic         string    `json:"topic"`
	Character     string    `json:"character"`
	CharacterName string    `json:"characterName"`
	Level         string    `json:"level"`
	UserSide      string    `json:"userSide"`
	AISide        string    `json:"aiSide"`
	Turns         []Turn    `json:"turns"`
	TotalScore    int       `json:"totalScore"`
	StartedAt     time.Time `json:"startedAt"`
}

// AddUser appends a user argument and adds its points to the total.
func (t *Transcript) AddUser(text string, score debate.ScoreResult, at time.Time) {
	t.Turns = append(t.Turns, Turn{Role: debate.RoleUser, Text: text, Score: &score, At: at})
	t.TotalScore += score.FinalScore
}

func (t *Transcript) AddAI(text string, at time.Time) {
	t.Turns = append(t.Turns, Turn{Role: debate.RoleAI, Text: text, At: at})
}

// Export writes the transcript in format.
func (t Transcript) Export(w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, t)
	case FormatMarkdown:
		return writeMarkdown(w, t)
	case FormatPDF:
		return writePDF(w, t)
	default:
		return fmt.Errorf("unsupported transcript format: %s", format)
	}
}

// ParseFormat accepts a format name or a file name whose extension names one.
func ParseFormat(value string) (Format, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if ext := filepath.Ext(value); ext != "" {
		value = strings.TrimPrefix(ext, ".")
	}
	switch value {
	case "json":
		return FormatJSON, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported transcript format: %q", value)
	}
}

func (f Format) Extension() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

// Filename builds a file name from the start date and the topic.
func Filename(t Transcript, format Format) string {
	topic := strings.TrimSpace(t.Topic)
	if len([]rune(topic)) > 50 {
		topic = string([]rune(topic)[:50])
	}
	topic = strings.NewReplacer(
		" ", "_",
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "",
		"?", "",
		"\"", "",
		"<", "",
		">", "",
		"|", "",
	).Replace(topic)
	return fmt.Sprintf("debate_%s_%s.%s", t.StartedAt.Format("20060102"), topic, format.Extension())
}

func (t Transcript) speaker(turn Turn) string {
	if turn.Role == debate.RoleUser {
		return "You"
	}
	if t.CharacterName != "" {
		return t.CharacterName
	}
	return "AI"
}
