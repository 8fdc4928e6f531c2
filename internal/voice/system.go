package voice

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"debatearena/internal/character"
)

const (
	defaultWordsPerMinute = 175
	espeakDefaultPitch    = 50
	voiceListTimeout      = 5 * time.Second
)

// SystemVoice is one voice installed in the local speech engine.
type SystemVoice struct {
	Name   string
	Lang   string
	Gender string
}

type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// SystemBackend speaks through the local speech command: say on macOS,
// espeak-ng or espeak elsewhere.
type SystemBackend struct {
	command string
	run     commandRunner

	voicesOnce sync.Once
	voices     []SystemVoice
	voicesErr  error
}

// NewSystemBackend finds a supported speech command on PATH.
func NewSystemBackend() (*SystemBackend, error) {
	for _, candidate := range []string{"say", "espeak-ng", "espeak"} {
		if _, err := exec.LookPath(candidate); err == nil {
			return newSystemBackend(candidate, runCommand), nil
		}
	}
	return nil, fmt.Errorf("%w: none of say, espeak-ng, espeak found", ErrNoBackend)
}

func newSystemBackend(command string, run commandRunner) *SystemBackend {
	return &SystemBackend{command: command, run: run}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

func (b *SystemBackend) Name() string {
	return "system:" + b.command
}

func (b *SystemBackend) Speak(ctx context.Context, text string, persona character.Character) error {
	voice, _ := b.VoiceFor(persona)
	_, err := b.run(ctx, b.command, b.args(text, voice.Name, persona.Voice)...)
	return err
}

// VoiceFor picks the installed voice that suits persona. ok is false when
// nothing matched; the engine's default voice is used then.
func (b *SystemBackend) VoiceFor(persona character.Character) (SystemVoice, bool) {
	voices, err := b.Voices()
	if err != nil {
		return SystemVoice{}, false
	}
	return SelectVoice(voices, persona.Voice.Match)
}

// Voices lists installed voices once and caches the answer.
func (b *SystemBackend) Voices() ([]SystemVoice, error) {
	b.voicesOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), voiceListTimeout)
		defer cancel()
		var out []byte
		if b.command == "say" {
			out, b.voicesErr = b.run(ctx, b.command, "-v", "?")
			if b.voicesErr == nil {
				b.voices = ParseSayVoices(out)
			}
			return
		}
		out, b.voicesErr = b.run(ctx, b.command, "--voices")
		if b.voicesErr == nil {
			b.voices = ParseEspeakVoices(out)
		}
	})
	return b.voices, b.voicesErr
}

func (b *SystemBackend) args(text, voiceName string, params character.Voice) []string {
	var args []string
	if voiceName != "" {
		args = append(args, "-v", voiceName)
	}
	wpm := strconv.Itoa(wordsPerMinute(params.Rate))
	if b.command == "say" {
		args = append(args, "-r", wpm)
	} else {
		args = append(args, "-s", wpm, "-p", strconv.Itoa(espeakPitch(params.Pitch)))
	}
	return append(args, "--", text)
}

func wordsPerMinute(rate float64) int {
	if rate <= 0 {
		rate = 1
	}
	return int(math.Round(defaultWordsPerMinute * rate))
}

// espeakPitch maps a 1.0-centred pitch factor onto espeak's 0-99 scale.
func espeakPitch(pitch float64) int {
	if pitch <= 0 {
		pitch = 1
	}
	value := int(math.Round(espeakDefaultPitch * pitch))
	if value < 0 {
		return 0
	}
	if value > 99 {
		return 99
	}
	return value
}

// SelectVoice returns the first voice match accepts. Gender is appended to
// the name so engines that keep it in a separate column still match gender
// keywords.
func SelectVoice(voices []SystemVoice, match character.VoiceMatch) (SystemVoice, bool) {
	for _, voice := range voices {
		if match.Matches(strings.TrimSpace(voice.Name+" "+voice.Gender), voice.Lang) {
			return voice, true
		}
	}
	return SystemVoice{}, false
}

var sayVoiceLine = regexp.MustCompile(`^(.+?)\s+([a-z]{2,3}[_-][A-Za-z0-9]{2,4})\s+#`)

// ParseSayVoices reads the output of `say -v ?`.
func ParseSayVoices(out []byte) []SystemVoice {
	var voices []SystemVoice
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		m := sayVoiceLine.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		voices = append(voices, SystemVoice{Name: strings.TrimSpace(m[1]), Lang: m[2]})
	}
	return voices
}

// ParseEspeakVoices reads the table printed by `espeak-ng --voices`.
func ParseEspeakVoices(out []byte) []SystemVoice {
	var voices []SystemVoice
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || fields[0] == "Pty" {
			continue
		}
		voices = append(voices, SystemVoice{
			Name:   fields[3],
			Lang:   fields[1],
			Gender: espeakGender(fields[2]),
		})
	}
	return voices
}

func espeakGender(column string) string {
	_, gender, _ := strings.Cut(column, "/")
	switch strings.ToUpper(strings.TrimSpace(gender)) {
	case "M":
		return "male"
	case "F":
		return "female"
	default:
		return ""
	}
}
