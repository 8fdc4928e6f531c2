package voice

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"debatearena/internal/character"
)

const sayVoicesOutput = `Alex                en_US    # Most people recognize me by my voice.
Daniel              en_GB    # Hello, my name is Daniel. I am a British-English voice.
Good News           en_US    # We cheer for our favourite teams.
Thomas              fr_FR    # Bonjour, je m'appelle Thomas.
`

const espeakVoicesOutput = `Pty Language       Age/Gender VoiceName          File                 Other Languages
 5  af              --/M      Afrikaans          gmw/af
 5  en-gb-x-rp      --/F      English_RP         gmw/en-GB-x-rp
 5  en-us           --/M      English_(America)  gmw/en-US            (en 3)
`

type fakeRunner struct {
	voices    string
	voicesErr error

	mu    sync.Mutex
	calls [][]string
}

func (f *fakeRunner) run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string{name}, args...))
	f.mu.Unlock()
	if len(args) > 0 && (args[0] == "--voices" || (len(args) == 2 && args[1] == "?")) {
		return []byte(f.voices), f.voicesErr
	}
	return nil, nil
}

func (f *fakeRunner) last() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}

func TestParseSayVoices(t *testing.T) {
	voices := ParseSayVoices([]byte(sayVoicesOutput))
	want := []SystemVoice{
		{Name: "Alex", Lang: "en_US"},
		{Name: "Daniel", Lang: "en_GB"},
		{Name: "Good News", Lang: "en_US"},
		{Name: "Thomas", Lang: "fr_FR"},
	}
	if !reflect.DeepEqual(voices, want) {
		t.Fatalf("unexpected voices: %#v", voices)
	}
}

func TestParseEspeakVoices(t *testing.T) {
	voices := ParseEspeakVoices([]byte(espeakVoicesOutput))
	want := []SystemVoice{
		{Name: "Afrikaans", Lang: "af", Gender: "male"},
		{Name: "English_RP", Lang: "en-gb-x-rp", Gender: "female"},
		{Name: "English_(America)", Lang: "en-us", Gender: "male"},
	}
	if !reflect.DeepEqual(voices, want) {
		t.Fatalf("unexpected voices: %#v", voices)
	}
}

func TestSelectVoicePerPersona(t *testing.T) {
	registry := character.Builtin()
	voices := []SystemVoice{
		{Name: "Child Female Voice", Lang: "en-US"},
		{Name: "Grace", Lang: "en-GB", Gender: "female"},
		{Name: "Deep Male", Lang: "en-US"},
		{Name: "Marie", Lang: "fr-FR", Gender: "female"},
	}

	tests := []struct {
		persona string
		voices  []SystemVoice
		want    string
		ok      bool
	}{
		{"luna", voices, "Child Female Voice", true},
		{"athena", voices, "Grace", true},
		{"leo", voices, "Deep Male", true},
		{"titan", voices, "Deep Male", true},
		{"titan", voices[:2], "", false},
		{"athena", nil, "", false},
	}
	for _, tc := range tests {
		t.Run(tc.persona, func(t *testing.T) {
			got, ok := SelectVoice(tc.voices, registry.Lookup(tc.persona).Voice.Match)
			if ok != tc.ok || got.Name != tc.want {
				t.Fatalf("SelectVoice = (%q, %v), want (%q, %v)", got.Name, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestEspeakArguments(t *testing.T) {
	runner := &fakeRunner{voices: espeakVoicesOutput}
	backend := newSystemBackend("espeak-ng", runner.run)

	if err := backend.Speak(context.Background(), "Order matters.", character.Builtin().Lookup("athena")); err != nil {
		t.Fatalf("speak: %v", err)
	}
	want := []string{"espeak-ng", "-v", "English_RP", "-s", "175", "-p", "50", "--", "Order matters."}
	if got := runner.last(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected command: %v", got)
	}
	if backend.Name() != "system:espeak-ng" {
		t.Fatalf("unexpected backend name %q", backend.Name())
	}
}

func TestSayArguments(t *testing.T) {
	runner := &fakeRunner{voices: sayVoicesOutput}
	backend := newSystemBackend("say", runner.run)

	if err := backend.Speak(context.Background(), "-dash first", character.Builtin().Lookup("luna")); err != nil {
		t.Fatalf("speak: %v", err)
	}
	want := []string{"say", "-v", "Alex", "-r", "193", "--", "-dash first"}
	if got := runner.last(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected command: %v", got)
	}
}

func TestVoiceListFailureUsesDefaultVoice(t *testing.T) {
	runner := &fakeRunner{voicesErr: errors.New("espeak: not found")}
	backend := newSystemBackend("espeak", runner.run)
	persona := character.Builtin().Lookup("titan")

	for i := 0; i < 2; i++ {
		if err := backend.Speak(context.Background(), "Again", persona); err != nil {
			t.Fatalf("speak: %v", err)
		}
	}
	if got := runner.last(); strings.Contains(strings.Join(got, " "), " -v ") {
		t.Fatalf("no voice flag expected without a voice list, got %v", got)
	}

	listings := 0
	for _, call := range runner.calls {
		if len(call) > 1 && call[1] == "--voices" {
			listings++
		}
	}
	if listings != 1 {
		t.Fatalf("voice list should be fetched once, got %d", listings)
	}
}

func TestRateAndPitchMapping(t *testing.T) {
	wpm := []struct {
		rate float64
		want int
	}{
		{0, 175},
		{0.5, 88},
		{1, 175},
		{2, 350},
	}
	for _, tc := range wpm {
		if got := wordsPerMinute(tc.rate); got != tc.want {
			t.Fatalf("wordsPerMinute(%v) = %d, want %d", tc.rate, got, tc.want)
		}
	}

	pitch := []struct {
		pitch float64
		want  int
	}{
		{0, 50},
		{1, 50},
		{1.2, 60},
		{3, 99},
	}
	for _, tc := range pitch {
		if got := espeakPitch(tc.pitch); got != tc.want {
			t.Fatalf("espeakPitch(%v) = %d, want %d", tc.pitch, got, tc.want)
		}
	}
}
