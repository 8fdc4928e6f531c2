// Package voice speaks persona replies aloud. A Synthesizer owns a single
// queue of utterances and plays them one at a time through a hosted
// text-to-speech backend, the local speech engine, or both with fallback.
package voice

import (
	"context"
	"errors"
	"io"

	"debatearena/internal/character"
)

var (
	ErrStopped   = errors.New("voice: speech stopped")
	ErrClosed    = errors.New("voice: synthesizer closed")
	ErrNoBackend = errors.New("voice: no speech backend available")

	// ErrPartialSpeech wraps a backend failure that happened after some audio
	// was already played. The utterance is not repeated on a fallback backend.
	ErrPartialSpeech = errors.New("voice: speech failed after playback started")
)

type EventKind string

const (
	SpeechStarted EventKind = "speech_started"
	SpeechEnded   EventKind = "speech_ended"
)

// Event reports a change in playback. Err is set on SpeechEnded when the
// utterance failed or was stopped.
type Event struct {
	Kind      EventKind
	PersonaID string
	Backend   string
	Err       error
}

// Backend turns text into audible speech. Speak blocks until playback ends
// and must return promptly once ctx is cancelled.
type Backend interface {
	Name() string
	Speak(ctx context.Context, text string, persona character.Character) error
}

// AudioFormat describes raw PCM handed to a Player.
type AudioFormat struct {
	SampleRate int
	Channels   int
}

// Player plays a raw signed 16-bit little-endian PCM stream until audio is
// exhausted or ctx is cancelled.
type Player interface {
	Play(ctx context.Context, audio io.Reader, format AudioFormat) error
}
