package voice

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"debatearena/internal/character"

	"github.com/gorilla/websocket"
)

const (
	defaultHostedWSBase = "wss://api.elevenlabs.io/v1/text-to-speech/{voice_id}/stream-input"
	defaultHostedModel  = "eleven_flash_v2_5"
	hostedSampleRate    = 24000
	hostedWriteTimeout  = 5 * time.Second
)

var errPlayerDone = errors.New("voice: player exited")

// HostedBackend streams text to the ElevenLabs stream-input websocket and
// plays the returned PCM through a Player.
type HostedBackend struct {
	apiKey  string
	wsBase  string
	modelID string
	dialer  *websocket.Dialer
	player  Player
}

type hostedVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Speed           float64 `json:"speed"`
}

type hostedInput struct {
	Text          string               `json:"text"`
	VoiceSettings *hostedVoiceSettings `json:"voice_settings,omitempty"`
	Flush         bool                 `json:"flush,omitempty"`
}

type hostedOutput struct {
	Audio   string `json:"audio"`
	IsFinal *bool  `json:"isFinal"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func NewHostedBackend(apiKey, wsBaseURL string, player Player) (*HostedBackend, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: hosted voice api key is required", ErrNoBackend)
	}
	if player == nil {
		return nil, fmt.Errorf("%w: hosted voice needs an audio player", ErrNoBackend)
	}
	base := strings.TrimSpace(wsBaseURL)
	if base == "" {
		base = defaultHostedWSBase
	}
	return &HostedBackend{
		apiKey:  apiKey,
		wsBase:  base,
		modelID: defaultHostedModel,
		dialer:  websocket.DefaultDialer,
		player:  player,
	}, nil
}

func (b *HostedBackend) Name() string {
	return "hosted"
}

func (b *HostedBackend) Speak(ctx context.Context, text string, persona character.Character) error {
	voiceID := strings.TrimSpace(persona.Voice.HostedVoiceID)
	if voiceID == "" {
		return fmt.Errorf("voice: persona %q has no hosted voice id", persona.ID)
	}
	wsURL, err := hostedStreamURL(b.wsBase, voiceID, b.modelID)
	if err != nil {
		return err
	}

	header := http.Header{}
	header.Set("xi-api-key", b.apiKey)
	conn, resp, err := b.dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("voice: hosted dial (status %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("voice: hosted dial: %w", err)
	}
	defer conn.Close()
	stopWatch := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stopWatch()

	messages := []hostedInput{
		{Text: " ", VoiceSettings: &hostedVoiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.5,
			Speed:           hostedSpeed(persona.Voice.Rate),
		}},
		{Text: strings.TrimSpace(text) + " ", Flush: true},
		{Text: ""},
	}
	for _, msg := range messages {
		_ = conn.SetWriteDeadline(time.Now().Add(hostedWriteTimeout))
		if err := conn.WriteJSON(msg); err != nil {
			return b.streamErr(ctx, fmt.Errorf("voice: hosted send: %w", err))
		}
	}

	return b.playStream(ctx, conn)
}

func (b *HostedBackend) playStream(ctx context.Context, conn *websocket.Conn) error {
	pr, pw := io.Pipe()
	played := make(chan error, 1)
	started := false
	start := func() {
		started = true
		go func() {
			err := b.player.Play(ctx, pr, AudioFormat{SampleRate: hostedSampleRate, Channels: 1})
			_ = pr.CloseWithError(errPlayerDone)
			played <- err
		}()
	}
	finish := func(streamErr error) error {
		if streamErr != nil {
			_ = pw.CloseWithError(streamErr)
		} else {
			_ = pw.Close()
		}
		if !started {
			if streamErr != nil {
				return streamErr
			}
			return errors.New("voice: hosted stream returned no audio")
		}
		playErr := <-played
		if streamErr == nil {
			streamErr = playErr
		}
		if streamErr == nil || ctx.Err() != nil {
			return streamErr
		}
		return fmt.Errorf("%w: %w", ErrPartialSpeech, streamErr)
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) && started {
				return finish(nil)
			}
			return finish(b.streamErr(ctx, fmt.Errorf("voice: hosted read: %w", err)))
		}

		var msg hostedOutput
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Error != "" {
			return finish(fmt.Errorf("voice: hosted error: %s %s", msg.Error, strings.TrimSpace(msg.Message)))
		}
		if msg.Audio != "" {
			audio, err := base64.StdEncoding.DecodeString(msg.Audio)
			if err != nil {
				return finish(fmt.Errorf("voice: hosted audio: %w", err))
			}
			if !started {
				start()
			}
			if _, err := pw.Write(audio); err != nil {
				return finish(b.streamErr(ctx, err))
			}
		}
		if msg.IsFinal != nil && *msg.IsFinal {
			return finish(nil)
		}
	}
}

func (b *HostedBackend) streamErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// hostedSpeed clamps a persona rate into the range the hosted API accepts.
func hostedSpeed(rate float64) float64 {
	switch {
	case rate <= 0:
		return 1
	case rate < 0.7:
		return 0.7
	case rate > 1.2:
		return 1.2
	default:
		return rate
	}
}

func hostedStreamURL(base, voiceID, modelID string) (string, error) {
	base = strings.ReplaceAll(base, "{voice_id}", url.PathEscape(voiceID))
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("voice: invalid hosted ws url: %w", err)
	}
	if u.Scheme == "" {
		u.Scheme = "wss"
	}
	q := u.Query()
	if q.Get("model_id") == "" {
		q.Set("model_id", modelID)
	}
	if q.Get("output_format") == "" {
		q.Set("output_format", fmt.Sprintf("pcm_%d", hostedSampleRate))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
