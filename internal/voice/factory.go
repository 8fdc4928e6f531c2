package voice

import (
	"fmt"
	"strings"

	"debatearena/internal/config"
	"debatearena/internal/observability"
)

// NewFromConfig builds a Synthesizer from VOICE_BACKEND:
//
//	auto    hosted with system fallback when a hosted key is set, else system
//	hosted  hosted with system fallback when a speech command is installed
//	system  local speech command only
func NewFromConfig(cfg config.Config, logger *observability.Logger) (*Synthesizer, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.VoiceBackend))
	if mode == "" {
		mode = "auto"
	}

	system, systemErr := NewSystemBackend()
	newHosted := func() (*HostedBackend, error) {
		player, err := NewCommandPlayer(cfg.VoicePlayer)
		if err != nil {
			return nil, err
		}
		return NewHostedBackend(cfg.ElevenLabsAPIKey, cfg.ElevenLabsWSURL, player)
	}

	switch mode {
	case "system":
		if systemErr != nil {
			return nil, systemErr
		}
		return New(Options{Primary: system, Logger: logger})
	case "hosted", "auto":
		if mode == "auto" && strings.TrimSpace(cfg.ElevenLabsAPIKey) == "" {
			if systemErr != nil {
				return nil, systemErr
			}
			return New(Options{Primary: system, Logger: logger})
		}
		hosted, err := newHosted()
		if err != nil {
			if mode == "auto" && systemErr == nil {
				logger.Warn("voice_hosted_unavailable", observability.Fields{"error": err})
				return New(Options{Primary: system, Logger: logger})
			}
			return nil, err
		}
		opts := Options{Primary: hosted, Logger: logger}
		if systemErr == nil {
			opts.Fallback = system
		}
		return New(opts)
	default:
		return nil, fmt.Errorf("voice: unsupported VOICE_BACKEND %q", cfg.VoiceBackend)
	}
}
