package ai

import "debatearena/internal/config"

func NewFromConfig(cfg config.Config) LLMClient {
	if cfg.LLMProvider == "openai" {
		return NewOpenAIClient(OpenAIOptions{
			APIKey:         cfg.LLMAPIKey,
			BaseURL:        cfg.LLMBaseURL,
			FallbackModel:  cfg.LLMFallbackModel,
			ScoringModel:   cfg.LLMScoringModel,
			RequestTimeout: cfg.LLMRequestTimeout,
			MaxRetries:     cfg.LLMMaxRetries,
			RetryBase:      cfg.LLMRetryBase,
		})
	}
	return NewMockClient()
}
