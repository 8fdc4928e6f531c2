package ai

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"debatearena/internal/ai/prompts"
)

const defaultModel = "llama-3.1-8b-instant"

type OpenAIOptions struct {
	APIKey         string
	BaseURL        string
	FallbackModel  string
	ScoringModel   string
	RequestTimeout time.Duration
	MaxRetries     int
	RetryBase      time.Duration
	HTTPClient     *http.Client
}

// OpenAIClient talks to any OpenAI-compatible chat completion API. The
// default base URL points at Groq.
type OpenAIClient struct {
	apiKey         string
	client         *openai.Client
	fallbackModel  string
	scoringModel   string
	requestTimeout time.Duration
	maxRetries     int
	retryBase      time.Duration
}

func NewOpenAIClient(opts OpenAIOptions) *OpenAIClient {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 20 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.MaxRetries > 5 {
		opts.MaxRetries = 5
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = 400 * time.Millisecond
	}
	if strings.TrimSpace(opts.FallbackModel) == "" {
		opts.FallbackModel = defaultModel
	}
	if strings.TrimSpace(opts.ScoringModel) == "" {
		opts.ScoringModel = defaultModel
	}

	clientConfig := openai.DefaultConfig(opts.APIKey)
	if baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"); baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	if opts.HTTPClient != nil {
		clientConfig.HTTPClient = opts.HTTPClient
	} else {
		clientConfig.HTTPClient = &http.Client{Timeout: opts.RequestTimeout}
	}

	return &OpenAIClient{
		apiKey:         opts.APIKey,
		client:         openai.NewClientWithConfig(clientConfig),
		fallbackModel:  opts.FallbackModel,
		scoringModel:   opts.ScoringModel,
		requestTimeout: opts.RequestTimeout,
		maxRetries:     opts.MaxRetries,
		retryBase:      opts.RetryBase,
	}
}

func (c *OpenAIClient) DebateReply(ctx context.Context, debate DebateContext) (string, error) {
	prompt := prompts.DebateReply(promptDebater(debate), promptExchange(debate))
	model := debate.Model
	if strings.TrimSpace(model) == "" {
		model = c.fallbackModel
	}
	return c.chat(ctx, model, prompt)
}

func (c *OpenAIClient) QuickReply(ctx context.Context, debate DebateContext) (string, error) {
	prompt := prompts.QuickReply(promptDebater(debate), promptExchange(debate))
	return c.chat(ctx, c.fallbackModel, prompt)
}

func (c *OpenAIClient) RateRelevance(ctx context.Context, response, topic string) (string, error) {
	return c.chat(ctx, c.scoringModel, prompts.Relevance(response, topic))
}

func (c *OpenAIClient) Introduction(ctx context.Context, intro IntroContext) (string, error) {
	prompt := prompts.Introduction(
		prompts.Debater{
			Name:        intro.Name,
			Level:       intro.Level,
			Personality: intro.Personality,
		},
		intro.Topic,
		intro.AISide,
	)
	return c.chat(ctx, c.fallbackModel, prompt)
}

// Ping sends the smallest useful completion to confirm the provider answers.
func (c *OpenAIClient) Ping(ctx context.Context) error {
	_, err := c.chat(ctx, c.fallbackModel, prompts.Ping())
	return err
}

func promptDebater(debate DebateContext) prompts.Debater {
	return prompts.Debater{
		Name:         debate.Name,
		Level:        debate.Level,
		Personality:  debate.Personality,
		SystemPrompt: debate.SystemPrompt,
	}
}

func promptExchange(debate DebateContext) prompts.Exchange {
	history := make([]prompts.Line, 0, len(debate.History))
	for _, line := range debate.History {
		history = append(history, prompts.Line{Speaker: line.Speaker, Text: line.Text})
	}
	return prompts.Exchange{
		Topic:       debate.Topic,
		AISide:      debate.AISide,
		UserSide:    debate.UserSide,
		UserMessage: debate.UserMessage,
		History:     history,
	}
}

func (c *OpenAIClient) chat(ctx context.Context, model string, prompt prompts.ChatPrompt) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("LLM_API_KEY is required for openai provider")
	}
	ctx, cancel := contextWithDefaultTimeout(ctx, c.requestTimeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if strings.TrimSpace(prompt.System) != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: prompt.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt.User})

	request := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: prompt.Temperature,
		MaxTokens:   prompt.MaxTokens,
		TopP:        prompt.TopP,
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		content, retryable, err := c.chatOnce(ctx, request)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if !retryable || attempt >= c.maxRetries {
			break
		}

		wait := retryDelay(c.retryBase, attempt)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	return "", lastErr
}

func (c *OpenAIClient) chatOnce(ctx context.Context, request openai.ChatCompletionRequest) (string, bool, error) {
	resp, err := c.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", isRetryable(err), fmt.Errorf("llm provider error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", true, errors.New("llm provider returned no choices")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", true, ErrEmptyCompletion
	}
	return content, false, nil
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	status := 0
	var apiErr *openai.APIError
	var requestErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &requestErr):
		status = requestErr.HTTPStatusCode
	}
	if status != 0 {
		return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
	}
	// No status means a transport or decode failure.
	return true
}

func contextWithDefaultTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), timeout)
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func retryDelay(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = 400 * time.Millisecond
	}
	if attempt < 0 {
		attempt = 0
	}
	delay := base * time.Duration(1<<attempt)
	jitterScale := 0.8 + (rand.Float64() * 0.4)
	jittered := time.Duration(float64(delay) * jitterScale)
	if jittered < 50*time.Millisecond {
		return 50 * time.Millisecond
	}
	return jittered
}
