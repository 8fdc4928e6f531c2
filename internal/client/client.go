// Package client talks to the debate arena HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"debatearena/internal/character"
	"debatearena/internal/debate"
)

const defaultTimeout = 60 * time.Second

// APIError is returned for any non-2xx answer. Message is the server's
// "error" field when present.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("arena api: status %d: %s", e.StatusCode, e.Message)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.http = httpClient
		}
	}
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type DebateRequest struct {
	UserMessage         string `json:"userMessage"`
	CharacterID         string `json:"characterId,omitempty"`
	Topic               string `json:"topic"`
	UserSide            string `json:"userSide,omitempty"`
	AISide              string `json:"aiSide,omitempty"`
	ConversationHistory []Turn `json:"conversationHistory,omitempty"`
}

type ScoreRequest struct {
	Response       string `json:"response"`
	Topic          string `json:"topic"`
	CharacterLevel string `json:"characterLevel,omitempty"`
}

type IntroRequest struct {
	CharacterID string `json:"characterId,omitempty"`
	Topic       string `json:"topic"`
	AISide      string `json:"aiSide,omitempty"`
}

type RoomTokenRequest struct {
	RoomName        string `json:"roomName,omitempty"`
	ParticipantName string `json:"participantName"`
}

type RoomToken struct {
	Token     string `json:"token"`
	URL       string `json:"url"`
	RoomName  string `json:"roomName"`
	Identity  string `json:"identity"`
	ExpiresAt string `json:"expiresAt"`
}

type Models struct {
	AvailableModels []string          `json:"available_models"`
	CharacterModels map[string]string `json:"character_models"`
	Note            string            `json:"note"`
	Timestamp       string            `json:"timestamp"`
}

type Health struct {
	Status              string            `json:"status"`
	Service             string            `json:"service"`
	GroqStatus          string            `json:"groq_status"`
	CustomTopicsCount   int               `json:"custom_topics_count"`
	TopicStoreStatus    string            `json:"topic_store_status"`
	CharactersAvailable int               `json:"characters_available"`
	ModelsUsed          map[string]string `json:"models_used"`
	ScoringEnabled      bool              `json:"scoring_enabled"`
	Timestamp           string            `json:"timestamp"`
}

type Characters struct {
	Default    string                `json:"default"`
	Characters []character.Character `json:"characters"`
}

type SaveTopicResult struct {
	Success bool     `json:"success"`
	Topics  []string `json:"topics"`
	Message string   `json:"message"`
}

func (c *Client) Respond(ctx context.Context, req DebateRequest) (debate.Reply, error) {
	var out debate.Reply
	err := c.do(ctx, http.MethodPost, "/api/ai-response", req, &out)
	return out, err
}

func (c *Client) Score(ctx context.Context, req ScoreRequest) (debate.ScoreResult, error) {
	var out debate.ScoreResult
	err := c.do(ctx, http.MethodPost, "/api/score-response", req, &out)
	return out, err
}

func (c *Client) Topics(ctx context.Context) ([]string, error) {
	var out struct {
		Topics []string `json:"topics"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/custom-topics", nil, &out); err != nil {
		return nil, err
	}
	if out.Topics == nil {
		out.Topics = []string{}
	}
	return out.Topics, nil
}

func (c *Client) SaveTopic(ctx context.Context, topic string) (SaveTopicResult, error) {
	var out SaveTopicResult
	err := c.do(ctx, http.MethodPost, "/api/save-topic", map[string]string{"topic": topic}, &out)
	return out, err
}

func (c *Client) Introduce(ctx context.Context, req IntroRequest) (debate.Introduction, error) {
	var out debate.Introduction
	err := c.do(ctx, http.MethodPost, "/api/introduction", req, &out)
	return out, err
}

func (c *Client) Models(ctx context.Context) (Models, error) {
	var out Models
	err := c.do(ctx, http.MethodGet, "/api/models", nil, &out)
	return out, err
}

func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.do(ctx, http.MethodGet, "/api/health", nil, &out)
	return out, err
}

func (c *Client) Characters(ctx context.Context) (Characters, error) {
	var out Characters
	err := c.do(ctx, http.MethodGet, "/api/characters", nil, &out)
	return out, err
}

func (c *Client) RoomToken(ctx context.Context, req RoomTokenRequest) (RoomToken, error) {
	var out RoomToken
	err := c.do(ctx, http.MethodPost, "/api/livekit-token", req, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("arena api: marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("arena api: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("arena api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("arena api: decode %s: %w", path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload struct {
		Error string `json:"error"`
	}
	message := strings.TrimSpace(string(raw))
	if err := json.Unmarshal(raw, &payload); err == nil && strings.TrimSpace(payload.Error) != "" {
		message = strings.TrimSpace(payload.Error)
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	return &APIError{StatusCode: resp.StatusCode, Message: message}
}
