package room

import (
	"context"
	"errors"
	"strings"
	"time"

	"debatearena/internal/auth"
	"debatearena/internal/client"
	"debatearena/internal/config"
	"debatearena/internal/observability"

	"github.com/google/uuid"
)

type Token struct {
	Token     string
	URL       string
	RoomName  string
	Identity  string
	ExpiresAt time.Time
}

type TokenSource interface {
	Token(ctx context.Context, roomName, participantName string) (Token, error)
}

// ServerTokens asks the arena server to mint the token.
type ServerTokens struct {
	API *client.Client
}

func (s ServerTokens) Token(ctx context.Context, roomName, participantName string) (Token, error) {
	if s.API == nil {
		return Token{}, errors.New("room: no api client")
	}
	resp, err := s.API.RoomToken(ctx, client.RoomTokenRequest{
		RoomName:        roomName,
		ParticipantName: participantName,
	})
	if err != nil {
		return Token{}, err
	}
	token := Token{
		Token:    resp.Token,
		URL:      resp.URL,
		RoomName: resp.RoomName,
		Identity: resp.Identity,
	}
	if expires, err := time.Parse(time.RFC3339, resp.ExpiresAt); err == nil {
		token.ExpiresAt = expires
	}
	return token, nil
}

// LocalTokens mints tokens with the room service credentials held by this
// process. Only meant for development.
type LocalTokens struct {
	URL        string
	APIKey     string
	APISecret  string
	RoomPrefix string
	TTL        time.Duration
}

func (l LocalTokens) Token(_ context.Context, roomName, participantName string) (Token, error) {
	identity := strings.TrimSpace(participantName)
	if identity == "" {
		return Token{}, auth.ErrMissingIdentity
	}
	room := strings.TrimSpace(roomName)
	if room == "" {
		room = l.RoomPrefix + uuid.NewString()
	}
	ttl := l.TTL
	if ttl <= 0 {
		ttl = auth.DefaultTokenTTL
	}

	signed, err := auth.MintRoomToken(l.APIKey, l.APISecret, auth.RoomGrant{
		Room:         room,
		Identity:     identity,
		Name:         identity,
		CanPublish:   true,
		CanSubscribe: true,
	}, ttl)
	if err != nil {
		return Token{}, err
	}
	return Token{
		Token:     signed,
		URL:       l.URL,
		RoomName:  room,
		Identity:  identity,
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

// FallbackTokens tries Server first and mints locally when that fails and
// Local is set.
type FallbackTokens struct {
	Server TokenSource
	Local  TokenSource
	Logger *observability.Logger
}

func (f FallbackTokens) Token(ctx context.Context, roomName, participantName string) (Token, error) {
	token, err := f.Server.Token(ctx, roomName, participantName)
	if err == nil || f.Local == nil || ctx.Err() != nil {
		return token, err
	}
	f.Logger.Warn("room_token_server_failed", observability.Fields{"error": err})
	return f.Local.Token(ctx, roomName, participantName)
}

// NewTokenSource returns server-minted tokens, falling back to local minting
// outside production when room credentials are configured.
func NewTokenSource(cfg config.Config, api *client.Client, logger *observability.Logger) TokenSource {
	server := ServerTokens{API: api}
	if cfg.Production() || !cfg.RoomServiceConfigured() {
		return server
	}
	return FallbackTokens{
		Server: server,
		Local: LocalTokens{
			URL:        cfg.LiveKitURL,
			APIKey:     cfg.LiveKitAPIKey,
			APISecret:  cfg.LiveKitAPISecret,
			RoomPrefix: cfg.RoomNamePrefix,
			TTL:        cfg.RoomTokenTTL,
		},
		Logger: logger,
	}
}
