// Package auth mints and verifies access tokens for the real-time audio room
// service. Tokens follow the LiveKit format: an HS256 JWT issued by the API
// key, whose subject is the participant identity and whose video claim holds
// the room grant.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultTokenTTL = 10 * time.Minute

var (
	ErrMissingCredentials = errors.New("room service api key and secret are required")
	ErrMissingRoom        = errors.New("room name is required")
	ErrMissingIdentity    = errors.New("participant identity is required")
)

type RoomGrant struct {
	Room         string
	Identity     string
	Name         string
	CanPublish   bool
	CanSubscribe bool
}

type VideoGrant struct {
	RoomJoin     bool   `json:"roomJoin,omitempty"`
	Room         string `json:"room,omitempty"`
	CanPublish   *bool  `json:"canPublish,omitempty"`
	CanSubscribe *bool  `json:"canSubscribe,omitempty"`
}

type Claims struct {
	Name  string      `json:"name,omitempty"`
	Video *VideoGrant `json:"video,omitempty"`
	jwt.RegisteredClaims
}

func MintRoomToken(apiKey, secret string, grant RoomGrant, ttl time.Duration) (string, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" || secret == "" {
		return "", ErrMissingCredentials
	}
	room := strings.TrimSpace(grant.Room)
	if room == "" {
		return "", ErrMissingRoom
	}
	identity := strings.TrimSpace(grant.Identity)
	if identity == "" {
		return "", ErrMissingIdentity
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	canPublish := grant.CanPublish
	canSubscribe := grant.CanSubscribe
	now := time.Now()
	claims := Claims{
		Name: strings.TrimSpace(grant.Name),
		Video: &VideoGrant{
			RoomJoin:     true,
			Room:         room,
			CanPublish:   &canPublish,
			CanSubscribe: &canSubscribe,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    apiKey,
			Subject:   identity,
			ID:        identity,
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseRoomToken verifies tokenString against secret and returns its claims.
// When apiKey is set the issuer must match it.
func ParseRoomToken(apiKey, secret, tokenString string) (Claims, error) {
	options := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if strings.TrimSpace(apiKey) != "" {
		options = append(options, jwt.WithIssuer(strings.TrimSpace(apiKey)))
	}

	claims := Claims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	}, options...)
	if err != nil {
		return Claims{}, err
	}
	if !token.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if claims.Video == nil || !claims.Video.RoomJoin || claims.Video.Room == "" {
		return Claims{}, errors.New("token carries no room grant")
	}
	return claims, nil
}

// Grant converts verified claims back into the grant they were minted from.
func (c Claims) Grant() RoomGrant {
	grant := RoomGrant{Identity: c.Subject, Name: c.Name}
	if c.Video != nil {
		grant.Room = c.Video.Room
		grant.CanPublish = c.Video.CanPublish != nil && *c.Video.CanPublish
		grant.CanSubscribe = c.Video.CanSubscribe != nil && *c.Video.CanSubscribe
	}
	return grant
}
