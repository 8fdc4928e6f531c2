package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestMintAndParseRoomToken(t *testing.T) {
	grant := RoomGrant{
		Room:         "debate-room-42",
		Identity:     "player-7",
		Name:         "Player Seven",
		CanPublish:   true,
		CanSubscribe: true,
	}
	token, err := MintRoomToken("APIkey123", "s3cret", grant, time.Minute)
	if err != nil {
		t.Fatalf("MintRoomToken() error: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("expected a compact JWT, got %q", token)
	}

	claims, err := ParseRoomToken("APIkey123", "s3cret", token)
	if err != nil {
		t.Fatalf("ParseRoomToken() error: %v", err)
	}
	if claims.Issuer != "APIkey123" || claims.Subject != "player-7" {
		t.Fatalf("unexpected registered claims: %+v", claims.RegisteredClaims)
	}
	if got := claims.Grant(); got != grant {
		t.Fatalf("Grant() = %+v, want %+v", got, grant)
	}
	if claims.ExpiresAt.Sub(claims.NotBefore.Time) != time.Minute {
		t.Fatalf("expected one minute validity, got %s", claims.ExpiresAt.Sub(claims.NotBefore.Time))
	}
}

func TestMintRoomTokenListenOnly(t *testing.T) {
	token, err := MintRoomToken("key", "secret", RoomGrant{Room: "r", Identity: "ai-luna", CanSubscribe: true}, 0)
	if err != nil {
		t.Fatalf("MintRoomToken() error: %v", err)
	}
	claims, err := ParseRoomToken("", "secret", token)
	if err != nil {
		t.Fatalf("ParseRoomToken() error: %v", err)
	}
	if claims.Video.CanPublish == nil || *claims.Video.CanPublish {
		t.Fatalf("expected explicit canPublish=false, got %+v", claims.Video)
	}
	if claims.ExpiresAt.Sub(claims.NotBefore.Time) != DefaultTokenTTL {
		t.Fatalf("expected default ttl")
	}
}

func TestMintRoomTokenValidation(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		secret string
		grant  RoomGrant
		want   error
	}{
		{"missing key", "", "secret", RoomGrant{Room: "r", Identity: "i"}, ErrMissingCredentials},
		{"missing secret", "key", "", RoomGrant{Room: "r", Identity: "i"}, ErrMissingCredentials},
		{"missing room", "key", "secret", RoomGrant{Identity: "i"}, ErrMissingRoom},
		{"missing identity", "key", "secret", RoomGrant{Room: "r", Identity: "  "}, ErrMissingIdentity},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := MintRoomToken(tc.key, tc.secret, tc.grant, time.Minute); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestParseRoomTokenRejectsTampering(t *testing.T) {
	token, err := MintRoomToken("key", "secret", RoomGrant{Room: "r", Identity: "i"}, time.Minute)
	if err != nil {
		t.Fatalf("MintRoomToken() error: %v", err)
	}
	if _, err := ParseRoomToken("key", "other-secret", token); err == nil {
		t.Fatalf("expected signature failure")
	}
	if _, err := ParseRoomToken("other-key", "secret", token); err == nil {
		t.Fatalf("expected issuer mismatch")
	}

	expired, err := MintRoomToken("key", "secret", RoomGrant{Room: "r", Identity: "i"}, -time.Minute)
	if err != nil {
		t.Fatalf("MintRoomToken() error: %v", err)
	}
	if _, err := ParseRoomToken("key", "secret", expired); err != nil {
		t.Fatalf("non-positive ttl should fall back to the default, got %v", err)
	}

	noGrant := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Issuer: "key", Subject: "i"})
	signed, err := noGrant.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseRoomToken("key", "secret", signed); err == nil {
		t.Fatalf("expected missing grant error")
	}
}
