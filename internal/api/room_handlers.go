package api

import (
	"net/http"
	"time"

	"debatearena/internal/auth"
	"debatearena/internal/events"
	"debatearena/internal/observability"

	"github.com/google/uuid"
)

type roomTokenResponse struct {
	Token     string `json:"token"`
	URL       string `json:"url"`
	RoomName  string `json:"roomName"`
	Identity  string `json:"identity"`
	ExpiresAt string `json:"expiresAt"`
}

func (s *Server) handleRoomToken(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.RoomServiceConfigured() {
		writeServiceUnavailable(w, "Room service is not configured")
		return
	}

	var req roomTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	name, err := validateParticipantName(req.ParticipantName)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	room, err := validateRoomName(req.RoomName)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if room == "" {
		room = s.cfg.RoomNamePrefix + uuid.NewString()
	}

	ttl := s.cfg.RoomTokenTTL
	if ttl <= 0 {
		ttl = auth.DefaultTokenTTL
	}
	identity := "player-" + uuid.NewString()
	token, err := auth.MintRoomToken(s.cfg.LiveKitAPIKey, s.cfg.LiveKitAPISecret, auth.RoomGrant{
		Room:         room,
		Identity:     identity,
		Name:         name,
		CanPublish:   true,
		CanSubscribe: true,
	}, ttl)
	if err != nil {
		s.logger.Error("room_token_mint_failed", observability.Fields{
			"request_id": requestIDFromRequest(r),
			"error":      err,
		})
		writeInternalError(w, "could not create room token")
		return
	}

	s.events.Record(r.Context(), events.EventRoomTokenIssued, map[string]any{
		"room":        room,
		"ttl_seconds": int(ttl / time.Second),
	})
	writeJSON(w, http.StatusOK, roomTokenResponse{
		Token:     token,
		URL:       s.cfg.LiveKitURL,
		RoomName:  room,
		Identity:  identity,
		ExpiresAt: s.now().Add(ttl).UTC().Format(time.RFC3339),
	})
}
