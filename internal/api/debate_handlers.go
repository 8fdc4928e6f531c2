package api

import (
	"errors"
	"net/http"

	"debatearena/internal/debate"
	"debatearena/internal/observability"
)

func (s *Server) handleAIResponse(w http.ResponseWriter, r *http.Request) {
	var req aiResponseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	reply, err := s.debate.Respond(r.Context(), req.toDebate())
	if err != nil {
		var validationErr *debate.ValidationError
		if errors.As(err, &validationErr) {
			writeBadRequest(w, validationErr.Message)
			return
		}
		s.logger.Error("debate_respond_failed", observability.Fields{
			"request_id": requestIDFromRequest(r),
			"error":      err,
		})
		writeInternalError(w, "could not generate response")
		return
	}

	if reply.Fallback {
		s.logger.Info("debate_fallback_served", observability.Fields{
			"request_id": requestIDFromRequest(r),
			"character":  reply.Character,
			"tier":       reply.Tier,
		})
	}
	writeJSON(w, http.StatusOK, reply)
}

// handleScoreResponse answers 200 for every well-formed request; scoring
// problems show up as default values in the body.
func (s *Server) handleScoreResponse(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, s.debate.Score(r.Context(), req.toDebate()))
}

func (s *Server) handleIntroduction(w http.ResponseWriter, r *http.Request) {
	var req introductionRequest
	if err := decodeJSONAllowEmpty(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, s.debate.Introduce(r.Context(), req.toDebate()))
}
