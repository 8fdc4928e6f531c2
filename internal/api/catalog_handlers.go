package api

import (
	"context"
	"net/http"

	"debatearena/internal/character"
	"debatearena/internal/debate"
	"debatearena/internal/observability"
)

const (
	serviceName = "AI Debate Arena Server"
	modelsNote  = "Using production models from Groq. All models are production-ready and supported."
)

type modelsResponse struct {
	AvailableModels []string          `json:"available_models"`
	CharacterModels map[string]string `json:"character_models"`
	Note            string            `json:"note"`
	Timestamp       string            `json:"timestamp"`
}

type charactersResponse struct {
	Default    string                `json:"default"`
	Characters []character.Character `json:"characters"`
}

type healthResponse struct {
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

func (s *Server) timestamp() string {
	return s.now().UTC().Format(debate.TimestampLayout)
}

func (s *Server) handleModels(w http.ResponseWriter, _ *http.Request) {
	available := append([]string{}, s.cfg.LLMAvailableModels...)
	writeJSON(w, http.StatusOK, modelsResponse{
		AvailableModels: available,
		CharacterModels: s.debate.Characters().Models(),
		Note:            modelsNote,
		Timestamp:       s.timestamp(),
	})
}

func (s *Server) handleCharacters(w http.ResponseWriter, _ *http.Request) {
	registry := s.debate.Characters()
	writeJSON(w, http.StatusOK, charactersResponse{
		Default:    registry.Default().ID,
		Characters: registry.All(),
	})
}

// handleHealth always answers 200. Model connectivity and topic store access
// are reported in the body.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if timeout := s.cfg.HealthProbeTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	topicStatus := "ok"
	list, err := s.listTopics(ctx)
	if err != nil {
		topicStatus = "error: " + err.Error()
		s.logger.Warn("health_topic_store_failed", observability.Fields{
			"request_id": requestIDFromRequest(r),
			"error":      err,
		})
	}

	registry := s.debate.Characters()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:              "healthy",
		Service:             serviceName,
		GroqStatus:          s.debate.Probe(ctx),
		CustomTopicsCount:   len(list),
		TopicStoreStatus:    topicStatus,
		CharactersAvailable: registry.Len(),
		ModelsUsed:          registry.Models(),
		ScoringEnabled:      true,
		Timestamp:           s.timestamp(),
	})
}
