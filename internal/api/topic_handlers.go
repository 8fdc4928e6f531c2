package api

import (
	"context"
	"net/http"
	"time"

	"debatearena/internal/events"
	"debatearena/internal/observability"
)

func (s *Server) listTopics(ctx context.Context) ([]string, error) {
	startedAt := time.Now()
	list, err := s.topics.List(ctx)
	s.metrics.ObserveTopicStore(time.Since(startedAt))
	if list == nil {
		list = []string{}
	}
	return list, err
}

// handleListTopics never fails: an unreadable store reads as no topics.
func (s *Server) handleListTopics(w http.ResponseWriter, r *http.Request) {
	list, err := s.listTopics(r.Context())
	if err != nil {
		s.logger.Warn("topic_list_failed", observability.Fields{
			"request_id": requestIDFromRequest(r),
			"error":      err,
		})
		list = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"topics": list})
}

func (s *Server) handleSaveTopic(w http.ResponseWriter, r *http.Request) {
	var req saveTopicRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	topic, err := validateTopic(req.Topic, s.cfg.TopicMaxLen, s.cfg.TopicSafetyScreen)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	startedAt := time.Now()
	list, err := s.topics.Add(r.Context(), topic)
	s.metrics.ObserveTopicStore(time.Since(startedAt))
	if err != nil {
		s.logger.Error("topic_save_failed", observability.Fields{
			"request_id": requestIDFromRequest(r),
			"error":      err,
		})
		list = nil
	} else {
		s.events.Record(r.Context(), events.EventTopicSaved, map[string]any{
			"topic_count": len(list),
			"topic_chars": len([]rune(topic)),
		})
	}
	// Storage failures degrade to an empty list, matching handleListTopics.
	if list == nil {
		list = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"topics":  list,
		"message": "Topic saved successfully!",
	})
}
