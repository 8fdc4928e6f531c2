// Package events records gameplay analytics. Events never carry the raw text
// of arguments or replies, and emission failures never reach the player.
package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"debatearena/internal/config"
	"debatearena/internal/observability"
)

const (
	EventDebateTurn       = "debate_turn"
	EventResponseScored   = "response_scored"
	EventIntroductionSent = "introduction_sent"
	EventTopicSaved       = "topic_saved"
	EventRoomTokenIssued  = "room_token_issued"
)

var (
	ErrUnsupportedEvent = errors.New("unsupported event name")
	supportedEventNames = map[string]struct{}{
		EventDebateTurn:       {},
		EventResponseScored:   {},
		EventIntroductionSent: {},
		EventTopicSaved:       {},
		EventRoomTokenIssued:  {},
	}
)

type Event struct {
	Name       string         `json:"event_name"`
	Metadata   map[string]any `json:"metadata"`
	OccurredAt time.Time      `json:"occurred_at"`
}

type Sink interface {
	Emit(ctx context.Context, event Event) error
	Close() error
}

// NewSink returns a Kafka sink when brokers are configured and a log sink
// otherwise.
func NewSink(cfg config.Config, logger *observability.Logger) (Sink, error) {
	if len(cfg.EventsKafkaBrokers) > 0 {
		return NewKafkaSink(cfg.EventsKafkaBrokers, cfg.EventsKafkaTopic)
	}
	return NewLogSink(logger), nil
}

// Recorder validates and sanitizes events before handing them to a sink.
type Recorder struct {
	sink   Sink
	logger *observability.Logger
	now    func() time.Time
}

func NewRecorder(sink Sink, logger *observability.Logger) *Recorder {
	return &Recorder{sink: sink, logger: logger, now: time.Now}
}

// Record emits name with sanitized metadata. Failures are logged and dropped.
func (r *Recorder) Record(ctx context.Context, name string, metadata map[string]any) {
	if r == nil || r.sink == nil {
		return
	}
	event, err := r.build(name, metadata)
	if err != nil {
		r.logger.Warn("event_rejected", observability.Fields{"event_name": name, "error": err})
		return
	}
	if err := r.sink.Emit(ctx, event); err != nil {
		r.logger.Warn("event_emit_failed", observability.Fields{"event_name": event.Name, "error": err})
	}
}

func (r *Recorder) Close() error {
	if r == nil || r.sink == nil {
		return nil
	}
	return r.sink.Close()
}

func (r *Recorder) build(name string, metadata map[string]any) (Event, error) {
	clean := strings.ToLower(strings.TrimSpace(name))
	if _, ok := supportedEventNames[clean]; !ok {
		return Event{}, fmt.Errorf("%w: %q", ErrUnsupportedEvent, name)
	}
	return Event{
		Name:       clean,
		Metadata:   Sanitize(metadata),
		OccurredAt: r.now().UTC(),
	}, nil
}
