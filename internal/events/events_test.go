package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"

	"debatearena/internal/observability"
)

func TestSanitizeDropsRawTextFields(t *testing.T) {
	got := Sanitize(map[string]any{
		"userMessage": "my secret argument",
		"response":    "model output",
		"character":   "titan",
		"score":       12,
		"nested": map[string]any{
			"text":  "hidden",
			"level": "expert",
			"long":  strings.Repeat("a", 300),
		},
		"tags":  []string{"fallback", " ", "local"},
		"empty": "   ",
	})

	for _, key := range []string{"userMessage", "response", "empty"} {
		if _, exists := got[key]; exists {
			t.Fatalf("%s must be removed: %#v", key, got)
		}
	}
	if got["character"] != "titan" || got["score"] != 12 {
		t.Fatalf("expected scalar fields kept: %#v", got)
	}
	nested, ok := got["nested"].(map[string]any)
	if !ok {
		t.Fatalf("nested map missing: %#v", got["nested"])
	}
	if _, exists := nested["text"]; exists {
		t.Fatalf("nested text must be removed")
	}
	if len(nested["long"].(string)) != maxValueRunes {
		t.Fatalf("long value should be truncated to %d runes", maxValueRunes)
	}
	tags, ok := got["tags"].([]any)
	if !ok || len(tags) != 2 {
		t.Fatalf("unexpected tags: %#v", got["tags"])
	}
}

type recordingSink struct {
	events []Event
	err    error
}

func (s *recordingSink) Emit(_ context.Context, event Event) error {
	s.events = append(s.events, event)
	return s.err
}

func (s *recordingSink) Close() error { return nil }

func TestRecorderRejectsUnknownEventsAndLogsFailures(t *testing.T) {
	var logs bytes.Buffer
	sink := &recordingSink{err: errors.New("broker down")}
	recorder := NewRecorder(sink, observability.NewLoggerTo("test", &logs))
	recorder.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	recorder.Record(context.Background(), "made_up", nil)
	if len(sink.events) != 0 {
		t.Fatalf("unknown events must not reach the sink")
	}
	if !strings.Contains(logs.String(), "event_rejected") {
		t.Fatalf("expected rejection to be logged: %s", logs.String())
	}

	recorder.Record(context.Background(), " Debate_Turn ", map[string]any{"character": "leo", "userMessage": "hi"})
	if len(sink.events) != 1 {
		t.Fatalf("expected one emitted event, got %d", len(sink.events))
	}
	event := sink.events[0]
	if event.Name != EventDebateTurn || event.OccurredAt.Year() != 2026 {
		t.Fatalf("unexpected event: %+v", event)
	}
	if _, exists := event.Metadata["userMessage"]; exists {
		t.Fatalf("raw text reached the sink")
	}
	if !strings.Contains(logs.String(), "event_emit_failed") {
		t.Fatalf("expected emit failure to be logged: %s", logs.String())
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var recorder *Recorder
	recorder.Record(context.Background(), EventDebateTurn, nil)
	if err := recorder.Close(); err != nil {
		t.Fatalf("Close() on nil recorder: %v", err)
	}
}

func TestKafkaSinkPublishesJSON(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var event Event
		if err := json.Unmarshal(val, &event); err != nil {
			return err
		}
		if event.Name != EventResponseScored || event.Metadata["level"] != "expert" {
			return fmt.Errorf("unexpected payload %s", val)
		}
		return nil
	})
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	sink := newKafkaSinkWithProducer(producer, "")
	event := Event{Name: EventResponseScored, Metadata: map[string]any{"character": "titan", "level": "expert"}}
	if err := sink.Emit(context.Background(), event); err != nil {
		t.Fatalf("Emit() error: %v", err)
	}
	if err := sink.Emit(context.Background(), event); err == nil {
		t.Fatalf("expected producer failure to surface")
	}
	if sink.topic != "debate-events" {
		t.Fatalf("expected default topic, got %q", sink.topic)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
}

func TestLogSinkPrefixesMetadata(t *testing.T) {
	var logs bytes.Buffer
	sink := NewLogSink(observability.NewLoggerTo("test", &logs))
	if err := sink.Emit(context.Background(), Event{Name: EventTopicSaved, Metadata: map[string]any{"topic_count": 3}}); err != nil {
		t.Fatalf("Emit() error: %v", err)
	}
	if !strings.Contains(logs.String(), `"event_topic_count":3`) {
		t.Fatalf("expected prefixed metadata in log: %s", logs.String())
	}
}
