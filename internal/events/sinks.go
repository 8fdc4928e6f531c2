package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/IBM/sarama"

	"debatearena/internal/observability"
)

type LogSink struct {
	logger *observability.Logger
}

func NewLogSink(logger *observability.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(_ context.Context, event Event) error {
	fields := observability.Fields{"event_name": event.Name}
	for key, value := range event.Metadata {
		fields["event_"+key] = value
	}
	s.logger.Info("analytics_event", fields)
	return nil
}

func (s *LogSink) Close() error {
	return nil
}

// KafkaSink publishes events as JSON, keyed by character so one persona's
// events stay ordered within a partition.
type KafkaSink struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return newKafkaSinkWithProducer(producer, topic), nil
}

func newKafkaSinkWithProducer(producer sarama.SyncProducer, topic string) *KafkaSink {
	if strings.TrimSpace(topic) == "" {
		topic = "debate-events"
	}
	return &KafkaSink{producer: producer, topic: topic}
}

func (s *KafkaSink) Emit(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Value: sarama.ByteEncoder(payload),
	}
	if character, ok := event.Metadata["character"].(string); ok && character != "" {
		msg.Key = sarama.StringEncoder(character)
	}

	if _, _, err := s.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("send event %s: %w", event.Name, err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.producer.Close()
}
