package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"tracelink/internal/ledger"
)

// Sink delivers ledger events to a downstream consumer.
type Sink interface {
	Publish(ctx context.Context, event ledger.Event) error
}

// KafkaSink publishes events to a Kafka topic, keyed by product id so all
// events for one product land on one partition in order.
type KafkaSink struct {
	client *kgo.Client
}

// NewKafkaSink connects to the given brokers and produces to topic.
func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaSink{client: client}, nil
}

func (s *KafkaSink) Publish(ctx context.Context, event ledger.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %d: %w", event.ID, err)
	}
	record := &kgo.Record{
		Key:   []byte(event.ProductID.String()),
		Value: payload,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce event %d: %w", event.ID, err)
	}
	return nil
}

// Close flushes and closes the Kafka client.
func (s *KafkaSink) Close() {
	s.client.Close()
}

// LogSink is the development fallback when no brokers are configured: events
// are logged instead of published so the relay path stays exercised.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Publish(ctx context.Context, event ledger.Event) error {
	s.logger.DebugContext(ctx, "relay event",
		"event_id", event.ID,
		"event_type", event.Type,
		"product_id", event.ProductID,
	)
	return nil
}
