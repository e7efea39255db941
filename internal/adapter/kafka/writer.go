// Package kafka publishes dashboard interactions to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/okh2o/stream-dashboard/internal/config"
	"github.com/okh2o/stream-dashboard/internal/domain"
	"github.com/okh2o/stream-dashboard/internal/observability"
)

// Writer produces interaction records to the configured topic.
// It implements pipeline.InteractionSink. Writes are asynchronous: Publish
// never waits for the broker and delivery outcomes are only counted.
type Writer struct {
	writer  *kafkago.Writer
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewWriter creates an async Kafka producer for the interaction topic.
func NewWriter(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	w := &Writer{logger: logger, metrics: metrics}
	w.writer = &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		BatchTimeout:           100 * time.Millisecond,
		Async:                  true,
		AllowAutoTopicCreation: true,
		Completion:             w.completed,
	}
	metrics.SinkEnabled.Set(1)
	return w
}

// Publish queues one interaction record.
func (w *Writer) Publish(ctx context.Context, in domain.Interaction) error {
	msg, err := serializeToMessage(in)
	if err != nil {
		w.metrics.InteractionsPublished.WithLabelValues("error").Inc()
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *Writer) completed(msgs []kafkago.Message, err error) {
	if err != nil {
		w.metrics.InteractionsPublished.WithLabelValues("error").Add(float64(len(msgs)))
		w.logger.Warn("interaction delivery failed", "messages", len(msgs), "error", err)
		return
	}
	w.metrics.InteractionsPublished.WithLabelValues("success").Add(float64(len(msgs)))
}

// Close flushes pending messages and closes the producer.
func (w *Writer) Close() error {
	w.metrics.SinkEnabled.Set(0)
	return w.writer.Close()
}

// serializeToMessage marshals an Interaction into a Kafka message keyed by
// station label, or by event type for style changes.
func serializeToMessage(in domain.Interaction) (kafkago.Message, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize interaction: %w", err)
	}
	key := in.Label
	if key == "" {
		key = in.Type
	}
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Time:  in.At,
		Headers: []kafkago.Header{
			{Key: "interaction_type", Value: []byte(in.Type)},
			{Key: "occurred_at", Value: []byte(in.At.Format(time.RFC3339))},
		},
	}, nil
}
