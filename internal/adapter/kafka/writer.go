package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/cubesat-wildfire-twin/internal/config"
	"github.com/couchcryptid/cubesat-wildfire-twin/internal/domain"
)

// Writer publishes payout events to a Kafka topic.
// It implements pipeline.DetectionSink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates an asynchronous Kafka producer for the payout topic so
// publishing never stalls the simulation loop. Delivery failures are logged.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaPayoutTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		Async:        true,
		Completion: func(msgs []kafkago.Message, err error) {
			if err != nil {
				logger.Error("payout event delivery failed", "error", err, "messages", len(msgs))
			}
		},
	}
	return &Writer{writer: w, logger: logger}
}

// PublishDetection serializes a detection into a payout event and hands it
// to the producer.
func (w *Writer) PublishDetection(ctx context.Context, r domain.DetectionResult) error {
	msg, err := serializeToMessage(r)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish payout event: %w", err)
	}
	w.logger.Info("payout event queued", "detection_id", r.ID, "topic", w.writer.Topic)
	return nil
}

// Close flushes queued events and releases the producer.
func (w *Writer) Close() error {
	return w.writer.Close()
}

// PayoutEvent is the wire form of a triggered payout.
type PayoutEvent struct {
	domain.DetectionResult
	PayoutStatus string `json:"payout_status"`
}

// serializeToMessage marshals a DetectionResult into a Kafka message keyed by
// detection ID.
func serializeToMessage(r domain.DetectionResult) (kafkago.Message, error) {
	data, err := json.Marshal(PayoutEvent{DetectionResult: r, PayoutStatus: "executed"})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize payout event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(r.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte("wildfire_payout")},
			{Key: "detected_at", Value: []byte(r.DetectedAt.Format(time.RFC3339))},
		},
	}, nil
}
