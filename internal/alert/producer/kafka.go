// Package producer publishes alert payloads to Kafka for the delivery worker.
package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"insider-sentinel/monitor/internal/alert"
)

// KafkaNotifier implements alert.Notifier using segmentio/kafka-go.
type KafkaNotifier struct {
	writer *kafka.Writer
	topic  string
}

// NewKafkaNotifier creates a Kafka notifier that writes alert payloads to the
// given topic. brokers must be non-empty. Call Close when shutting down.
func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
	}
	return &KafkaNotifier{writer: writer, topic: topic}
}

// Notify serializes the payload as JSON and writes it to the Kafka topic.
// Keyed by subject so one subject's alerts stay ordered within a partition.
func (n *KafkaNotifier) Notify(ctx context.Context, p *alert.Payload) error {
	if n == nil || n.writer == nil || p == nil {
		return nil
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return n.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(p.SubjectID),
		Value: payload,
	})
}

// Close closes the Kafka writer. Safe to call multiple times.
func (n *KafkaNotifier) Close() error {
	if n == nil || n.writer == nil {
		return nil
	}
	return n.writer.Close()
}
