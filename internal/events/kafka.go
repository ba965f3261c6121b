// internal/events/kafka.go
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type KafkaPublisher struct {
	w *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        true,
			Completion: func(messages []kafka.Message, err error) {
				if err != nil {
					logrus.WithError(err).WithField("messages", len(messages)).Error("Failed to deliver fulfillment events")
				}
			},
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, env Envelope) error {
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(env.CorrelationID),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(env.EventType)},
		},
	})
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

// LogPublisher writes events to the log only; used when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, env Envelope) error {
	logrus.WithFields(logrus.Fields{
		"event_id":   env.EventID,
		"event_type": env.EventType,
		"order_id":   env.CorrelationID,
		"payload":    string(env.Payload),
	}).Info("Fulfillment event")
	return nil
}

func (LogPublisher) Close() error { return nil }
