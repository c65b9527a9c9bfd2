package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

type KafkaConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaAuditor publishes events to a Kafka topic keyed by entity name.
type KafkaAuditor struct {
	writer messageWriter
	topic  string
}

func NewKafkaAuditor(cfg KafkaConfig) (*KafkaAuditor, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one Kafka broker is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("Kafka topic is required")
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	log.Printf("[KAFKA] audit events -> %s on %v", cfg.Topic, cfg.Brokers)

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
	}
	return &KafkaAuditor{writer: writer, topic: cfg.Topic}, nil
}

func (a *KafkaAuditor) Record(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(ev.Entity),
		Value: payload,
		Time:  ev.At,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(ev.Kind)},
			{Key: "entity", Value: []byte(ev.Entity)},
		},
	}
	if err := a.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write audit event to Kafka topic %s: %w", a.topic, err)
	}
	return nil
}

func (a *KafkaAuditor) Close() error {
	return a.writer.Close()
}
