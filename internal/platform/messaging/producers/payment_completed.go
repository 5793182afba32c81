package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"github.com/skillpay-payments/internal/config"
)

type PaymentCompletedProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// NewPaymentCompletedProducer creates the producer for completed-payment
// events and ensures the topic exists. Writes are synchronous: the caller
// has already claimed the side-effect guard, so a lost event means a lost
// entitlement, and we want to know about it at publish time.
func NewPaymentCompletedProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*PaymentCompletedProducer, error) {
	if cfg.PaymentEventsTopic == "" {
		return nil, fmt.Errorf("kafka payment events topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for payment events producer: %w", err)
	}
	defer conn.Close()

	if err := ensureTopic(conn, cfg.PaymentEventsTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure payment events topic %s exists: %w", cfg.PaymentEventsTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.PaymentEventsTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to write payment events", "topic", cfg.PaymentEventsTopic, "error", err, "count", len(messages))
			} else {
				logger.Debug("Successfully wrote payment events", "topic", cfg.PaymentEventsTopic, "count", len(messages))
			}
		},
	}

	return &PaymentCompletedProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.PaymentEventsTopic,
	}, nil
}

func (p *PaymentCompletedProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal message value for payment events producer: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish payment event",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish payment event to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published payment event",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *PaymentCompletedProducer) Close() error {
	p.logger.Info("Closing payment events Kafka producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close payment events kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
